package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/middleware"
)

// accountHandler handles HTTP requests related to bank accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
	journalService portssvc.JournalReaderSvc
}

func newAccountHandler(as portssvc.AccountSvcFacade, js portssvc.JournalReaderSvc) *accountHandler {
	return &accountHandler{accountService: as, journalService: js}
}

// registerAccountRoutes registers routes related to accounts.
// Reads are open to every authenticated role; writes need a finance role.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade, journalService portssvc.JournalReaderSvc) {
	h := newAccountHandler(accountService, journalService)
	finance := middleware.RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleAccountant)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", finance, h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:accountID", h.getAccount)
		accounts.PUT("/:accountID", finance, h.updateAccount)
		accounts.POST("/:accountID/deactivate", finance, h.deactivateAccount)
		accounts.DELETE("/:accountID", finance, h.deleteAccount)
		accounts.POST("/:accountID/postings", finance, h.applyDelta)
		accounts.GET("/:accountID/verify", h.verifyBalance)
	}
}

// createAccount godoc
// @Summary Register a bank account
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Security BearerAuth
// @Router /accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), req, actor.UserID)
	if err != nil {
		respondError(c, err, "Failed to create account")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Account created", slog.String("account_id", account.AccountID))
	respond(c, http.StatusCreated, dto.ToAccountResponse(account))
}

func (h *accountHandler) getAccount(c *gin.Context) {
	account, err := h.accountService.GetAccountByID(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve account")
		return
	}
	respond(c, http.StatusOK, dto.ToAccountResponse(account))
}

// listAccounts godoc
// @Summary List bank accounts
// @Tags accounts
// @Produce  json
// @Param   stationID query string false "Station filter"
// @Param   activeOnly query bool false "Only active accounts"
// @Param   limit query int false "Limit number of results"
// @Param   offset query int false "Offset for pagination"
// @Success 200 {array} dto.AccountResponse
// @Security BearerAuth
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	var params dto.ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, "Invalid query parameters", err)
		return
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), domain.AccountFilter{
		StationID:  params.StationID,
		ActiveOnly: params.ActiveOnly,
		Limit:      params.Limit,
		Offset:     params.Offset,
	})
	if err != nil {
		respondError(c, err, "Failed to list accounts")
		return
	}
	respond(c, http.StatusOK, dto.ToAccountResponses(accounts))
}

func (h *accountHandler) updateAccount(c *gin.Context) {
	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), c.Param("accountID"), req, actor.UserID)
	if err != nil {
		respondError(c, err, "Failed to update account")
		return
	}
	respond(c, http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) deactivateAccount(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	accountID := c.Param("accountID")
	if err := h.accountService.DeactivateAccount(c.Request.Context(), accountID, actor.UserID); err != nil {
		respondError(c, err, "Failed to deactivate account")
		return
	}
	respond(c, http.StatusOK, gin.H{"accountID": accountID, "isActive": false})
}

// deleteAccount removes an account with no journal history. Accounts with entries must be deactivated instead.
func (h *accountHandler) deleteAccount(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.accountService.DeleteAccount(c.Request.Context(), c.Param("accountID"), actor.UserID); err != nil {
		respondError(c, err, "Failed to delete account")
		return
	}
	c.Status(http.StatusNoContent)
}

// applyDelta godoc
// @Summary Credit or debit an account
// @Description Posts a single journal entry and moves the balance. A repeated reference returns the original entry.
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   posting body dto.ApplyDeltaRequest true "Posting"
// @Success 201 {object} domain.JournalEntry
// @Failure 422 {object} map[string]string "Insufficient funds"
// @Security BearerAuth
// @Router /accounts/{accountID}/postings [post]
func (h *accountHandler) applyDelta(c *gin.Context) {
	var req dto.ApplyDeltaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	req.AccountID = c.Param("accountID")

	entry, err := h.accountService.ApplyDelta(c.Request.Context(), req, actor.UserID)
	if err != nil {
		respondError(c, err, "Failed to post to account")
		return
	}
	respond(c, http.StatusCreated, entry)
}

func (h *accountHandler) verifyBalance(c *gin.Context) {
	result, err := h.journalService.VerifyAccountBalance(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		respondError(c, err, "Failed to verify balance")
		return
	}
	respond(c, http.StatusOK, result)
}
