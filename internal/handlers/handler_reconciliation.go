package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/middleware"
)

type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvc
}

// registerReconciliationRoutes nests reconciliation under its account.
func registerReconciliationRoutes(rg *gin.RouterGroup, reconciliationService portssvc.ReconciliationSvc) {
	h := &reconciliationHandler{reconciliationService: reconciliationService}
	finance := middleware.RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleAccountant)

	recon := rg.Group("/accounts/:accountID/reconciliations")
	{
		recon.POST("", finance, h.reconcile)
		recon.GET("", h.listReconciliations)
		recon.GET("/status", h.getStatus)
		recon.POST("/entries", finance, h.reconcileEntries)
	}
}

// reconcile godoc
// @Summary Compare a bank statement balance with the system balance
// @Description Records the difference (statement minus system). Balances are not adjusted.
// @Tags reconciliation
// @Accept  json
// @Produce  json
// @Param   accountID path string true "Account ID"
// @Param   statement body dto.ReconcileRequest true "Statement"
// @Success 201 {object} domain.Reconciliation
// @Security BearerAuth
// @Router /accounts/{accountID}/reconciliations [post]
func (h *reconciliationHandler) reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	rec, err := h.reconciliationService.Reconcile(c.Request.Context(), c.Param("accountID"), req, actor.UserID)
	if err != nil {
		respondError(c, err, "Failed to reconcile account")
		return
	}
	respond(c, http.StatusCreated, rec)
}

func (h *reconciliationHandler) reconcileEntries(c *gin.Context) {
	var req dto.ReconcileEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	status, err := h.reconciliationService.ReconcileEntries(c.Request.Context(), c.Param("accountID"), req, actor.UserID)
	if err != nil {
		respondError(c, err, "Failed to reconcile entries")
		return
	}
	respond(c, http.StatusOK, status)
}

func (h *reconciliationHandler) getStatus(c *gin.Context) {
	status, err := h.reconciliationService.GetReconciliationStatus(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		respondError(c, err, "Failed to get reconciliation status")
		return
	}
	respond(c, http.StatusOK, status)
}

func (h *reconciliationHandler) listReconciliations(c *gin.Context) {
	var params dto.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, "Invalid query parameters", err)
		return
	}

	recs, err := h.reconciliationService.ListReconciliations(c.Request.Context(), c.Param("accountID"), params.Limit, params.Offset)
	if err != nil {
		respondError(c, err, "Failed to list reconciliations")
		return
	}
	respond(c, http.StatusOK, recs)
}
