package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/middleware"
)

// pettyCashHandler handles the station float workflow. Approval rights are checked by the service.
type pettyCashHandler struct {
	pettyCashService portssvc.PettyCashSvcFacade
}

func registerPettyCashRoutes(rg *gin.RouterGroup, pettyCashService portssvc.PettyCashSvcFacade) {
	h := &pettyCashHandler{pettyCashService: pettyCashService}
	managers := middleware.RequireRole(domain.RoleAdmin, domain.RoleManager)
	staff := middleware.RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleAccountant, domain.RoleCashier)

	station := rg.Group("/stations/:stationID/petty-cash")
	{
		station.POST("", managers, h.setupAccount)
		station.GET("", h.getStatus)
		station.PUT("/limits", managers, h.updateLimits)
		station.POST("/withdrawals", staff, h.requestWithdrawal)
		station.POST("/replenishments", staff, h.replenish)
	}

	entries := rg.Group("/petty-cash/entries")
	{
		entries.GET("", h.listEntries)
		entries.GET("/:entryID", h.getEntry)
		entries.POST("/:entryID/approve", staff, h.approveEntry)
		entries.POST("/:entryID/reject", staff, h.rejectEntry)
		entries.DELETE("/:entryID", staff, h.deleteEntry)
	}
}

func (h *pettyCashHandler) setupAccount(c *gin.Context) {
	var req dto.SetupPettyCashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	account, err := h.pettyCashService.SetupAccount(c.Request.Context(), c.Param("stationID"), req, actor.UserID)
	if err != nil {
		respondError(c, err, "Failed to set up petty cash")
		return
	}
	respond(c, http.StatusCreated, account)
}

// getStatus godoc
// @Summary Petty cash float status
// @Description Current balance, limits and the recommended replenishment for a station.
// @Tags petty-cash
// @Produce  json
// @Param   stationID path string true "Station ID"
// @Success 200 {object} domain.PettyCashStatus
// @Security BearerAuth
// @Router /stations/{stationID}/petty-cash [get]
func (h *pettyCashHandler) getStatus(c *gin.Context) {
	status, err := h.pettyCashService.GetStatus(c.Request.Context(), c.Param("stationID"))
	if err != nil {
		respondError(c, err, "Failed to get petty cash status")
		return
	}
	respond(c, http.StatusOK, status)
}

func (h *pettyCashHandler) updateLimits(c *gin.Context) {
	var req dto.UpdatePettyCashLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	account, err := h.pettyCashService.UpdateLimits(c.Request.Context(), c.Param("stationID"), req, actor.UserID)
	if err != nil {
		respondError(c, err, "Failed to update petty cash limits")
		return
	}
	respond(c, http.StatusOK, account)
}

func (h *pettyCashHandler) requestWithdrawal(c *gin.Context) {
	var req dto.PettyCashWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	entry, err := h.pettyCashService.RequestWithdrawal(c.Request.Context(), c.Param("stationID"), req, actor)
	if err != nil {
		respondError(c, err, "Failed to request withdrawal")
		return
	}
	respond(c, http.StatusCreated, entry)
}

// replenish godoc
// @Summary Top up a station float
// @Description Auto-approved for approver roles. A funding account is debited in the same unit of work.
// @Tags petty-cash
// @Accept  json
// @Produce  json
// @Param   stationID path string true "Station ID"
// @Param   replenishment body dto.PettyCashReplenishRequest true "Replenishment"
// @Success 201 {object} domain.PettyCashEntry
// @Failure 422 {object} map[string]string "Limit exceeded or insufficient bank funds"
// @Security BearerAuth
// @Router /stations/{stationID}/petty-cash/replenishments [post]
func (h *pettyCashHandler) replenish(c *gin.Context) {
	var req dto.PettyCashReplenishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	entry, err := h.pettyCashService.Replenish(c.Request.Context(), c.Param("stationID"), req, actor)
	if err != nil {
		respondError(c, err, "Failed to replenish petty cash")
		return
	}
	respond(c, http.StatusCreated, entry)
}

func (h *pettyCashHandler) listEntries(c *gin.Context) {
	var params dto.ListPettyCashParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, "Invalid query parameters", err)
		return
	}

	entries, err := h.pettyCashService.ListEntries(c.Request.Context(), domain.PettyCashFilter{
		StationID: params.StationID,
		Kind:      domain.PettyCashKind(params.Kind),
		Status:    domain.ApprovalStatus(params.Status),
		Limit:     params.Limit,
		Offset:    params.Offset,
	})
	if err != nil {
		respondError(c, err, "Failed to list petty cash entries")
		return
	}
	respond(c, http.StatusOK, entries)
}

func (h *pettyCashHandler) getEntry(c *gin.Context) {
	entry, err := h.pettyCashService.GetEntry(c.Request.Context(), c.Param("entryID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve petty cash entry")
		return
	}
	respond(c, http.StatusOK, entry)
}

func (h *pettyCashHandler) approveEntry(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	entry, err := h.pettyCashService.ApproveEntry(c.Request.Context(), c.Param("entryID"), actor)
	if err != nil {
		respondError(c, err, "Failed to approve petty cash entry")
		return
	}
	respond(c, http.StatusOK, entry)
}

func (h *pettyCashHandler) rejectEntry(c *gin.Context) {
	var req dto.RejectPettyCashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	entry, err := h.pettyCashService.RejectEntry(c.Request.Context(), c.Param("entryID"), req, actor)
	if err != nil {
		respondError(c, err, "Failed to reject petty cash entry")
		return
	}
	respond(c, http.StatusOK, entry)
}

// deleteEntry removes a pending or rejected entry, or reverses an approved one.
func (h *pettyCashHandler) deleteEntry(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.pettyCashService.DeleteEntry(c.Request.Context(), c.Param("entryID"), actor); err != nil {
		respondError(c, err, "Failed to delete petty cash entry")
		return
	}
	c.Status(http.StatusNoContent)
}
