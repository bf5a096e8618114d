package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/middleware"
)

// journalHandler handles HTTP requests related to journal entries.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

func newJournalHandler(js portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{journalService: js}
}

func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)
	finance := middleware.RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleAccountant)

	entries := rg.Group("/journal-entries")
	{
		entries.POST("", finance, h.recordEntry)
		entries.GET("", h.listEntries)
		entries.GET("/:entryID", h.getEntry)
		entries.POST("/:entryID/reverse", finance, h.reverseEntry)
	}
}

// recordEntry godoc
// @Summary Record a categorised entry
// @Description Used by sales, expense and payroll integrations to post against a bank account.
// @Tags journal
// @Accept  json
// @Produce  json
// @Param   entry body dto.RecordEntryRequest true "Entry"
// @Success 201 {object} domain.JournalEntry
// @Security BearerAuth
// @Router /journal-entries [post]
func (h *journalHandler) recordEntry(c *gin.Context) {
	var req dto.RecordEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	entry, err := h.journalService.Record(c.Request.Context(), req, actor.UserID)
	if err != nil {
		respondError(c, err, "Failed to record entry")
		return
	}
	respond(c, http.StatusCreated, entry)
}

func (h *journalHandler) getEntry(c *gin.Context) {
	entry, err := h.journalService.GetEntry(c.Request.Context(), c.Param("entryID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve entry")
		return
	}
	respond(c, http.StatusOK, entry)
}

func (h *journalHandler) listEntries(c *gin.Context) {
	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, "Invalid query parameters", err)
		return
	}
	from, err := parseDate(params.From)
	if err != nil {
		respondBadRequest(c, "Invalid from date, expected YYYY-MM-DD", err)
		return
	}
	to, err := parseDate(params.To)
	if err != nil {
		respondBadRequest(c, "Invalid to date, expected YYYY-MM-DD", err)
		return
	}

	entries, err := h.journalService.ListEntries(c.Request.Context(), domain.JournalFilter{
		AccountID:  params.AccountID,
		TransferID: params.TransferID,
		Reconciled: params.Reconciled,
		From:       from,
		To:         to,
		Limit:      params.Limit,
		Offset:     params.Offset,
	})
	if err != nil {
		respondError(c, err, "Failed to list entries")
		return
	}
	respond(c, http.StatusOK, entries)
}

func (h *journalHandler) reverseEntry(c *gin.Context) {
	var req dto.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	entry, err := h.journalService.ReverseEntry(c.Request.Context(), c.Param("entryID"), req, actor.UserID)
	if err != nil {
		respondError(c, err, "Failed to reverse entry")
		return
	}
	respond(c, http.StatusCreated, entry)
}
