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

type transferHandler struct {
	transferService portssvc.TransferSvc
}

func registerTransferRoutes(rg *gin.RouterGroup, transferService portssvc.TransferSvc) {
	h := &transferHandler{transferService: transferService}

	transfers := rg.Group("/transfers")
	{
		transfers.POST("", middleware.RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleAccountant), h.createTransfer)
		transfers.GET("/:transferID", h.getTransfer)
	}
}

// createTransfer godoc
// @Summary Transfer funds between two accounts
// @Description Debits the source and credits the destination in one unit of work.
// @Tags transfers
// @Accept  json
// @Produce  json
// @Param   transfer body dto.TransferRequest true "Transfer"
// @Success 201 {object} domain.Transfer
// @Failure 422 {object} map[string]string "Insufficient funds"
// @Security BearerAuth
// @Router /transfers [post]
func (h *transferHandler) createTransfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	transfer, err := h.transferService.Transfer(c.Request.Context(), req, actor.UserID)
	if err != nil {
		respondError(c, err, "Failed to transfer funds")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Transfer completed",
		slog.String("transfer_id", transfer.TransferID),
		slog.String("amount", transfer.Amount.String()))
	respond(c, http.StatusCreated, transfer)
}

func (h *transferHandler) getTransfer(c *gin.Context) {
	transfer, err := h.transferService.GetTransfer(c.Request.Context(), c.Param("transferID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve transfer")
		return
	}
	respond(c, http.StatusOK, transfer)
}
