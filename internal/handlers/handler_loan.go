package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/middleware"
)

// loanHandler handles employee loans. Approval rights are checked by the service.
type loanHandler struct {
	loanService portssvc.LoanSvcFacade
	now         func() time.Time
}

func registerLoanRoutes(rg *gin.RouterGroup, loanService portssvc.LoanSvcFacade) {
	h := &loanHandler{loanService: loanService, now: time.Now}
	approvers := middleware.RequireRole(domain.RoleAdmin, domain.RoleManager)
	collectors := middleware.RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleAccountant)

	loans := rg.Group("/loans")
	{
		loans.POST("/schedule", h.previewSchedule)
		loans.POST("", h.applyForLoan)
		loans.GET("", h.listLoans)
		loans.GET("/:loanID", h.getLoan)
		loans.POST("/:loanID/approve", approvers, h.approveLoan)
		loans.POST("/:loanID/reject", approvers, h.rejectLoan)
		loans.POST("/:loanID/cancel", h.cancelLoan)
		loans.POST("/:loanID/payments", collectors, h.recordPayment)
	}
	rg.GET("/employees/:employeeID/due-installments", h.dueInstallments)
}

func (h *loanHandler) previewSchedule(c *gin.Context) {
	var req dto.LoanScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	schedule, err := h.loanService.PreviewSchedule(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to compute schedule")
		return
	}
	respond(c, http.StatusOK, schedule)
}

// applyForLoan godoc
// @Summary Apply for an employee loan
// @Description Employees may only apply for themselves. The loan starts pending.
// @Tags loans
// @Accept  json
// @Produce  json
// @Param   application body dto.LoanApplicationRequest true "Application"
// @Success 201 {object} domain.Loan
// @Security BearerAuth
// @Router /loans [post]
func (h *loanHandler) applyForLoan(c *gin.Context) {
	var req dto.LoanApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if actor.Role == domain.RoleEmployee {
		req.EmployeeID = actor.UserID
	}

	loan, err := h.loanService.ApplyForLoan(c.Request.Context(), req, actor.UserID)
	if err != nil {
		respondError(c, err, "Failed to apply for loan")
		return
	}
	respond(c, http.StatusCreated, loan)
}

func (h *loanHandler) getLoan(c *gin.Context) {
	loan, err := h.loanService.GetLoan(c.Request.Context(), c.Param("loanID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve loan")
		return
	}
	respond(c, http.StatusOK, loan)
}

func (h *loanHandler) listLoans(c *gin.Context) {
	var params dto.ListLoansParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, "Invalid query parameters", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if actor.Role == domain.RoleEmployee {
		params.EmployeeID = actor.UserID
	}

	loans, err := h.loanService.ListLoans(c.Request.Context(), domain.LoanFilter{
		EmployeeID: params.EmployeeID,
		StationID:  params.StationID,
		Status:     domain.LoanStatus(params.Status),
		Limit:      params.Limit,
		Offset:     params.Offset,
	})
	if err != nil {
		respondError(c, err, "Failed to list loans")
		return
	}
	respond(c, http.StatusOK, loans)
}

func (h *loanHandler) approveLoan(c *gin.Context) {
	var req dto.ApproveLoanRequest
	// The body is optional: without a disbursement account the loan is approved without a bank posting.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "Invalid request format", err)
			return
		}
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	loan, err := h.loanService.ApproveLoan(c.Request.Context(), c.Param("loanID"), req, actor)
	if err != nil {
		respondError(c, err, "Failed to approve loan")
		return
	}
	respond(c, http.StatusOK, loan)
}

func (h *loanHandler) rejectLoan(c *gin.Context) {
	h.decide(c, h.loanService.RejectLoan, "Failed to reject loan")
}

func (h *loanHandler) cancelLoan(c *gin.Context) {
	h.decide(c, h.loanService.CancelLoan, "Failed to cancel loan")
}

func (h *loanHandler) decide(c *gin.Context, decide func(context.Context, string, dto.LoanDecisionRequest, domain.Actor) (*domain.Loan, error), failure string) {
	var req dto.LoanDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	loan, err := decide(c.Request.Context(), c.Param("loanID"), req, actor)
	if err != nil {
		respondError(c, err, failure)
		return
	}
	respond(c, http.StatusOK, loan)
}

func (h *loanHandler) recordPayment(c *gin.Context) {
	var req dto.LoanPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request format", err)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	loan, err := h.loanService.RecordPayment(c.Request.Context(), c.Param("loanID"), req, actor.UserID)
	if err != nil {
		respondError(c, err, "Failed to record loan payment")
		return
	}
	respond(c, http.StatusOK, loan)
}

// dueInstallments lists what payroll should deduct. asOf defaults to today.
func (h *loanHandler) dueInstallments(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	employeeID := c.Param("employeeID")
	if actor.Role == domain.RoleEmployee && employeeID != actor.UserID {
		respondError(c, apperrors.ErrForbidden, "Failed to list due installments")
		return
	}

	asOf, err := parseDate(c.Query("asOf"))
	if err != nil {
		respondBadRequest(c, "Invalid asOf date, expected YYYY-MM-DD", err)
		return
	}
	if asOf == nil {
		today := h.now().UTC()
		asOf = &today
	}

	due, err := h.loanService.DueInstallments(c.Request.Context(), employeeID, *asOf)
	if err != nil {
		respondError(c, err, "Failed to list due installments")
		return
	}
	respond(c, http.StatusOK, due)
}
