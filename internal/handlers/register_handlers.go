package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/middleware"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	registerAccountRoutes(v1, services.Account, services.Journal)
	registerReconciliationRoutes(v1, services.Reconciliation)
	registerJournalRoutes(v1, services.Journal)
	registerTransferRoutes(v1, services.Transfer)
	registerPettyCashRoutes(v1, services.PettyCash)
	registerLoanRoutes(v1, services.Loan)
}
