package services

import (
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/config"
	"github.com/shopspring/decimal"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, locker portssvc.Locker, opts ...ServiceOption) *portssvc.ServiceContainer {
	options := append([]ServiceOption{WithMaxRetries(cfg.TxMaxRetries)}, opts...)

	container := &portssvc.ServiceContainer{}

	// Account service first, every other posting goes through its balance rules
	container.Account = NewAccountService(repos, options...)
	container.Journal = NewJournalService(repos, container.Account, options...)
	container.Transfer = NewTransferService(repos, options...)
	container.Reconciliation = NewReconciliationService(repos, decimal.NewFromFloat(cfg.ReconcileTolerance), options...)
	container.PettyCash = NewPettyCashService(repos, options...)
	container.Loan = NewLoanService(repos, locker, cfg.LockTTL, options...)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade   = (*accountService)(nil)
	_ portssvc.JournalSvcFacade   = (*journalService)(nil)
	_ portssvc.TransferSvc        = (*transferService)(nil)
	_ portssvc.ReconciliationSvc  = (*reconciliationService)(nil)
	_ portssvc.PettyCashSvcFacade = (*pettyCashService)(nil)
	_ portssvc.LoanSvcFacade      = (*loanService)(nil)
)
