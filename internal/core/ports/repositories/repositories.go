package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// The repositories auto-commit each call; multi-step writes go through TxManager.
type RepositoryProvider struct {
	AccountRepo        AccountRepositoryFacade
	JournalRepo        JournalRepositoryFacade
	ReconciliationRepo ReconciliationRepositoryFacade
	PettyCashRepo      PettyCashRepositoryFacade
	LoanRepo           LoanRepositoryFacade
	TxManager          TransactionManager
}
