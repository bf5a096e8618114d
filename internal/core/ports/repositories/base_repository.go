package repositories

import "context"

// Store exposes repositories bound to a single unit of work.
type Store interface {
	Accounts() AccountRepositoryFacade
	Journal() JournalRepositoryFacade
	Reconciliations() ReconciliationRepositoryFacade
	PettyCash() PettyCashRepositoryFacade
	Loans() LoanRepositoryFacade
}

// TxFunc is the body of a unit of work.
type TxFunc func(ctx context.Context, store Store) error

// TransactionManager runs a function atomically. Every write made through the
// Store becomes visible together on commit, or not at all if fn returns an error.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn TxFunc) error
}
