package pgsql

import (
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every repository to pool. Calls made through the
// provider's repositories auto-commit; TxManager groups calls into one transaction.
func NewRepositoryProvider(pool Beginner) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:        newPgxAccountRepository(pool),
		JournalRepo:        newPgxJournalRepository(pool),
		ReconciliationRepo: newPgxReconciliationRepository(pool),
		PettyCashRepo:      newPgxPettyCashRepository(pool),
		LoanRepo:           newPgxLoanRepository(pool),
		TxManager:          NewUnitOfWork(pool),
	}
}
