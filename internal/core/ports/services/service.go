package services

import (
	"context"
	"time"
)

// ServiceContainer holds instances of all the application services.
// It is the entry point used by the HTTP handlers, the CLI and the background workers.
type ServiceContainer struct {
	Account        AccountSvcFacade
	Journal        JournalSvcFacade
	Transfer       TransferSvc
	Reconciliation ReconciliationSvc
	PettyCash      PettyCashSvcFacade
	Loan           LoanSvcFacade
}

// Locker grants named, expiring, cross-process locks for maintenance jobs.
type Locker interface {
	// Acquire takes the named lock or fails immediately if another owner holds it.
	// The returned function releases the lock.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}
