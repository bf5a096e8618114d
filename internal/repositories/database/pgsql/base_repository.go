package pgsql

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Beginner is a DBTX that can open transactions, typically the pool.
type Beginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	pgForeignKeyViolation  = "23503"
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// mapError translates driver errors into the apperrors sentinels services branch on.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicate, pgErr.ConstraintName)
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: %s", apperrors.ErrConflict, pgErr.Message)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", apperrors.ErrInvalidState, pgErr.ConstraintName)
		case pgCheckViolation:
			return fmt.Errorf("%w: %s", apperrors.ErrIntegrity, pgErr.ConstraintName)
		}
	}
	return err
}

// UnitOfWork runs service functions inside a single pgx transaction.
type UnitOfWork struct {
	pool Beginner
}

var _ portsrepo.TransactionManager = (*UnitOfWork)(nil)

// NewUnitOfWork creates a transaction manager over pool.
func NewUnitOfWork(pool Beginner) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

// Begin starts a new database transaction
func (u *UnitOfWork) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction. Serialization failures surface as apperrors.ErrConflict.
func (u *UnitOfWork) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to commit transaction", mapError(err))
	}
	return nil
}

// Rollback rolls back a transaction
func (u *UnitOfWork) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to rollback transaction", err)
	}
	return nil
}

// RunInTx commits when fn succeeds and rolls back otherwise. Row locks taken
// with FOR UPDATE inside fn are held until then.
func (u *UnitOfWork) RunInTx(ctx context.Context, fn portsrepo.TxFunc) error {
	tx, err := u.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, txStore{db: tx}); err != nil {
		if rbErr := u.Rollback(context.WithoutCancel(ctx), tx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return u.Commit(ctx, tx)
}

// txStore binds every repository to the same transaction.
type txStore struct {
	db DBTX
}

func (s txStore) Accounts() portsrepo.AccountRepositoryFacade { return newPgxAccountRepository(s.db) }
func (s txStore) Journal() portsrepo.JournalRepositoryFacade  { return newPgxJournalRepository(s.db) }
func (s txStore) Reconciliations() portsrepo.ReconciliationRepositoryFacade {
	return newPgxReconciliationRepository(s.db)
}
func (s txStore) PettyCash() portsrepo.PettyCashRepositoryFacade { return newPgxPettyCashRepository(s.db) }
func (s txStore) Loans() portsrepo.LoanRepositoryFacade         { return newPgxLoanRepository(s.db) }

// limitArg turns the "0 means all" convention into a NULL LIMIT.
func limitArg(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
