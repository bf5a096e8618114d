package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultReconcileTolerance is the largest gap between the stored balance and
// the journal that does not raise an integrity warning.
var DefaultReconcileTolerance = decimal.NewFromFloat(0.01)

// reconciliationService compares bank statements with the ledger. It reports
// differences and never adjusts a balance.
type reconciliationService struct {
	BaseService
	reconciliationRepo portsrepo.ReconciliationRepositoryFacade
	tolerance          decimal.Decimal
}

var _ portssvc.ReconciliationSvc = (*reconciliationService)(nil)

// NewReconciliationService creates a new reconciliation service.
func NewReconciliationService(repos portsrepo.RepositoryProvider, tolerance decimal.Decimal, opts ...ServiceOption) portssvc.ReconciliationSvc {
	if tolerance.IsNegative() || tolerance.IsZero() {
		tolerance = DefaultReconcileTolerance
	}
	return &reconciliationService{
		BaseService:        newBaseService(repos.TxManager, opts),
		reconciliationRepo: repos.ReconciliationRepo,
		tolerance:          tolerance,
	}
}

// Reconcile records the difference statement - system for an account.
func (s *reconciliationService) Reconcile(ctx context.Context, accountID string, req dto.ReconcileRequest, userID string) (_ *domain.Reconciliation, err error) {
	ctx, span := startSpan(ctx, "ReconciliationService.Reconcile", attribute.String("account.id", accountID))
	defer func() { endSpan(span, err) }()

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	var rec domain.Reconciliation
	err = s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		accounts, err := lockAccounts(ctx, store, accountID)
		if err != nil {
			return err
		}
		acc := accounts[accountID]

		now := s.Now()
		asOf := now
		if req.AsOfDate != nil {
			asOf = req.AsOfDate.UTC()
		}

		rec = domain.Reconciliation{
			ReconciliationID: uuid.NewString(),
			AccountID:        accountID,
			StatementBalance: req.StatementBalance,
			SystemBalance:    acc.CurrentBalance,
			Difference:       req.StatementBalance.Sub(acc.CurrentBalance),
			AsOfDate:         asOf,
			Notes:            req.Notes,
			AuditFields:      domain.NewAuditFields(userID, now),
		}
		if err := store.Accounts().MarkAccountReconciled(ctx, accountID, asOf, userID, now); err != nil {
			return err
		}
		return store.Reconciliations().SaveReconciliation(ctx, rec)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reconcile account", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to reconcile account %s: %w", accountID, err)
	}

	if !rec.Balanced() {
		s.LogWarn(ctx, "Statement does not match system balance",
			slog.String("account_id", accountID),
			slog.String("statement_balance", rec.StatementBalance.String()),
			slog.String("system_balance", rec.SystemBalance.String()),
			slog.String("difference", rec.Difference.String()))
	} else {
		s.LogInfo(ctx, "Account reconciled", slog.String("account_id", accountID))
	}
	return &rec, nil
}

// ReconcileEntries flags entries as matched against a statement. Either every
// entry is flagged or none is.
func (s *reconciliationService) ReconcileEntries(ctx context.Context, accountID string, req dto.ReconcileEntriesRequest, userID string) (_ *domain.ReconciliationStatus, err error) {
	ctx, span := startSpan(ctx, "ReconciliationService.ReconcileEntries",
		attribute.String("account.id", accountID),
		attribute.Int("entries", len(req.EntryIDs)))
	defer func() { endSpan(span, err) }()

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	var status *domain.ReconciliationStatus
	err = s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		accounts, err := lockAccounts(ctx, store, accountID)
		if err != nil {
			return err
		}

		found, err := store.Journal().FindEntriesByIDs(ctx, req.EntryIDs)
		if err != nil {
			return err
		}
		for _, id := range req.EntryIDs {
			entry, ok := found[id]
			if !ok || entry.AccountID != accountID {
				return fmt.Errorf("journal entry %s on account %s: %w", id, accountID, apperrors.ErrNotFound)
			}
			if entry.Reconciled {
				return fmt.Errorf("%w: journal entry %s", apperrors.ErrAlreadyReconciled, id)
			}
		}

		if err := store.Journal().MarkEntriesReconciled(ctx, req.EntryIDs, userID, s.Now()); err != nil {
			return err
		}
		status, err = s.status(ctx, store, accounts[accountID])
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reconcile entries", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to reconcile entries of account %s: %w", accountID, err)
	}

	s.LogInfo(ctx, "Entries reconciled",
		slog.String("account_id", accountID),
		slog.Int("count", len(req.EntryIDs)),
		slog.String("reconciled_balance", status.ReconciledBalance.String()))
	return status, nil
}

func (s *reconciliationService) GetReconciliationStatus(ctx context.Context, accountID string) (*domain.ReconciliationStatus, error) {
	var status *domain.ReconciliationStatus
	err := s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		accounts, err := lockAccounts(ctx, store, accountID)
		if err != nil {
			return err
		}
		status, err = s.status(ctx, store, accounts[accountID])
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to compute reconciliation status", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to get reconciliation status of account %s: %w", accountID, err)
	}
	return status, nil
}

func (s *reconciliationService) ListReconciliations(ctx context.Context, accountID string, limit int, offset int) ([]domain.Reconciliation, error) {
	recs, err := s.reconciliationRepo.ListReconciliations(ctx, accountID, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list reconciliations", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to list reconciliations of account %s: %w", accountID, err)
	}
	if recs == nil {
		recs = []domain.Reconciliation{}
	}
	return recs, nil
}

func (s *reconciliationService) status(ctx context.Context, store portsrepo.Store, acc *domain.Account) (*domain.ReconciliationStatus, error) {
	all, err := store.Journal().SumEntries(ctx, acc.AccountID, false)
	if err != nil {
		return nil, err
	}
	reconciled, err := store.Journal().SumEntries(ctx, acc.AccountID, true)
	if err != nil {
		return nil, err
	}

	status := &domain.ReconciliationStatus{
		AccountID:         acc.AccountID,
		OpeningBalance:    acc.OpeningBalance,
		CurrentBalance:    acc.CurrentBalance,
		ReconciledBalance: accounting.ExpectedBalance(acc.OpeningBalance, reconciled),
		ExpectedBalance:   accounting.ExpectedBalance(acc.OpeningBalance, all),
		ReconciledCount:   reconciled.Count,
		UnreconciledCount: all.Count - reconciled.Count,
		LastReconciledAt:  acc.LastReconciledAt,
	}
	status.IntegrityWarning = accounting.Diverges(status.CurrentBalance, status.ExpectedBalance, s.tolerance)
	if status.IntegrityWarning {
		s.LogError(ctx, apperrors.ErrIntegrity, "Stored balance diverges from journal",
			slog.String("account_id", acc.AccountID),
			slog.String("current_balance", status.CurrentBalance.String()),
			slog.String("expected_balance", status.ExpectedBalance.String()))
	}
	return status, nil
}
