package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/utils/accounting"
	"go.opentelemetry.io/otel/attribute"
)

const reversalReferencePrefix = "reversal:"

// journalService implements portssvc.JournalSvcFacade on top of the account balance service.
type journalService struct {
	BaseService
	journalRepo portsrepo.JournalRepositoryFacade
	balances    portssvc.AccountBalanceSvc
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// NewJournalService creates a new journal service. Every posting goes through balances.
func NewJournalService(repos portsrepo.RepositoryProvider, balances portssvc.AccountBalanceSvc, opts ...ServiceOption) portssvc.JournalSvcFacade {
	return &journalService{
		BaseService: newBaseService(repos.TxManager, opts),
		journalRepo: repos.JournalRepo,
		balances:    balances,
	}
}

// Record posts an entry on behalf of a collaborating module. Deposits and interest
// always credit, withdrawals and charges always debit; other types need a direction.
func (s *journalService) Record(ctx context.Context, req dto.RecordEntryRequest, userID string) (*domain.JournalEntry, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	direction := req.Direction
	if implied := req.Type.ImpliedDirection(); implied != "" {
		if direction != "" && direction != implied {
			return nil, fmt.Errorf("%w: entry type %s must be a %s", apperrors.ErrValidation, req.Type, implied)
		}
		direction = implied
	}
	if direction == "" {
		return nil, fmt.Errorf("%w: direction is required for entry type %s", apperrors.ErrValidation, req.Type)
	}

	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}

	return s.balances.ApplyDelta(ctx, dto.ApplyDeltaRequest{
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Direction:   direction,
		Type:        req.Type,
		Source:      source,
		Description: req.Description,
		Reference:   req.Reference,
		EntryDate:   req.EntryDate,
	}, userID)
}

func (s *journalService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("journal entry %s: %w", entryID, apperrors.ErrNotFound)
		}
		s.LogError(ctx, err, "Failed to get journal entry", slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to get journal entry %s: %w", entryID, err)
	}
	return entry, nil
}

func (s *journalService) ListEntries(ctx context.Context, filter domain.JournalFilter) ([]domain.JournalEntry, error) {
	entries, err := s.journalRepo.ListEntries(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list journal entries", slog.String("account_id", filter.AccountID))
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	return entries, nil
}

// ReverseEntry posts the opposite of a single-account entry. Transfer legs are
// undone with a new transfer instead.
func (s *journalService) ReverseEntry(ctx context.Context, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	original, err := s.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if original.TransferID != "" {
		return nil, fmt.Errorf("%w: entry %s is a leg of transfer %s", apperrors.ErrInvalidState, entryID, original.TransferID)
	}
	if original.Source == domain.SourceReversal {
		return nil, fmt.Errorf("%w: entry %s is itself a reversal", apperrors.ErrInvalidState, entryID)
	}

	reversal, err := s.balances.ApplyDelta(ctx, dto.ApplyDeltaRequest{
		AccountID:   original.AccountID,
		Amount:      original.Amount,
		Direction:   original.Direction.Opposite(),
		Type:        domain.EntryOther,
		Source:      domain.SourceReversal,
		Description: fmt.Sprintf("Reversal of %s: %s", original.EntryID, req.Reason),
		Reference:   reversalReferencePrefix + original.EntryID,
	}, userID)
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry reversed",
		slog.String("entry_id", original.EntryID),
		slog.String("reversal_entry_id", reversal.EntryID))
	return reversal, nil
}

// VerifyAccountBalance recomputes opening + credits - debits under the account
// lock and compares it with the stored balance.
func (s *journalService) VerifyAccountBalance(ctx context.Context, accountID string) (_ *domain.BalanceVerification, err error) {
	ctx, span := startSpan(ctx, "JournalService.VerifyAccountBalance", attribute.String("account.id", accountID))
	defer func() { endSpan(span, err) }()

	var result domain.BalanceVerification
	err = s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		accounts, err := lockAccounts(ctx, store, accountID)
		if err != nil {
			return err
		}
		acc := accounts[accountID]

		totals, err := store.Journal().SumEntries(ctx, accountID, false)
		if err != nil {
			return err
		}
		computed := accounting.ExpectedBalance(acc.OpeningBalance, totals)

		result = domain.BalanceVerification{
			AccountID:       accountID,
			OpeningBalance:  acc.OpeningBalance,
			CurrentBalance:  acc.CurrentBalance,
			ComputedBalance: computed,
			EntryCount:      totals.Count,
			Consistent:      computed.Equal(acc.CurrentBalance),
			CheckedAt:       s.Now(),
		}

		latest, err := store.Journal().LatestEntry(ctx, accountID)
		switch {
		case err == nil:
			after := latest.BalanceAfter
			result.LastBalanceAfter = &after
			if !after.Equal(acc.CurrentBalance) {
				result.Consistent = false
			}
		case !errors.Is(err, apperrors.ErrNotFound):
			return err
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to verify account balance", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to verify balance of account %s: %w", accountID, err)
	}

	if !result.Consistent {
		s.LogError(ctx, apperrors.ErrIntegrity, "Account balance diverges from journal",
			slog.String("account_id", accountID),
			slog.String("current_balance", result.CurrentBalance.String()),
			slog.String("computed_balance", result.ComputedBalance.String()))
	}
	return &result, nil
}
