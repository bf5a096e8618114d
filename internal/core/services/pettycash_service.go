package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// pettyCashService keeps each station float within [0, MaxLimit]. Entries lock
// before their float, and the float before any funding bank account.
type pettyCashService struct {
	BaseService
	pettyCashRepo portsrepo.PettyCashRepositoryFacade
}

var _ portssvc.PettyCashSvcFacade = (*pettyCashService)(nil)

// NewPettyCashService creates a new petty cash service.
func NewPettyCashService(repos portsrepo.RepositoryProvider, opts ...ServiceOption) portssvc.PettyCashSvcFacade {
	return &pettyCashService{
		BaseService:   newBaseService(repos.TxManager, opts),
		pettyCashRepo: repos.PettyCashRepo,
	}
}

func (s *pettyCashService) SetupAccount(ctx context.Context, stationID string, req dto.SetupPettyCashRequest, userID string) (*domain.PettyCashAccount, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if stationID == "" {
		return nil, fmt.Errorf("%w: station ID is required", apperrors.ErrValidation)
	}
	if req.MinLimit.GreaterThan(req.MaxLimit) {
		return nil, fmt.Errorf("%w: minimum limit %s exceeds maximum limit %s", apperrors.ErrValidation, req.MinLimit, req.MaxLimit)
	}
	if req.InitialBalance.GreaterThan(req.MaxLimit) {
		return nil, fmt.Errorf("%w: initial balance %s exceeds maximum limit %s", apperrors.ErrLimitExceeded, req.InitialBalance, req.MaxLimit)
	}

	account := domain.PettyCashAccount{
		StationID:               stationID,
		CurrentBalance:          req.InitialBalance,
		MinLimit:                req.MinLimit,
		MaxLimit:                req.MaxLimit,
		LastReplenishmentAmount: decimal.Zero,
		Version:                 1,
		AuditFields:             domain.NewAuditFields(userID, s.Now()),
	}
	if err := s.pettyCashRepo.SavePettyCashAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save petty cash account", slog.String("station_id", stationID))
		return nil, fmt.Errorf("failed to set up petty cash for station %s: %w", stationID, err)
	}

	s.LogInfo(ctx, "Petty cash account set up",
		slog.String("station_id", stationID),
		slog.String("max_limit", req.MaxLimit.String()),
		slog.String("initial_balance", req.InitialBalance.String()))
	return &account, nil
}

func (s *pettyCashService) GetStatus(ctx context.Context, stationID string) (*domain.PettyCashStatus, error) {
	account, err := s.findAccount(ctx, s.pettyCashRepo, stationID)
	if err != nil {
		return nil, err
	}
	pending, err := s.pettyCashRepo.ListPettyCashEntries(ctx, domain.PettyCashFilter{
		StationID: stationID,
		Status:    domain.ApprovalPending,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to count pending petty cash entries", slog.String("station_id", stationID))
		return nil, fmt.Errorf("failed to get petty cash status for station %s: %w", stationID, err)
	}

	return &domain.PettyCashStatus{
		Account:                  *account,
		NeedsReplenishment:       account.NeedsReplenishment(),
		RecommendedReplenishment: account.RecommendedReplenishment(),
		PendingEntries:           len(pending),
	}, nil
}

func (s *pettyCashService) UpdateLimits(ctx context.Context, stationID string, req dto.UpdatePettyCashLimitsRequest, userID string) (*domain.PettyCashAccount, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.MinLimit.GreaterThan(req.MaxLimit) {
		return nil, fmt.Errorf("%w: minimum limit %s exceeds maximum limit %s", apperrors.ErrValidation, req.MinLimit, req.MaxLimit)
	}

	var updated domain.PettyCashAccount
	err := s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		account, err := s.lockFloat(ctx, store, stationID)
		if err != nil {
			return err
		}
		if account.CurrentBalance.GreaterThan(req.MaxLimit) {
			return fmt.Errorf("%w: current balance %s exceeds new maximum limit %s", apperrors.ErrValidation, account.CurrentBalance, req.MaxLimit)
		}
		version := account.Version
		account.MinLimit = req.MinLimit
		account.MaxLimit = req.MaxLimit
		account.Touch(userID, s.Now())
		if err := store.PettyCash().UpdatePettyCashAccount(ctx, *account, version); err != nil {
			return err
		}
		account.Version = version + 1
		updated = *account
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update petty cash limits", slog.String("station_id", stationID))
		return nil, fmt.Errorf("failed to update petty cash limits for station %s: %w", stationID, err)
	}
	return &updated, nil
}

func (s *pettyCashService) RequestWithdrawal(ctx context.Context, stationID string, req dto.PettyCashWithdrawalRequest, actor domain.Actor) (*domain.PettyCashEntry, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.findAccount(ctx, s.pettyCashRepo, stationID); err != nil {
		return nil, err
	}

	entry := s.newEntry(stationID, domain.PettyCashWithdrawal, req.Amount, req.Description, actor)
	entry.Category = req.Category
	if err := s.pettyCashRepo.SavePettyCashEntry(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to save petty cash withdrawal", slog.String("station_id", stationID))
		return nil, fmt.Errorf("failed to request petty cash withdrawal: %w", err)
	}

	s.LogInfo(ctx, "Petty cash withdrawal requested",
		slog.String("entry_id", entry.EntryID),
		slog.String("station_id", stationID),
		slog.String("amount", req.Amount.String()))
	return &entry, nil
}

// Replenish records a top-up. Callers allowed to approve petty cash get it
// applied immediately, everyone else leaves it pending.
func (s *pettyCashService) Replenish(ctx context.Context, stationID string, req dto.PettyCashReplenishRequest, actor domain.Actor) (_ *domain.PettyCashEntry, err error) {
	ctx, span := startSpan(ctx, "PettyCashService.Replenish", attribute.String("station.id", stationID))
	defer func() { endSpan(span, err) }()

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	var entry domain.PettyCashEntry
	err = s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		account, err := s.lockFloat(ctx, store, stationID)
		if err != nil {
			return err
		}
		if account.CurrentBalance.Add(req.Amount).GreaterThan(account.MaxLimit) {
			return fmt.Errorf("%w: replenishing %s would take the float above %s", apperrors.ErrLimitExceeded, req.Amount, account.MaxLimit)
		}

		description := req.Description
		if description == "" {
			description = "Petty cash replenishment"
		}
		entry = s.newEntry(stationID, domain.PettyCashReplenishment, req.Amount, description, actor)
		entry.FundingAccountID = req.FundingAccountID

		if actor.Role.CanApprovePettyCash() {
			if err := s.approveLocked(ctx, store, &entry, account, actor); err != nil {
				return err
			}
		}
		return store.PettyCash().SavePettyCashEntry(ctx, entry)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to replenish petty cash", slog.String("station_id", stationID))
		return nil, fmt.Errorf("failed to replenish petty cash for station %s: %w", stationID, err)
	}

	s.LogInfo(ctx, "Petty cash replenishment recorded",
		slog.String("entry_id", entry.EntryID),
		slog.String("station_id", stationID),
		slog.String("status", string(entry.ApprovalStatus)))
	return &entry, nil
}

func (s *pettyCashService) ApproveEntry(ctx context.Context, entryID string, actor domain.Actor) (_ *domain.PettyCashEntry, err error) {
	ctx, span := startSpan(ctx, "PettyCashService.ApproveEntry", attribute.String("petty_cash.entry_id", entryID))
	defer func() { endSpan(span, err) }()

	if !actor.Role.CanApprovePettyCash() {
		return nil, fmt.Errorf("%w: role %s cannot approve petty cash", apperrors.ErrForbidden, actor.Role)
	}

	var entry domain.PettyCashEntry
	err = s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		locked, err := s.lockEntry(ctx, store, entryID)
		if err != nil {
			return err
		}
		if locked.ApprovalStatus != domain.ApprovalPending {
			return fmt.Errorf("%w: petty cash entry %s is %s", apperrors.ErrInvalidState, entryID, locked.ApprovalStatus)
		}
		account, err := s.lockFloat(ctx, store, locked.StationID)
		if err != nil {
			return err
		}
		if err := s.approveLocked(ctx, store, locked, account, actor); err != nil {
			return err
		}
		if err := store.PettyCash().UpdatePettyCashEntry(ctx, *locked); err != nil {
			return err
		}
		entry = *locked
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to approve petty cash entry", slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to approve petty cash entry %s: %w", entryID, err)
	}

	s.LogInfo(ctx, "Petty cash entry approved",
		slog.String("entry_id", entryID),
		slog.String("approved_by", actor.UserID))
	return &entry, nil
}

func (s *pettyCashService) RejectEntry(ctx context.Context, entryID string, req dto.RejectPettyCashRequest, actor domain.Actor) (*domain.PettyCashEntry, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !actor.Role.CanApprovePettyCash() {
		return nil, fmt.Errorf("%w: role %s cannot reject petty cash", apperrors.ErrForbidden, actor.Role)
	}

	var entry domain.PettyCashEntry
	err := s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		locked, err := s.lockEntry(ctx, store, entryID)
		if err != nil {
			return err
		}
		if locked.ApprovalStatus != domain.ApprovalPending {
			return fmt.Errorf("%w: petty cash entry %s is %s", apperrors.ErrInvalidState, entryID, locked.ApprovalStatus)
		}
		now := s.Now()
		locked.ApprovalStatus = domain.ApprovalRejected
		locked.RejectionReason = req.Reason
		locked.ApprovedBy = actor.UserID
		locked.ApprovedAt = &now
		locked.Touch(actor.UserID, now)
		if err := store.PettyCash().UpdatePettyCashEntry(ctx, *locked); err != nil {
			return err
		}
		entry = *locked
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reject petty cash entry", slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to reject petty cash entry %s: %w", entryID, err)
	}

	s.LogInfo(ctx, "Petty cash entry rejected", slog.String("entry_id", entryID), slog.String("rejected_by", actor.UserID))
	return &entry, nil
}

// DeleteEntry removes pending and rejected entries. Approved entries stay on
// record and are reversed instead: a withdrawal is put back into the float, a
// replenishment is taken out again (never below zero) and whatever was taken
// out goes back to the funding bank account.
func (s *pettyCashService) DeleteEntry(ctx context.Context, entryID string, actor domain.Actor) (err error) {
	ctx, span := startSpan(ctx, "PettyCashService.DeleteEntry", attribute.String("petty_cash.entry_id", entryID))
	defer func() { endSpan(span, err) }()

	var reversed bool
	err = s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		reversed = false
		entry, err := s.lockEntry(ctx, store, entryID)
		if err != nil {
			return err
		}

		switch entry.ApprovalStatus {
		case domain.ApprovalPending, domain.ApprovalRejected:
			if entry.RequestedBy != actor.UserID && !actor.Role.CanApprovePettyCash() {
				return fmt.Errorf("%w: only the requester or an approver can delete entry %s", apperrors.ErrForbidden, entryID)
			}
			return store.PettyCash().DeletePettyCashEntry(ctx, entryID)
		}

		if !actor.Role.CanApprovePettyCash() {
			return fmt.Errorf("%w: role %s cannot reverse approved petty cash", apperrors.ErrForbidden, actor.Role)
		}
		if entry.Reversed {
			return fmt.Errorf("%w: petty cash entry %s was already reversed", apperrors.ErrInvalidState, entryID)
		}

		account, err := s.lockFloat(ctx, store, entry.StationID)
		if err != nil {
			return err
		}
		version := account.Version
		now := s.Now()

		switch entry.Kind {
		case domain.PettyCashWithdrawal:
			restored := account.CurrentBalance.Add(entry.Amount)
			if restored.GreaterThan(account.MaxLimit) {
				return fmt.Errorf("%w: restoring %s would take the float above %s", apperrors.ErrLimitExceeded, entry.Amount, account.MaxLimit)
			}
			account.CurrentBalance = restored
		case domain.PettyCashReplenishment:
			removed := decimal.Min(entry.Amount, account.CurrentBalance)
			account.CurrentBalance = account.CurrentBalance.Sub(removed)
			if entry.FundingAccountID != "" && removed.IsPositive() {
				banks, err := lockAccounts(ctx, store, entry.FundingAccountID)
				if err != nil {
					return err
				}
				if _, err := postToAccount(ctx, store, banks[entry.FundingAccountID], posting{
					Direction:   domain.Credit,
					Amount:      removed,
					Type:        domain.EntryDeposit,
					Source:      domain.SourcePettyCash,
					Description: fmt.Sprintf("Reversal of petty cash replenishment for station %s", entry.StationID),
					Reference:   "pettycash-reversal:" + entry.EntryID,
				}, actor.UserID, now); err != nil {
					return err
				}
			}
		}

		account.Touch(actor.UserID, now)
		if err := store.PettyCash().UpdatePettyCashAccount(ctx, *account, version); err != nil {
			return err
		}

		entry.Reversed = true
		entry.ReversedAt = &now
		entry.ReversedBy = actor.UserID
		entry.Touch(actor.UserID, now)
		if err := store.PettyCash().UpdatePettyCashEntry(ctx, *entry); err != nil {
			return err
		}
		reversed = true
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to delete petty cash entry", slog.String("entry_id", entryID))
		return fmt.Errorf("failed to delete petty cash entry %s: %w", entryID, err)
	}

	if reversed {
		s.LogInfo(ctx, "Approved petty cash entry reversed", slog.String("entry_id", entryID), slog.String("reversed_by", actor.UserID))
	} else {
		s.LogInfo(ctx, "Petty cash entry deleted", slog.String("entry_id", entryID))
	}
	return nil
}

func (s *pettyCashService) GetEntry(ctx context.Context, entryID string) (*domain.PettyCashEntry, error) {
	entry, err := s.pettyCashRepo.FindPettyCashEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("petty cash entry %s: %w", entryID, apperrors.ErrNotFound)
		}
		s.LogError(ctx, err, "Failed to get petty cash entry", slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to get petty cash entry %s: %w", entryID, err)
	}
	return entry, nil
}

func (s *pettyCashService) ListEntries(ctx context.Context, filter domain.PettyCashFilter) ([]domain.PettyCashEntry, error) {
	entries, err := s.pettyCashRepo.ListPettyCashEntries(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list petty cash entries", slog.String("station_id", filter.StationID))
		return nil, fmt.Errorf("failed to list petty cash entries: %w", err)
	}
	if entries == nil {
		entries = []domain.PettyCashEntry{}
	}
	return entries, nil
}

// approveLocked applies a pending entry to its float, both already locked by the
// caller, and posts the funding bank debit for replenishments. The caller persists entry.
func (s *pettyCashService) approveLocked(ctx context.Context, store portsrepo.Store, entry *domain.PettyCashEntry, account *domain.PettyCashAccount, actor domain.Actor) error {
	now := s.Now()
	version := account.Version

	switch entry.Kind {
	case domain.PettyCashWithdrawal:
		if account.CurrentBalance.LessThan(entry.Amount) {
			return fmt.Errorf("%w: float holds %s, withdrawal needs %s", apperrors.ErrInsufficientFunds, account.CurrentBalance, entry.Amount)
		}
		account.CurrentBalance = account.CurrentBalance.Sub(entry.Amount)
	case domain.PettyCashReplenishment:
		topped := account.CurrentBalance.Add(entry.Amount)
		if topped.GreaterThan(account.MaxLimit) {
			return fmt.Errorf("%w: replenishing %s would take the float above %s", apperrors.ErrLimitExceeded, entry.Amount, account.MaxLimit)
		}
		account.CurrentBalance = topped
		account.LastReplenishmentAmount = entry.Amount
		account.LastReplenishmentDate = &now

		if entry.FundingAccountID != "" {
			banks, err := lockAccounts(ctx, store, entry.FundingAccountID)
			if err != nil {
				return err
			}
			funding, err := postToAccount(ctx, store, banks[entry.FundingAccountID], posting{
				Direction:   domain.Debit,
				Amount:      entry.Amount,
				Type:        domain.EntryWithdrawal,
				Source:      domain.SourcePettyCash,
				Description: fmt.Sprintf("Petty cash replenishment for station %s", entry.StationID),
				Reference:   "pettycash:" + entry.EntryID,
			}, actor.UserID, now)
			if err != nil {
				return err
			}
			entry.FundingEntryID = funding.EntryID
		}
	default:
		return fmt.Errorf("%w: unknown petty cash entry kind %s", apperrors.ErrValidation, entry.Kind)
	}

	account.Touch(actor.UserID, now)
	if err := store.PettyCash().UpdatePettyCashAccount(ctx, *account, version); err != nil {
		return err
	}
	account.Version = version + 1

	entry.ApprovalStatus = domain.ApprovalApproved
	entry.ApprovedBy = actor.UserID
	entry.ApprovedAt = &now
	entry.Touch(actor.UserID, now)
	return nil
}

func (s *pettyCashService) newEntry(stationID string, kind domain.PettyCashKind, amount decimal.Decimal, description string, actor domain.Actor) domain.PettyCashEntry {
	return domain.PettyCashEntry{
		EntryID:        uuid.NewString(),
		StationID:      stationID,
		Kind:           kind,
		Amount:         amount,
		Description:    description,
		ApprovalStatus: domain.ApprovalPending,
		RequestedBy:    actor.UserID,
		AuditFields:    domain.NewAuditFields(actor.UserID, s.Now()),
	}
}

func (s *pettyCashService) findAccount(ctx context.Context, repo portsrepo.PettyCashAccountRepository, stationID string) (*domain.PettyCashAccount, error) {
	account, err := repo.FindPettyCashAccount(ctx, stationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("petty cash account for station %s: %w", stationID, apperrors.ErrNotFound)
		}
		s.LogError(ctx, err, "Failed to get petty cash account", slog.String("station_id", stationID))
		return nil, fmt.Errorf("failed to get petty cash account for station %s: %w", stationID, err)
	}
	return account, nil
}

func (s *pettyCashService) lockFloat(ctx context.Context, store portsrepo.Store, stationID string) (*domain.PettyCashAccount, error) {
	account, err := store.PettyCash().FindPettyCashAccountForUpdate(ctx, stationID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("petty cash account for station %s: %w", stationID, apperrors.ErrNotFound)
	}
	return account, err
}

func (s *pettyCashService) lockEntry(ctx context.Context, store portsrepo.Store, entryID string) (*domain.PettyCashEntry, error) {
	entry, err := store.PettyCash().FindPettyCashEntryForUpdate(ctx, entryID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("petty cash entry %s: %w", entryID, apperrors.ErrNotFound)
	}
	return entry, err
}
