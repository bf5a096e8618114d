package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"go.opentelemetry.io/otel/attribute"
)

// accountService implements portssvc.AccountSvcFacade. ApplyDelta is the only
// path through which a bank account balance changes.
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// NewAccountService creates a new account service.
func NewAccountService(repos portsrepo.RepositoryProvider, opts ...ServiceOption) portssvc.AccountSvcFacade {
	return &accountService{
		BaseService: newBaseService(repos.TxManager, opts),
		accountRepo: repos.AccountRepo,
	}
}

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	code := strings.ToUpper(req.CurrencyCode)
	if money.GetCurrency(code) == nil {
		return nil, fmt.Errorf("%w: unknown currency code '%s'", apperrors.ErrValidation, req.CurrencyCode)
	}

	now := s.Now()
	account := domain.Account{
		AccountID:      uuid.NewString(),
		BankName:       req.BankName,
		AccountNumber:  req.AccountNumber,
		AccountName:    req.AccountName,
		CurrencyCode:   code,
		StationID:      req.StationID,
		OpeningBalance: req.OpeningBalance,
		CurrentBalance: req.OpeningBalance,
		IsActive:       true,
		Version:        1,
		AuditFields:    domain.NewAuditFields(userID, now),
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account in repository", slog.String("account_id", account.AccountID))
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("account_name", account.AccountName),
		slog.String("opening_balance", account.OpeningBalance.String()))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogDebug(ctx, "Account not found", slog.String("account_id", accountID))
			return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, accountID)
		}
		s.LogError(ctx, err, "Failed to get account by ID from repository", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to get account by ID %s: %w", accountID, err)
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts from repository", slog.String("station_id", filter.StationID))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	var updated domain.Account
	err := s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		accounts, err := lockAccounts(ctx, store, accountID)
		if err != nil {
			return err
		}
		acc := accounts[accountID]
		if req.BankName != nil {
			acc.BankName = *req.BankName
		}
		if req.AccountNumber != nil {
			acc.AccountNumber = *req.AccountNumber
		}
		if req.AccountName != nil {
			acc.AccountName = *req.AccountName
		}
		if req.StationID != nil {
			acc.StationID = *req.StationID
		}
		acc.Touch(userID, s.Now())
		if err := store.Accounts().UpdateAccount(ctx, *acc); err != nil {
			return err
		}
		updated = *acc
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update account", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to update account %s: %w", accountID, err)
	}

	s.LogInfo(ctx, "Account updated successfully", slog.String("account_id", accountID))
	return &updated, nil
}

func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	err := s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		accounts, err := lockAccounts(ctx, store, accountID)
		if err != nil {
			return err
		}
		acc := accounts[accountID]
		if !acc.IsActive {
			return fmt.Errorf("%w: account %s is already inactive", apperrors.ErrInvalidState, accountID)
		}
		acc.IsActive = false
		acc.Touch(userID, s.Now())
		return store.Accounts().UpdateAccount(ctx, *acc)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to deactivate account", slog.String("account_id", accountID))
		return fmt.Errorf("failed to deactivate account %s: %w", accountID, err)
	}

	s.LogInfo(ctx, "Account deactivated successfully", slog.String("account_id", accountID))
	return nil
}

func (s *accountService) DeleteAccount(ctx context.Context, accountID string, userID string) error {
	err := s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		if _, err := lockAccounts(ctx, store, accountID); err != nil {
			return err
		}
		count, err := store.Journal().CountEntriesReferencing(ctx, accountID)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: account %s has %d journal entries, deactivate it instead", apperrors.ErrInvalidState, accountID, count)
		}
		return store.Accounts().DeleteAccount(ctx, accountID)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to delete account", slog.String("account_id", accountID))
		return fmt.Errorf("failed to delete account %s: %w", accountID, err)
	}

	s.LogInfo(ctx, "Account deleted", slog.String("account_id", accountID), slog.String("deleted_by", userID))
	return nil
}

// ApplyDelta posts one credit or debit. A replayed Reference returns the entry
// recorded the first time without touching the balance again.
func (s *accountService) ApplyDelta(ctx context.Context, req dto.ApplyDeltaRequest, userID string) (_ *domain.JournalEntry, err error) {
	ctx, span := startSpan(ctx, "AccountService.ApplyDelta",
		attribute.String("account.id", req.AccountID),
		attribute.String("direction", string(req.Direction)))
	defer func() { endSpan(span, err) }()

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	p := posting{
		Direction:   req.Direction,
		Amount:      req.Amount,
		Type:        req.Type,
		Source:      req.Source,
		Description: req.Description,
		Reference:   req.Reference,
	}
	if req.EntryDate != nil {
		p.EntryDate = req.EntryDate.UTC()
	}

	var (
		entry  *domain.JournalEntry
		replay bool
	)
	err = s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		replay = false
		accounts, err := lockAccounts(ctx, store, req.AccountID)
		if err != nil {
			return err
		}

		if req.Reference != "" {
			existing, err := store.Journal().FindEntryByReference(ctx, req.Reference)
			switch {
			case err == nil:
				if !sameEffect(existing, req.AccountID, req.Amount, req.Direction) {
					return fmt.Errorf("%w: reference %s was already used for a different posting", apperrors.ErrDuplicate, req.Reference)
				}
				entry, replay = existing, true
				return nil
			case !errors.Is(err, apperrors.ErrNotFound):
				return err
			}
		}

		entry, err = postToAccount(ctx, store, accounts[req.AccountID], p, userID, s.Now())
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientFunds) || errors.Is(err, apperrors.ErrValidation) {
			s.LogWarn(ctx, "Balance change rejected", slog.String("account_id", req.AccountID), slog.String("reason", err.Error()))
		} else {
			s.LogError(ctx, err, "Failed to apply balance change", slog.String("account_id", req.AccountID))
		}
		return nil, fmt.Errorf("failed to apply %s to account %s: %w", strings.ToLower(string(req.Direction)), req.AccountID, err)
	}

	if replay {
		s.LogInfo(ctx, "Replayed balance change", slog.String("entry_id", entry.EntryID), slog.String("reference", req.Reference))
		return entry, nil
	}
	s.LogInfo(ctx, "Balance change applied",
		slog.String("account_id", req.AccountID),
		slog.String("entry_id", entry.EntryID),
		slog.String("direction", string(req.Direction)),
		slog.String("amount", req.Amount.String()),
		slog.String("balance_after", entry.BalanceAfter.String()))
	return entry, nil
}
