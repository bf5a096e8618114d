package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
	"go.opentelemetry.io/otel/attribute"
)

type transferService struct {
	BaseService
	journalRepo portsrepo.JournalRepositoryFacade
}

var _ portssvc.TransferSvc = (*transferService)(nil)

// NewTransferService creates a new transfer service.
func NewTransferService(repos portsrepo.RepositoryProvider, opts ...ServiceOption) portssvc.TransferSvc {
	return &transferService{
		BaseService: newBaseService(repos.TxManager, opts),
		journalRepo: repos.JournalRepo,
	}
}

// Transfer debits the source and credits the destination in one unit of work.
// Both legs share a TransferID; either both are recorded or neither is.
func (s *transferService) Transfer(ctx context.Context, req dto.TransferRequest, userID string) (_ *domain.Transfer, err error) {
	ctx, span := startSpan(ctx, "TransferService.Transfer",
		attribute.String("account.from", req.FromAccountID),
		attribute.String("account.to", req.ToAccountID))
	defer func() { endSpan(span, err) }()

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.FromAccountID == req.ToAccountID {
		return nil, apperrors.ErrSameAccount
	}

	var (
		result *domain.Transfer
		replay bool
	)
	err = s.runInTx(ctx, func(ctx context.Context, store portsrepo.Store) error {
		replay = false
		accounts, err := lockAccounts(ctx, store, req.FromAccountID, req.ToAccountID)
		if err != nil {
			return err
		}
		from, to := accounts[req.FromAccountID], accounts[req.ToAccountID]

		if req.Reference != "" {
			existing, err := store.Journal().FindEntryByReference(ctx, debitReference(req.Reference))
			switch {
			case err == nil:
				if !sameEffect(existing, req.FromAccountID, req.Amount, domain.Debit) || existing.RelatedAccountID != req.ToAccountID {
					return fmt.Errorf("%w: reference %s was already used for a different transfer", apperrors.ErrDuplicate, req.Reference)
				}
				result, err = loadTransfer(ctx, store.Journal(), existing.TransferID)
				replay = err == nil
				return err
			case !errors.Is(err, apperrors.ErrNotFound):
				return err
			}
		}

		if from.CurrencyCode != to.CurrencyCode {
			return fmt.Errorf("%w: cannot transfer between %s and %s accounts", apperrors.ErrValidation, from.CurrencyCode, to.CurrencyCode)
		}
		for _, acc := range []*domain.Account{from, to} {
			if !acc.IsActive {
				return fmt.Errorf("%w: account %s is inactive", apperrors.ErrInvalidState, acc.AccountID)
			}
		}

		now := s.Now()
		transferID := uuid.NewString()
		base := posting{
			Amount:     req.Amount,
			Type:       domain.EntryTransfer,
			Source:     domain.SourceManual,
			TransferID: transferID,
		}
		if req.EntryDate != nil {
			base.EntryDate = req.EntryDate.UTC()
		}

		debit := base
		debit.Direction = domain.Debit
		debit.RelatedAccountID = to.AccountID
		debit.Description = describeLeg(req.Description, "Transfer to "+to.AccountName)
		if req.Reference != "" {
			debit.Reference = debitReference(req.Reference)
		}
		debitEntry, err := postToAccount(ctx, store, from, debit, userID, now)
		if err != nil {
			return err
		}

		credit := base
		credit.Direction = domain.Credit
		credit.RelatedAccountID = from.AccountID
		credit.Description = describeLeg(req.Description, "Transfer from "+from.AccountName)
		if req.Reference != "" {
			credit.Reference = creditReference(req.Reference)
		}
		creditEntry, err := postToAccount(ctx, store, to, credit, userID, now)
		if err != nil {
			return err
		}

		result = &domain.Transfer{
			TransferID:    transferID,
			FromAccountID: from.AccountID,
			ToAccountID:   to.AccountID,
			Amount:        req.Amount,
			Reference:     req.Reference,
			Debit:         *debitEntry,
			Credit:        *creditEntry,
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Transfer failed",
			slog.String("from_account_id", req.FromAccountID),
			slog.String("to_account_id", req.ToAccountID),
			slog.String("amount", req.Amount.String()))
		return nil, fmt.Errorf("failed to transfer from %s to %s: %w", req.FromAccountID, req.ToAccountID, err)
	}

	if replay {
		s.LogInfo(ctx, "Replayed transfer", slog.String("transfer_id", result.TransferID), slog.String("reference", req.Reference))
		return result, nil
	}
	s.LogInfo(ctx, "Transfer completed",
		slog.String("transfer_id", result.TransferID),
		slog.String("from_account_id", result.FromAccountID),
		slog.String("to_account_id", result.ToAccountID),
		slog.String("amount", result.Amount.String()))
	return result, nil
}

func (s *transferService) GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error) {
	transfer, err := loadTransfer(ctx, s.journalRepo, transferID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to load transfer", slog.String("transfer_id", transferID))
		}
		return nil, err
	}
	return transfer, nil
}

func loadTransfer(ctx context.Context, journal portsrepo.JournalReader, transferID string) (*domain.Transfer, error) {
	legs, err := journal.ListEntries(ctx, domain.JournalFilter{TransferID: transferID})
	if err != nil {
		return nil, fmt.Errorf("failed to load transfer %s: %w", transferID, err)
	}

	transfer := &domain.Transfer{TransferID: transferID}
	var haveDebit, haveCredit bool
	for _, leg := range legs {
		switch leg.Direction {
		case domain.Debit:
			transfer.Debit, haveDebit = leg, true
			transfer.FromAccountID = leg.AccountID
			transfer.Amount = leg.Amount
		case domain.Credit:
			transfer.Credit, haveCredit = leg, true
			transfer.ToAccountID = leg.AccountID
		}
	}
	if !haveDebit && !haveCredit {
		return nil, fmt.Errorf("transfer %s: %w", transferID, apperrors.ErrNotFound)
	}
	if !haveDebit || !haveCredit {
		return nil, fmt.Errorf("%w: transfer %s has %d legs", apperrors.ErrIntegrity, transferID, len(legs))
	}
	transfer.Reference = strings.TrimSuffix(transfer.Debit.Reference, ":debit")
	return transfer, nil
}

func debitReference(ref string) string  { return ref + ":debit" }
func creditReference(ref string) string { return ref + ":credit" }

func describeLeg(description, fallback string) string {
	if description != "" {
		return description
	}
	return fallback
}
