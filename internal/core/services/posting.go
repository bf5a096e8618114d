package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// posting describes one balance change applied by postToAccount.
type posting struct {
	Direction        domain.Direction
	Amount           decimal.Decimal
	Type             domain.EntryType
	Source           domain.EntrySource
	Description      string
	Reference        string
	RelatedAccountID string
	TransferID       string
	EntryDate        time.Time
}

// lockAccounts takes the row locks of the given accounts, in ascending ID order,
// for the rest of the unit of work.
func lockAccounts(ctx context.Context, store portsrepo.Store, ids ...string) (map[string]*domain.Account, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Strings(unique)

	found, err := store.Accounts().FindAccountsByIDsForUpdate(ctx, unique)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*domain.Account, len(unique))
	for _, id := range unique {
		acc, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, id)
		}
		out[id] = &acc
	}
	return out, nil
}

// postToAccount applies p to acc, which the caller must have locked, and records
// the journal entry in the same unit of work. acc is updated in place so later
// postings in the unit of work see the new balance and version.
func postToAccount(ctx context.Context, store portsrepo.Store, acc *domain.Account, p posting, userID string, now time.Time) (*domain.JournalEntry, error) {
	if !acc.IsActive {
		return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrInvalidState, acc.AccountID)
	}
	if !p.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if !domain.FitsAmountScale(p.Amount) {
		return nil, fmt.Errorf("%w: amount %s has more than %d decimal places", apperrors.ErrValidation, p.Amount, domain.AmountScale)
	}

	newBalance, err := accounting.ApplyDirection(acc.CurrentBalance, p.Amount, p.Direction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if p.Direction == domain.Debit && newBalance.IsNegative() {
		return nil, fmt.Errorf("%w: account %s holds %s, debit of %s requested",
			apperrors.ErrInsufficientFunds, acc.AccountID, acc.CurrentBalance, p.Amount)
	}

	if err := store.Accounts().UpdateAccountBalance(ctx, acc.AccountID, newBalance, acc.Version, userID, now); err != nil {
		return nil, err
	}
	acc.CurrentBalance = newBalance
	acc.Version++
	acc.Touch(userID, now)

	entryDate := p.EntryDate
	if entryDate.IsZero() {
		entryDate = now
	}
	source := p.Source
	if source == "" {
		source = domain.SourceManual
	}

	entry := &domain.JournalEntry{
		EntryID:          uuid.NewString(),
		AccountID:        acc.AccountID,
		RelatedAccountID: p.RelatedAccountID,
		TransferID:       p.TransferID,
		Reference:        p.Reference,
		Amount:           p.Amount,
		Direction:        p.Direction,
		Type:             p.Type,
		Source:           source,
		Description:      p.Description,
		EntryDate:        entryDate,
		BalanceAfter:     newBalance,
		AuditFields:      domain.NewAuditFields(userID, now),
	}
	if err := store.Journal().SaveEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// sameEffect reports whether a replayed request matches the entry already recorded for its reference.
func sameEffect(e *domain.JournalEntry, accountID string, amount decimal.Decimal, direction domain.Direction) bool {
	return e.AccountID == accountID && e.Amount.Equal(amount) && e.Direction == direction
}
