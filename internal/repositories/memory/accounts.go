package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

type accountRepo struct {
	binding
}

var _ portsrepo.AccountRepositoryFacade = (*accountRepo)(nil)

func accountKey(id string) string { return "account:" + id }

func bankNumberKey(bank, number string) string { return "account-number:" + bank + "|" + number }

// checkBankNumber mirrors the unique (bank_name, account_number) constraint.
// The caller must hold the bankNumberKey lock.
func (t *tx) checkBankNumber(account domain.Account) error {
	taken := false
	t.s.mu.RLock()
	t.accounts.each(t.s.accounts, func(a domain.Account) {
		if a.AccountID != account.AccountID && a.BankName == account.BankName && a.AccountNumber == account.AccountNumber {
			taken = true
		}
	})
	t.s.mu.RUnlock()
	if taken {
		return fmt.Errorf("%w: %s account %s is already registered", apperrors.ErrDuplicate, account.BankName, account.AccountNumber)
	}
	return nil
}

func (t *tx) account(id string) (domain.Account, bool) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.accounts.get(t.s.accounts, id)
}

func (r *accountRepo) FindAccountByID(ctx context.Context, accountID string) (_ *domain.Account, err error) {
	t := r.begin()
	defer r.end(t, &err)

	acc, ok := t.account(accountID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &acc, nil
}

func (r *accountRepo) ListAccounts(ctx context.Context, filter domain.AccountFilter) (_ []domain.Account, err error) {
	t := r.begin()
	defer r.end(t, &err)

	var out []domain.Account
	t.s.mu.RLock()
	t.accounts.each(t.s.accounts, func(a domain.Account) {
		if filter.StationID != "" && a.StationID != filter.StationID {
			return
		}
		if filter.ActiveOnly && !a.IsActive {
			return
		}
		out = append(out, a)
	})
	t.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if c := strings.Compare(out[i].AccountName, out[j].AccountName); c != 0 {
			return c < 0
		}
		return out[i].AccountID < out[j].AccountID
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *accountRepo) SaveAccount(ctx context.Context, account domain.Account) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, accountKey(account.AccountID)); err != nil {
		return err
	}
	if err := t.lock(ctx, bankNumberKey(account.BankName, account.AccountNumber)); err != nil {
		return err
	}
	if _, exists := t.account(account.AccountID); exists {
		return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, account.AccountID)
	}

	if err := t.checkBankNumber(account); err != nil {
		return err
	}
	t.accounts.put(account.AccountID, account)
	return nil
}

func (r *accountRepo) UpdateAccount(ctx context.Context, account domain.Account) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, accountKey(account.AccountID)); err != nil {
		return err
	}
	current, ok := t.account(account.AccountID)
	if !ok {
		return apperrors.ErrNotFound
	}
	if current.BankName != account.BankName || current.AccountNumber != account.AccountNumber {
		if err := t.lock(ctx, bankNumberKey(account.BankName, account.AccountNumber)); err != nil {
			return err
		}
		if err := t.checkBankNumber(account); err != nil {
			return err
		}
	}
	current.BankName = account.BankName
	current.AccountNumber = account.AccountNumber
	current.AccountName = account.AccountName
	current.StationID = account.StationID
	current.IsActive = account.IsActive
	current.LastUpdatedAt = account.LastUpdatedAt
	current.LastUpdatedBy = account.LastUpdatedBy
	t.accounts.put(current.AccountID, current)
	return nil
}

func (r *accountRepo) DeleteAccount(ctx context.Context, accountID string) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, accountKey(accountID)); err != nil {
		return err
	}
	if _, ok := t.account(accountID); !ok {
		return apperrors.ErrNotFound
	}
	t.accounts.remove(accountID)
	return nil
}

func (r *accountRepo) FindAccountsByIDsForUpdate(ctx context.Context, accountIDs []string) (_ map[string]domain.Account, err error) {
	t := r.begin()
	defer r.end(t, &err)

	ids := append([]string(nil), accountIDs...)
	sort.Strings(ids)

	out := make(map[string]domain.Account, len(ids))
	for _, id := range ids {
		if err := t.lock(ctx, accountKey(id)); err != nil {
			return nil, err
		}
		if acc, ok := t.account(id); ok {
			out[id] = acc
		}
	}
	return out, nil
}

func (r *accountRepo) UpdateAccountBalance(ctx context.Context, accountID string, newBalance decimal.Decimal, expectedVersion int64, userID string, now time.Time) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, accountKey(accountID)); err != nil {
		return err
	}
	acc, ok := t.account(accountID)
	if !ok {
		return apperrors.ErrAccountNotFound
	}
	if acc.Version != expectedVersion {
		return fmt.Errorf("%w: account %s is at version %d, expected %d", apperrors.ErrConflict, accountID, acc.Version, expectedVersion)
	}
	acc.CurrentBalance = newBalance
	acc.Version++
	acc.Touch(userID, now)
	t.accounts.put(accountID, acc)
	return nil
}

func (r *accountRepo) MarkAccountReconciled(ctx context.Context, accountID string, asOf time.Time, userID string, now time.Time) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, accountKey(accountID)); err != nil {
		return err
	}
	acc, ok := t.account(accountID)
	if !ok {
		return apperrors.ErrAccountNotFound
	}
	reconciledAt := asOf
	acc.LastReconciledAt = &reconciledAt
	acc.Touch(userID, now)
	t.accounts.put(accountID, acc)
	return nil
}
