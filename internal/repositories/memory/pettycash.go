package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
)

type pettyCashRepo struct {
	binding
}

var _ portsrepo.PettyCashRepositoryFacade = (*pettyCashRepo)(nil)

func pettyCashKey(stationID string) string { return "petty_cash:" + stationID }
func pettyCashEntryKey(entryID string) string { return "petty_cash_entry:" + entryID }

func (t *tx) pettyCashAccount(stationID string) (domain.PettyCashAccount, bool) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.pcAccounts.get(t.s.pcAccounts, stationID)
}

func (t *tx) pettyCashEntry(entryID string) (domain.PettyCashEntry, bool) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.pcEntries.get(t.s.pcEntries, entryID)
}

func (r *pettyCashRepo) FindPettyCashAccount(ctx context.Context, stationID string) (_ *domain.PettyCashAccount, err error) {
	t := r.begin()
	defer r.end(t, &err)

	acc, ok := t.pettyCashAccount(stationID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &acc, nil
}

func (r *pettyCashRepo) FindPettyCashAccountForUpdate(ctx context.Context, stationID string) (_ *domain.PettyCashAccount, err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, pettyCashKey(stationID)); err != nil {
		return nil, err
	}
	acc, ok := t.pettyCashAccount(stationID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &acc, nil
}

func (r *pettyCashRepo) SavePettyCashAccount(ctx context.Context, account domain.PettyCashAccount) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, pettyCashKey(account.StationID)); err != nil {
		return err
	}
	if _, exists := t.pettyCashAccount(account.StationID); exists {
		return fmt.Errorf("%w: petty cash account for station %s already exists", apperrors.ErrDuplicate, account.StationID)
	}
	t.pcAccounts.put(account.StationID, account)
	return nil
}

func (r *pettyCashRepo) UpdatePettyCashAccount(ctx context.Context, account domain.PettyCashAccount, expectedVersion int64) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, pettyCashKey(account.StationID)); err != nil {
		return err
	}
	current, ok := t.pettyCashAccount(account.StationID)
	if !ok {
		return apperrors.ErrNotFound
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: petty cash account %s is at version %d, expected %d", apperrors.ErrConflict, account.StationID, current.Version, expectedVersion)
	}
	account.Version = expectedVersion + 1
	t.pcAccounts.put(account.StationID, account)
	return nil
}

func (r *pettyCashRepo) FindPettyCashEntry(ctx context.Context, entryID string) (_ *domain.PettyCashEntry, err error) {
	t := r.begin()
	defer r.end(t, &err)

	e, ok := t.pettyCashEntry(entryID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &e, nil
}

func (r *pettyCashRepo) FindPettyCashEntryForUpdate(ctx context.Context, entryID string) (_ *domain.PettyCashEntry, err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, pettyCashEntryKey(entryID)); err != nil {
		return nil, err
	}
	e, ok := t.pettyCashEntry(entryID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &e, nil
}

func (r *pettyCashRepo) SavePettyCashEntry(ctx context.Context, entry domain.PettyCashEntry) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, pettyCashEntryKey(entry.EntryID)); err != nil {
		return err
	}
	if _, exists := t.pettyCashEntry(entry.EntryID); exists {
		return fmt.Errorf("%w: petty cash entry %s", apperrors.ErrDuplicate, entry.EntryID)
	}
	t.pcEntries.put(entry.EntryID, entry)
	return nil
}

func (r *pettyCashRepo) UpdatePettyCashEntry(ctx context.Context, entry domain.PettyCashEntry) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, pettyCashEntryKey(entry.EntryID)); err != nil {
		return err
	}
	if _, ok := t.pettyCashEntry(entry.EntryID); !ok {
		return apperrors.ErrNotFound
	}
	t.pcEntries.put(entry.EntryID, entry)
	return nil
}

func (r *pettyCashRepo) DeletePettyCashEntry(ctx context.Context, entryID string) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, pettyCashEntryKey(entryID)); err != nil {
		return err
	}
	if _, ok := t.pettyCashEntry(entryID); !ok {
		return apperrors.ErrNotFound
	}
	t.pcEntries.remove(entryID)
	return nil
}

// ListPettyCashEntries returns the newest entries first.
func (r *pettyCashRepo) ListPettyCashEntries(ctx context.Context, filter domain.PettyCashFilter) (_ []domain.PettyCashEntry, err error) {
	t := r.begin()
	defer r.end(t, &err)

	var out []domain.PettyCashEntry
	t.s.mu.RLock()
	t.pcEntries.each(t.s.pcEntries, func(e domain.PettyCashEntry) {
		if filter.StationID != "" && e.StationID != filter.StationID {
			return
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			return
		}
		if filter.Status != "" && e.ApprovalStatus != filter.Status {
			return
		}
		out = append(out, e)
	})
	t.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].EntryID < out[j].EntryID
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}
