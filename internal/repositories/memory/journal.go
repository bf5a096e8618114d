package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/utils/accounting"
)

type journalRepo struct {
	binding
}

var _ portsrepo.JournalRepositoryFacade = (*journalRepo)(nil)

func (t *tx) entry(id string) (domain.JournalEntry, bool) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.entries.get(t.s.entries, id)
}

func (t *tx) entryIDForReference(ref string) (string, bool) {
	if id, ok := t.newRefs[ref]; ok {
		return id, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	id, ok := t.s.refIndex[ref]
	return id, ok
}

// matching returns entries passing keep, in posting order.
func (t *tx) matching(keep func(domain.JournalEntry) bool) []domain.JournalEntry {
	var out []domain.JournalEntry
	t.s.mu.RLock()
	t.entries.each(t.s.entries, func(e domain.JournalEntry) {
		if keep(e) {
			out = append(out, e)
		}
	})
	t.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

func (r *journalRepo) FindEntryByID(ctx context.Context, entryID string) (_ *domain.JournalEntry, err error) {
	t := r.begin()
	defer r.end(t, &err)

	e, ok := t.entry(entryID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &e, nil
}

func (r *journalRepo) FindEntryByReference(ctx context.Context, reference string) (_ *domain.JournalEntry, err error) {
	t := r.begin()
	defer r.end(t, &err)

	id, ok := t.entryIDForReference(reference)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	e, ok := t.entry(id)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &e, nil
}

func (r *journalRepo) FindEntriesByIDs(ctx context.Context, entryIDs []string) (_ map[string]domain.JournalEntry, err error) {
	t := r.begin()
	defer r.end(t, &err)

	out := make(map[string]domain.JournalEntry, len(entryIDs))
	for _, id := range entryIDs {
		if e, ok := t.entry(id); ok {
			out[id] = e
		}
	}
	return out, nil
}

func (r *journalRepo) ListEntries(ctx context.Context, filter domain.JournalFilter) (_ []domain.JournalEntry, err error) {
	t := r.begin()
	defer r.end(t, &err)

	out := t.matching(func(e domain.JournalEntry) bool {
		if filter.AccountID != "" && e.AccountID != filter.AccountID {
			return false
		}
		if filter.TransferID != "" && e.TransferID != filter.TransferID {
			return false
		}
		if filter.Reconciled != nil && e.Reconciled != *filter.Reconciled {
			return false
		}
		if filter.From != nil && e.EntryDate.Before(*filter.From) {
			return false
		}
		if filter.To != nil && e.EntryDate.After(*filter.To) {
			return false
		}
		return true
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *journalRepo) SumEntries(ctx context.Context, accountID string, reconciledOnly bool) (_ domain.EntryTotals, err error) {
	t := r.begin()
	defer r.end(t, &err)

	entries := t.matching(func(e domain.JournalEntry) bool {
		return e.AccountID == accountID && (!reconciledOnly || e.Reconciled)
	})
	return accounting.TotalsOf(entries), nil
}

func (r *journalRepo) LatestEntry(ctx context.Context, accountID string) (_ *domain.JournalEntry, err error) {
	t := r.begin()
	defer r.end(t, &err)

	entries := t.matching(func(e domain.JournalEntry) bool { return e.AccountID == accountID })
	if len(entries) == 0 {
		return nil, apperrors.ErrNotFound
	}
	latest := entries[len(entries)-1]
	return &latest, nil
}

func (r *journalRepo) CountEntriesReferencing(ctx context.Context, accountID string) (_ int, err error) {
	t := r.begin()
	defer r.end(t, &err)

	entries := t.matching(func(e domain.JournalEntry) bool {
		return e.AccountID == accountID || e.RelatedAccountID == accountID
	})
	return len(entries), nil
}

func (r *journalRepo) SaveEntry(ctx context.Context, entry *domain.JournalEntry) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	if _, exists := t.entry(entry.EntryID); exists {
		return fmt.Errorf("%w: journal entry %s", apperrors.ErrDuplicate, entry.EntryID)
	}
	if entry.Reference != "" {
		if _, taken := t.entryIDForReference(entry.Reference); taken {
			return fmt.Errorf("%w: journal entry with reference %s", apperrors.ErrDuplicate, entry.Reference)
		}
		t.newRefs[entry.Reference] = entry.EntryID
	}
	entry.Sequence = t.s.seq.Add(1)
	t.entries.put(entry.EntryID, *entry)
	return nil
}

func (r *journalRepo) MarkEntriesReconciled(ctx context.Context, entryIDs []string, userID string, at time.Time) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	ids := append([]string(nil), entryIDs...)
	sort.Strings(ids)
	for _, id := range ids {
		if err := t.lock(ctx, "entry:"+id); err != nil {
			return err
		}
	}
	for _, id := range ids {
		e, ok := t.entry(id)
		if !ok {
			return fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, id)
		}
		reconciledAt := at
		e.Reconciled = true
		e.ReconciledAt = &reconciledAt
		e.ReconciledBy = userID
		t.entries.put(id, e)
	}
	return nil
}
