package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/lock"
)

// Store is an in-process ledger store. Units of work take per-row locks from a
// lock table and hold them until commit; their writes are staged and become
// visible together when committed.
type Store struct {
	mu              sync.RWMutex
	accounts        map[string]domain.Account
	entries         map[string]domain.JournalEntry
	refIndex        map[string]string
	reconciliations []domain.Reconciliation
	pcAccounts      map[string]domain.PettyCashAccount
	pcEntries       map[string]domain.PettyCashEntry
	loans           map[string]domain.Loan

	seq   atomic.Int64
	locks *lock.KeyedMutex
}

// New creates an empty store.
func New() *Store {
	return &Store{
		accounts:   make(map[string]domain.Account),
		entries:    make(map[string]domain.JournalEntry),
		refIndex:   make(map[string]string),
		pcAccounts: make(map[string]domain.PettyCashAccount),
		pcEntries:  make(map[string]domain.PettyCashEntry),
		loans:      make(map[string]domain.Loan),
		locks:      lock.NewKeyedMutex(),
	}
}

var _ portsrepo.TransactionManager = (*Store)(nil)

// NewRepositoryProvider exposes the store through the repository ports.
// Repositories obtained here commit every call on its own.
func NewRepositoryProvider(s *Store) portsrepo.RepositoryProvider {
	auto := binding{s: s}
	return portsrepo.RepositoryProvider{
		AccountRepo:        &accountRepo{auto},
		JournalRepo:        &journalRepo{auto},
		ReconciliationRepo: &reconciliationRepo{auto},
		PettyCashRepo:      &pettyCashRepo{auto},
		LoanRepo:           &loanRepo{auto},
		TxManager:          s,
	}
}

// RunInTx runs fn in a unit of work, committing if it returns nil.
func (s *Store) RunInTx(ctx context.Context, fn portsrepo.TxFunc) (err error) {
	t := s.newTx()
	defer func() {
		if p := recover(); p != nil {
			t.rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, txStore{binding{s: s, t: t}}); err != nil {
		t.rollback()
		return err
	}
	return t.commit()
}

type txStore struct {
	b binding
}

func (ts txStore) Accounts() portsrepo.AccountRepositoryFacade { return &accountRepo{ts.b} }
func (ts txStore) Journal() portsrepo.JournalRepositoryFacade  { return &journalRepo{ts.b} }
func (ts txStore) Reconciliations() portsrepo.ReconciliationRepositoryFacade {
	return &reconciliationRepo{ts.b}
}
func (ts txStore) PettyCash() portsrepo.PettyCashRepositoryFacade { return &pettyCashRepo{ts.b} }
func (ts txStore) Loans() portsrepo.LoanRepositoryFacade         { return &loanRepo{ts.b} }

// binding ties a repository to a unit of work, or to none for auto-commit.
type binding struct {
	s *Store
	t *tx
}

func (b binding) begin() *tx {
	if b.t != nil {
		return b.t
	}
	return b.s.newTx()
}

func (b binding) end(t *tx, errp *error) {
	if b.t != nil {
		return
	}
	if *errp != nil {
		t.rollback()
		return
	}
	*errp = t.commit()
}

// staging overlays a unit of work's writes on committed rows.
type staging[T any] struct {
	writes  map[string]T
	deletes map[string]struct{}
}

func newStaging[T any]() staging[T] {
	return staging[T]{writes: make(map[string]T), deletes: make(map[string]struct{})}
}

func (st *staging[T]) get(committed map[string]T, id string) (T, bool) {
	if _, gone := st.deletes[id]; gone {
		var zero T
		return zero, false
	}
	if v, ok := st.writes[id]; ok {
		return v, true
	}
	v, ok := committed[id]
	return v, ok
}

func (st *staging[T]) put(id string, v T) {
	delete(st.deletes, id)
	st.writes[id] = v
}

func (st *staging[T]) remove(id string) {
	delete(st.writes, id)
	st.deletes[id] = struct{}{}
}

func (st *staging[T]) each(committed map[string]T, fn func(T)) {
	for id, v := range committed {
		if _, gone := st.deletes[id]; gone {
			continue
		}
		if _, overwritten := st.writes[id]; overwritten {
			continue
		}
		fn(v)
	}
	for _, v := range st.writes {
		fn(v)
	}
}

func (st *staging[T]) apply(committed map[string]T) {
	for id := range st.deletes {
		delete(committed, id)
	}
	for id, v := range st.writes {
		committed[id] = v
	}
}

type tx struct {
	s       *Store
	held    []string
	heldSet map[string]struct{}
	closed  bool

	accounts   staging[domain.Account]
	entries    staging[domain.JournalEntry]
	newRefs    map[string]string
	recs       []domain.Reconciliation
	pcAccounts staging[domain.PettyCashAccount]
	pcEntries  staging[domain.PettyCashEntry]
	loans      staging[domain.Loan]
}

func (s *Store) newTx() *tx {
	return &tx{
		s:          s,
		heldSet:    make(map[string]struct{}),
		accounts:   newStaging[domain.Account](),
		entries:    newStaging[domain.JournalEntry](),
		newRefs:    make(map[string]string),
		pcAccounts: newStaging[domain.PettyCashAccount](),
		pcEntries:  newStaging[domain.PettyCashEntry](),
		loans:      newStaging[domain.Loan](),
	}
}

// lock takes a row lock for the rest of the unit of work. Never call it while holding s.mu.
func (t *tx) lock(ctx context.Context, key string) error {
	if _, ok := t.heldSet[key]; ok {
		return nil
	}
	if err := t.s.locks.Lock(ctx, key); err != nil {
		return fmt.Errorf("failed to lock %s: %w", key, err)
	}
	t.heldSet[key] = struct{}{}
	t.held = append(t.held, key)
	return nil
}

func (t *tx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.locks.Unlock(t.held[i])
	}
	t.held = nil
	t.heldSet = make(map[string]struct{})
}

func (t *tx) commit() error {
	if t.closed {
		return fmt.Errorf("%w: unit of work already closed", apperrors.ErrInvalidState)
	}
	t.closed = true
	defer t.release()

	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for ref, entryID := range t.newRefs {
		if existing, ok := s.refIndex[ref]; ok && existing != entryID {
			return fmt.Errorf("%w: journal entry with reference %s", apperrors.ErrDuplicate, ref)
		}
	}

	t.accounts.apply(s.accounts)
	t.entries.apply(s.entries)
	for ref, entryID := range t.newRefs {
		s.refIndex[ref] = entryID
	}
	s.reconciliations = append(s.reconciliations, t.recs...)
	t.pcAccounts.apply(s.pcAccounts)
	t.pcEntries.apply(s.pcEntries)
	t.loans.apply(s.loans)
	return nil
}

func (t *tx) rollback() {
	if t.closed {
		return
	}
	t.closed = true
	t.release()
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
