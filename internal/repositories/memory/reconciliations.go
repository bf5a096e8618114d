package memory

import (
	"context"
	"sort"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
)

type reconciliationRepo struct {
	binding
}

var _ portsrepo.ReconciliationRepositoryFacade = (*reconciliationRepo)(nil)

func (r *reconciliationRepo) SaveReconciliation(ctx context.Context, rec domain.Reconciliation) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	t.recs = append(t.recs, rec)
	return nil
}

// ListReconciliations returns the newest reports first.
func (r *reconciliationRepo) ListReconciliations(ctx context.Context, accountID string, limit int, offset int) (_ []domain.Reconciliation, err error) {
	t := r.begin()
	defer r.end(t, &err)

	var out []domain.Reconciliation
	t.s.mu.RLock()
	for _, rec := range t.s.reconciliations {
		if rec.AccountID == accountID {
			out = append(out, rec)
		}
	}
	t.s.mu.RUnlock()
	for _, rec := range t.recs {
		if rec.AccountID == accountID {
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}
