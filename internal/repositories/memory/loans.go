package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
)

type loanRepo struct {
	binding
}

var _ portsrepo.LoanRepositoryFacade = (*loanRepo)(nil)

func loanKey(id string) string { return "loan:" + id }

// cloneLoan copies the installment slice so callers never alias stored rows.
func cloneLoan(l domain.Loan) domain.Loan {
	l.Installments = append([]domain.Installment(nil), l.Installments...)
	return l
}

func (t *tx) loan(id string) (domain.Loan, bool) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	l, ok := t.loans.get(t.s.loans, id)
	if !ok {
		return l, false
	}
	return cloneLoan(l), true
}

func (t *tx) allLoans(keep func(domain.Loan) bool) []domain.Loan {
	var out []domain.Loan
	t.s.mu.RLock()
	t.loans.each(t.s.loans, func(l domain.Loan) {
		if keep(l) {
			out = append(out, cloneLoan(l))
		}
	})
	t.s.mu.RUnlock()
	return out
}

func (r *loanRepo) FindLoanByID(ctx context.Context, loanID string) (_ *domain.Loan, err error) {
	t := r.begin()
	defer r.end(t, &err)

	l, ok := t.loan(loanID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &l, nil
}

func (r *loanRepo) FindLoanByIDForUpdate(ctx context.Context, loanID string) (_ *domain.Loan, err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, loanKey(loanID)); err != nil {
		return nil, err
	}
	l, ok := t.loan(loanID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &l, nil
}

// ListLoans returns the newest applications first.
func (r *loanRepo) ListLoans(ctx context.Context, filter domain.LoanFilter) (_ []domain.Loan, err error) {
	t := r.begin()
	defer r.end(t, &err)

	out := t.allLoans(func(l domain.Loan) bool {
		if filter.EmployeeID != "" && l.EmployeeID != filter.EmployeeID {
			return false
		}
		if filter.StationID != "" && l.StationID != filter.StationID {
			return false
		}
		if filter.Status != "" && l.Status != filter.Status {
			return false
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].LoanID < out[j].LoanID
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *loanRepo) ListDueInstallments(ctx context.Context, employeeID string, asOf time.Time) (_ []domain.DueInstallment, err error) {
	t := r.begin()
	defer r.end(t, &err)

	loans := t.allLoans(func(l domain.Loan) bool {
		return l.Status == domain.LoanActive && l.EmployeeID == employeeID
	})

	var due []domain.DueInstallment
	for _, l := range loans {
		for _, inst := range l.Installments {
			if inst.Status == domain.InstallmentPaid || inst.DueDate.After(asOf) {
				continue
			}
			due = append(due, domain.DueInstallment{
				LoanID:            l.LoanID,
				EmployeeID:        l.EmployeeID,
				InstallmentNumber: inst.Number,
				DueDate:           inst.DueDate,
				Amount:            inst.Amount,
				Status:            inst.Status,
			})
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].DueDate.Equal(due[j].DueDate) {
			return due[i].DueDate.Before(due[j].DueDate)
		}
		if due[i].LoanID != due[j].LoanID {
			return due[i].LoanID < due[j].LoanID
		}
		return due[i].InstallmentNumber < due[j].InstallmentNumber
	})
	return due, nil
}

func (r *loanRepo) SaveLoan(ctx context.Context, loan domain.Loan) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, loanKey(loan.LoanID)); err != nil {
		return err
	}
	if _, exists := t.loan(loan.LoanID); exists {
		return fmt.Errorf("%w: loan %s", apperrors.ErrDuplicate, loan.LoanID)
	}
	t.loans.put(loan.LoanID, cloneLoan(loan))
	return nil
}

func (r *loanRepo) UpdateLoan(ctx context.Context, loan domain.Loan, expectedVersion int64) (err error) {
	t := r.begin()
	defer r.end(t, &err)

	if err := t.lock(ctx, loanKey(loan.LoanID)); err != nil {
		return err
	}
	current, ok := t.loan(loan.LoanID)
	if !ok {
		return apperrors.ErrNotFound
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%w: loan %s is at version %d, expected %d", apperrors.ErrConflict, loan.LoanID, current.Version, expectedVersion)
	}
	loan.Version = expectedVersion + 1
	t.loans.put(loan.LoanID, cloneLoan(loan))
	return nil
}

func hasOverdueCandidate(l domain.Loan, asOf time.Time) bool {
	if l.Status != domain.LoanActive {
		return false
	}
	for _, inst := range l.Installments {
		if inst.Status == domain.InstallmentPending && inst.DueDate.Before(asOf) {
			return true
		}
	}
	return false
}

func (r *loanRepo) MarkOverdueInstallments(ctx context.Context, asOf time.Time) (_ int64, err error) {
	t := r.begin()
	defer r.end(t, &err)

	candidates := t.allLoans(func(l domain.Loan) bool { return hasOverdueCandidate(l, asOf) })
	ids := make([]string, 0, len(candidates))
	for _, l := range candidates {
		ids = append(ids, l.LoanID)
	}
	sort.Strings(ids)

	var changed int64
	for _, id := range ids {
		if err := t.lock(ctx, loanKey(id)); err != nil {
			return 0, err
		}
		l, ok := t.loan(id)
		if !ok || l.Status != domain.LoanActive {
			continue
		}
		dirty := false
		for i := range l.Installments {
			inst := &l.Installments[i]
			if inst.Status == domain.InstallmentPending && inst.DueDate.Before(asOf) {
				inst.Status = domain.InstallmentOverdue
				changed++
				dirty = true
			}
		}
		if dirty {
			t.loans.put(id, l)
		}
	}
	return changed, nil
}
