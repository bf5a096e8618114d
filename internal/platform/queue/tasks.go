// Package queue runs ledger maintenance as asynq background tasks.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeSweepOverdue marks overdue loan installments.
const TypeSweepOverdue = "loan:sweep_overdue"

const sweepTimeout = 5 * time.Minute

// SweepOverduePayload carries the cut-off date. A zero AsOf means "when the task runs".
type SweepOverduePayload struct {
	AsOf time.Time `json:"asOf,omitempty"`
}

// NewSweepOverdueTask builds a sweep task. Sweeps are idempotent, so a retried
// task never marks anything twice.
func NewSweepOverdueTask(asOf time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(SweepOverduePayload{AsOf: asOf})
	if err != nil {
		return nil, fmt.Errorf("failed to encode sweep payload: %w", err)
	}
	return asynq.NewTask(TypeSweepOverdue, payload, asynq.MaxRetry(3), asynq.Timeout(sweepTimeout)), nil
}
