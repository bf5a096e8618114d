package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/lock"
	"go.opentelemetry.io/otel"
)

// OverdueSweeper is the part of the loan service the worker drives.
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// Handlers processes ledger tasks.
type Handlers struct {
	loans  OverdueSweeper
	logger *slog.Logger
	now    func() time.Time
}

// NewHandlers creates task handlers backed by the loan service.
func NewHandlers(loans OverdueSweeper, logger *slog.Logger) *Handlers {
	return &Handlers{loans: loans, logger: logger, now: time.Now}
}

// Register attaches every handler to mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSweepOverdue, h.HandleSweepOverdue)
}

// HandleSweepOverdue runs one overdue sweep. A sweep already running in
// another process counts as success.
func (h *Handlers) HandleSweepOverdue(ctx context.Context, t *asynq.Task) error {
	ctx, span := otel.Tracer("fsm.worker").Start(ctx, "HandleSweepOverdue")
	defer span.End()

	var payload SweepOverduePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("Invalid sweep payload", slog.String("error", err.Error()))
		return fmt.Errorf("invalid %s payload: %v: %w", TypeSweepOverdue, err, asynq.SkipRetry)
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = h.now().UTC()
	}

	marked, err := h.loans.SweepOverdue(ctx, asOf)
	if errors.Is(err, lock.ErrLockHeld) {
		h.logger.Info("Overdue sweep skipped, another worker holds the lock", slog.Time("as_of", asOf))
		return nil
	}
	if err != nil {
		h.logger.Error("Overdue sweep failed", slog.String("error", err.Error()), slog.Time("as_of", asOf))
		return err
	}

	h.logger.Info("Overdue sweep processed", slog.Int64("marked", marked), slog.Time("as_of", asOf))
	return nil
}
