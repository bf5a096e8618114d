package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	portsrepo "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/repositories"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("fsm.ledger")

const defaultMaxRetries = 5

// BaseService provides common functionality for all services
type BaseService struct {
	txManager  portsrepo.TransactionManager
	maxRetries uint64
	now        func() time.Time
	validator  *ValidationHelper
}

// ServiceOption is a functional option shared by every service constructor.
type ServiceOption func(*BaseService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *BaseService) {
		s.now = now
	}
}

// WithMaxRetries bounds how often a unit of work is retried after a conflict.
func WithMaxRetries(n int) ServiceOption {
	return func(s *BaseService) {
		if n >= 0 {
			s.maxRetries = uint64(n)
		}
	}
}

func newBaseService(txManager portsrepo.TransactionManager, opts []ServiceOption) BaseService {
	base := BaseService{
		txManager:  txManager,
		maxRetries: defaultMaxRetries,
		now:        time.Now,
		validator:  NewValidationHelper(),
	}
	for _, opt := range opts {
		opt(&base)
	}
	return base
}

// Now returns the current time in UTC.
func (s *BaseService) Now() time.Time {
	return s.now().UTC()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// runInTx executes fn as one unit of work, retrying on concurrent-modification
// conflicts. A context that is already done aborts before anything is written;
// once started, the unit of work runs to commit or rollback regardless of cancellation.
func (s *BaseService) runInTx(ctx context.Context, fn portsrepo.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 5 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := s.txManager.RunInTx(ctx, fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, apperrors.ErrConflict) {
			s.LogDebug(ctx, "Retrying unit of work after conflict", slog.Int("attempt", attempt), slog.String("error", err.Error()))
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithMaxRetries(policy, s.maxRetries))
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
