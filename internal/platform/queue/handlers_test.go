package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/apperrors"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) SweepOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

var frozen = time.Date(2026, 4, 20, 1, 0, 0, 0, time.UTC)

func newTestHandlers(sweeper OverdueSweeper) *Handlers {
	h := NewHandlers(sweeper, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return frozen }
	return h
}

func TestHandleSweepOverdue_UsesPayloadDate(t *testing.T) {
	asOf := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sweeper := new(MockSweeper)
	sweeper.On("SweepOverdue", mock.Anything, asOf).Return(int64(4), nil)
	task, err := NewSweepOverdueTask(asOf)
	require.NoError(t, err)

	err = newTestHandlers(sweeper).HandleSweepOverdue(context.Background(), task)

	require.NoError(t, err)
	sweeper.AssertExpectations(t)
}

func TestHandleSweepOverdue_DefaultsToNow(t *testing.T) {
	sweeper := new(MockSweeper)
	sweeper.On("SweepOverdue", mock.Anything, frozen).Return(int64(0), nil)
	task, err := NewSweepOverdueTask(time.Time{})
	require.NoError(t, err)

	require.NoError(t, newTestHandlers(sweeper).HandleSweepOverdue(context.Background(), task))
	sweeper.AssertExpectations(t)
}

func TestHandleSweepOverdue_LockHeldIsNotAFailure(t *testing.T) {
	sweeper := new(MockSweeper)
	held := fmt.Errorf("%w: %w", apperrors.ErrConflict, lock.ErrLockHeld)
	sweeper.On("SweepOverdue", mock.Anything, frozen).Return(int64(0), held)
	task, err := NewSweepOverdueTask(time.Time{})
	require.NoError(t, err)

	assert.NoError(t, newTestHandlers(sweeper).HandleSweepOverdue(context.Background(), task))
}

func TestHandleSweepOverdue_FailureIsRetried(t *testing.T) {
	sweeper := new(MockSweeper)
	boom := errors.New("connection reset")
	sweeper.On("SweepOverdue", mock.Anything, frozen).Return(int64(0), boom)
	task, err := NewSweepOverdueTask(time.Time{})
	require.NoError(t, err)

	err = newTestHandlers(sweeper).HandleSweepOverdue(context.Background(), task)

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleSweepOverdue_BadPayloadSkipsRetry(t *testing.T) {
	sweeper := new(MockSweeper)
	task := asynq.NewTask(TypeSweepOverdue, []byte("{not json"))

	err := newTestHandlers(sweeper).HandleSweepOverdue(context.Background(), task)

	assert.ErrorIs(t, err, asynq.SkipRetry)
	sweeper.AssertNotCalled(t, "SweepOverdue", mock.Anything, mock.Anything)
}

func TestRegister_RoutesSweepTask(t *testing.T) {
	sweeper := new(MockSweeper)
	sweeper.On("SweepOverdue", mock.Anything, frozen).Return(int64(1), nil)
	mux := asynq.NewServeMux()
	newTestHandlers(sweeper).Register(mux)
	task, err := NewSweepOverdueTask(time.Time{})
	require.NoError(t, err)

	require.NoError(t, mux.ProcessTask(context.Background(), task))
	sweeper.AssertExpectations(t)
}

func TestNewServer_RejectsBadURL(t *testing.T) {
	_, err := NewServer("http://not-redis", 2)
	assert.Error(t, err)
}
