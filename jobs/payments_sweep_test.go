package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/facturante/facturante/internal/payment"
)

type stubSweeper struct {
	asOf    time.Time
	flipped []payment.Record
	err     error
}

func (s *stubSweeper) SweepOverdue(ctx context.Context, asOf time.Time) ([]payment.Record, error) {
	s.asOf = asOf
	return s.flipped, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPaymentsSweepHandlerPassesAsOf(t *testing.T) {
	sweeper := &stubSweeper{flipped: []payment.Record{{ID: 1}}}
	handler := NewPaymentsSweepHandler(sweeper, discardLogger())

	task, err := NewPaymentsSweepTask(PaymentsSweepPayload{AsOf: "2025-03-01"})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), sweeper.asOf)
}

func TestPaymentsSweepHandlerDefaultsToNow(t *testing.T) {
	sweeper := &stubSweeper{}
	handler := NewPaymentsSweepHandler(sweeper, discardLogger())

	task, err := NewPaymentsSweepTask(PaymentsSweepPayload{})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	require.True(t, sweeper.asOf.IsZero())
}

func TestPaymentsSweepHandlerSkipsRetryOnBadPayload(t *testing.T) {
	handler := NewPaymentsSweepHandler(&stubSweeper{}, discardLogger())

	err := handler(context.Background(), asynq.NewTask(TaskPaymentsSweep, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	task, buildErr := NewPaymentsSweepTask(PaymentsSweepPayload{AsOf: "03/01/2025"})
	require.NoError(t, buildErr)
	require.ErrorIs(t, handler(context.Background(), task), asynq.SkipRetry)
}

func TestPaymentsSweepHandlerPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	handler := NewPaymentsSweepHandler(&stubSweeper{err: boom}, discardLogger())

	task, err := NewPaymentsSweepTask(PaymentsSweepPayload{})
	require.NoError(t, err)
	require.ErrorIs(t, handler(context.Background(), task), boom)
}
