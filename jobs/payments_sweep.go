package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/facturante/facturante/internal/payment"
)

// Sweeper is the payment tracker operation the sweep job drives.
type Sweeper interface {
	SweepOverdue(ctx context.Context, asOf time.Time) ([]payment.Record, error)
}

// NewPaymentsSweepHandler builds the Asynq handler for the daily overdue
// sweep. The sweep is idempotent, so retries after partial failures are
// safe.
func NewPaymentsSweepHandler(sweeper Sweeper, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload PaymentsSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		var asOf time.Time
		if payload.AsOf != "" {
			parsed, err := time.Parse("2006-01-02", payload.AsOf)
			if err != nil {
				logger.Error("payments sweep: bad as_of", slog.String("as_of", payload.AsOf))
				return asynq.SkipRetry
			}
			asOf = parsed
		}

		flipped, err := sweeper.SweepOverdue(ctx, asOf)
		if err != nil {
			logger.Error("payments sweep failed", slog.Any("error", err))
			return err
		}
		logger.Info("payments sweep done", slog.Int("flipped", len(flipped)))
		return nil
	}
}
