package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/facturante/facturante/internal/shared"
)

// TermsPort resolves payment terms referenced by records.
type TermsPort interface {
	DaysToDue(ctx context.Context, id int64) (int, error)
}

// RepositoryPort defines data access methods for the tracker.
type RepositoryPort interface {
	Insert(ctx context.Context, rec Record) (*Record, error)
	Get(ctx context.Context, id int64) (*Record, error)
	GetByInvoice(ctx context.Context, invoiceID int64) (*Record, error)
	Transition(ctx context.Context, id int64, to Status) (*Record, error)
	SweepOverdue(ctx context.Context, asOf time.Time) ([]Record, error)
	List(ctx context.Context, req ListRequest) ([]RecordWithInvoice, error)
	FindDueOn(ctx context.Context, day time.Time) ([]RecordWithInvoice, error)
	Deactivate(ctx context.Context, id int64) error
	CountSummary(ctx context.Context, today time.Time) (*Summary, error)
}

// Service tracks when issued invoices fall due.
type Service struct {
	repo   RepositoryPort
	terms  TermsPort
	logger *slog.Logger
	cache  *summaryCache
	clock  func() time.Time
}

// NewService builds a Service instance. The Redis client is optional; when
// nil the summary is computed on every call.
func NewService(repo RepositoryPort, terms TermsPort, logger *slog.Logger, redisClient *redis.Client, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{
		repo:   repo,
		terms:  terms,
		logger: logger,
		cache:  &summaryCache{client: redisClient, ttl: cacheTTL},
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Register opens a PENDING record for an issued invoice. The due date is
// the invoice date plus the terms' days to due, fixed at this moment.
// Registration is idempotent per invoice.
func (s *Service) Register(ctx context.Context, invoiceID int64, invoiceDate time.Time, paymentTermsID, clientID int64) (*Record, error) {
	days, err := s.terms.DaysToDue(ctx, paymentTermsID)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		return nil, fmt.Errorf("%w: terms %d have no positive days to due", shared.ErrInvalidPaymentTerms, paymentTermsID)
	}

	rec, err := s.repo.Insert(ctx, Record{
		InvoiceID:      invoiceID,
		InvoiceDate:    invoiceDate,
		PaymentTermsID: paymentTermsID,
		ClientID:       clientID,
		DueDate:        invoiceDate.AddDate(0, 0, days),
	})
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx)
	s.logger.Info("payment record registered",
		slog.Int64("invoice_id", invoiceID),
		slog.Time("due_date", rec.DueDate),
	)
	return rec, nil
}

// MarkPaid moves a pending record to PAID.
func (s *Service) MarkPaid(ctx context.Context, id int64) (*Record, error) {
	rec, err := s.repo.Transition(ctx, id, StatusPaid)
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx)
	return rec, nil
}

// MarkOverdueManual moves a pending record to OVERDUE without waiting for
// the sweep.
func (s *Service) MarkOverdueManual(ctx context.Context, id int64) (*Record, error) {
	rec, err := s.repo.Transition(ctx, id, StatusOverdue)
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx)
	return rec, nil
}

// SweepOverdue flips all stale pending records to OVERDUE and returns the
// affected records. A zero asOf means now. Idempotent for a fixed asOf.
func (s *Service) SweepOverdue(ctx context.Context, asOf time.Time) ([]Record, error) {
	if asOf.IsZero() {
		asOf = s.clock()
	}
	records, err := s.repo.SweepOverdue(ctx, asOf)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		s.cache.invalidate(ctx)
	}
	s.logger.Info("overdue sweep completed",
		slog.Time("as_of", asOf),
		slog.Int("flipped", len(records)),
	)
	return records, nil
}

// FindByStatus returns active records filtered by status and optionally by
// client.
func (s *Service) FindByStatus(ctx context.Context, status Status, clientID int64) ([]RecordWithInvoice, error) {
	switch status {
	case StatusPending, StatusPaid, StatusOverdue:
	default:
		return nil, fmt.Errorf("%w: unknown payment status %q", shared.ErrValidation, status)
	}
	return s.repo.List(ctx, ListRequest{Status: status, ClientID: clientID, Limit: shared.MaxLimit})
}

// FindDueToday returns pending records whose due date is today.
func (s *Service) FindDueToday(ctx context.Context) ([]RecordWithInvoice, error) {
	return s.repo.FindDueOn(ctx, s.clock())
}

// GetByInvoice returns the record tracking an invoice.
func (s *Service) GetByInvoice(ctx context.Context, invoiceID int64) (*Record, error) {
	return s.repo.GetByInvoice(ctx, invoiceID)
}

// Deactivate soft-deletes a record.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.cache.invalidate(ctx)
	return nil
}

// GetSummary returns per-status counts, served from cache when fresh.
func (s *Service) GetSummary(ctx context.Context) (*Summary, error) {
	if cached, ok := s.cache.get(ctx); ok {
		return cached, nil
	}
	summary, err := s.repo.CountSummary(ctx, s.clock())
	if err != nil {
		return nil, err
	}
	summary.GeneratedAt = s.clock()
	if err := s.cache.set(ctx, summary); err != nil {
		s.logger.Warn("cache payments summary", slog.Any("error", err))
	}
	return summary, nil
}
