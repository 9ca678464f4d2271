package folio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/facturante/facturante/internal/shared"
)

// ListRequest filters folio listings.
type ListRequest struct {
	Status Status
	Series string
	Limit  int
	Offset int
}

// RepositoryPort defines data access methods for the ledger.
type RepositoryPort interface {
	AllocateNext(ctx context.Context, series string, now time.Time) (*Folio, error)
	ProvisionSequential(ctx context.Context, count int, series string) ([]Folio, error)
	Void(ctx context.Context, id int64) (*Folio, error)
	Get(ctx context.Context, id int64) (*Folio, error)
	List(ctx context.Context, req ListRequest) ([]Folio, error)
}

// Service owns the pool of document numbers.
type Service struct {
	repo          RepositoryPort
	logger        *slog.Logger
	defaultSeries string
	clock         func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger, defaultSeries string) *Service {
	if defaultSeries == "" {
		defaultSeries = "A"
	}
	return &Service{
		repo:          repo,
		logger:        logger,
		defaultSeries: defaultSeries,
		clock:         func() time.Time { return time.Now().UTC() },
	}
}

// AllocateNext claims the lowest available folio number, exclusively and
// atomically. Two simultaneous calls never return the same folio.
func (s *Service) AllocateNext(ctx context.Context, series string) (*Folio, error) {
	if series == "" {
		series = s.defaultSeries
	}
	f, err := s.repo.AllocateNext(ctx, series, s.clock())
	if err != nil {
		return nil, err
	}
	s.logger.Info("folio allocated",
		slog.Int64("folio_id", f.ID),
		slog.Int64("number", f.Number),
		slog.String("series", f.Series),
	)
	return f, nil
}

// ProvisionSequential pre-generates a block of count folios, continuing from
// the highest existing number. Two provisions racing for the same numbers
// conflict on the unique index; the loser is retried from the new maximum.
func (s *Service) ProvisionSequential(ctx context.Context, count int, series string) ([]Folio, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", shared.ErrInvalidRange, count)
	}
	if series == "" {
		series = s.defaultSeries
	}
	var folios []Folio
	err := shared.Retry(ctx, 3, 50*time.Millisecond, func() error {
		var err error
		folios, err = s.repo.ProvisionSequential(ctx, count, series)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(folios) > 0 {
		s.logger.Info("folios provisioned",
			slog.Int("count", len(folios)),
			slog.String("series", series),
			slog.Int64("first", folios[0].Number),
			slog.Int64("last", folios[len(folios)-1].Number),
		)
	}
	return folios, nil
}

// Void retires an available folio, e.g. a damaged physical document range.
// Used folios cannot be voided.
func (s *Service) Void(ctx context.Context, id int64) (*Folio, error) {
	return s.repo.Void(ctx, id)
}

// Get returns a folio by id.
func (s *Service) Get(ctx context.Context, id int64) (*Folio, error) {
	return s.repo.Get(ctx, id)
}

// List returns folios matching the filters.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Folio, error) {
	if req.Limit <= 0 || req.Limit > shared.MaxLimit {
		req.Limit = shared.DefaultLimit
	}
	return s.repo.List(ctx, req)
}
