package terms

import (
	"context"
	"fmt"
	"strings"

	"github.com/facturante/facturante/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Terms, int, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Terms, error) {
	if id <= 0 {
		return Terms{}, shared.ErrValidation
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, t Terms) (Terms, error) {
	if err := s.validate(t); err != nil {
		return Terms{}, err
	}
	return s.repo.Create(ctx, t)
}

func (s *Service) Update(ctx context.Context, id int64, t Terms) error {
	if id <= 0 {
		return shared.ErrValidation
	}
	if err := s.validate(t); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, t)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrValidation
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) validate(t Terms) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: terms name is required", shared.ErrValidation)
	}
	if t.DaysToDue <= 0 {
		return fmt.Errorf("%w: days to due must be positive", shared.ErrInvalidPaymentTerms)
	}
	return nil
}
