package sellers

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Seller, int, error) {
	filters.Normalize()
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Seller, error) {
	if id <= 0 {
		return Seller{}, shared.ErrValidation
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, seller Seller) (Seller, error) {
	if err := s.validate(seller); err != nil {
		return Seller{}, err
	}
	return s.repo.Create(ctx, seller)
}

func (s *Service) Update(ctx context.Context, id int64, seller Seller) error {
	if id <= 0 {
		return shared.ErrValidation
	}
	if err := s.validate(seller); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, seller)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrValidation
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) validate(seller Seller) error {
	if strings.TrimSpace(seller.Name) == "" {
		return fmt.Errorf("%w: seller name is required", shared.ErrValidation)
	}
	if strings.TrimSpace(seller.TaxID) == "" {
		return fmt.Errorf("%w: seller tax id is required", shared.ErrValidation)
	}
	return nil
}
