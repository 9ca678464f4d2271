// Package masterdata groups the reference entities invoices depend on and
// exposes a lookup facade for the invoicing and payment modules.
package masterdata

import (
	"context"
	"fmt"

	"github.com/facturante/facturante/internal/masterdata/clients"
	"github.com/facturante/facturante/internal/masterdata/products"
	"github.com/facturante/facturante/internal/masterdata/sellers"
	"github.com/facturante/facturante/internal/masterdata/terms"
	"github.com/facturante/facturante/internal/shared"
)

// Catalog answers active-entity checks against master data. It backs the
// reference validation performed on invoice creation.
type Catalog struct {
	clients  clients.Repository
	sellers  sellers.Repository
	products products.Repository
	terms    terms.Repository
}

// NewCatalog builds a Catalog over the master data repositories.
func NewCatalog(c clients.Repository, s sellers.Repository, p products.Repository, t terms.Repository) *Catalog {
	return &Catalog{clients: c, sellers: s, products: p, terms: t}
}

func (c *Catalog) ClientActive(ctx context.Context, id int64) error {
	active, err := c.clients.IsActive(ctx, id)
	if err != nil {
		return fmt.Errorf("client %d: %w", id, err)
	}
	if !active {
		return fmt.Errorf("%w: client %d is inactive", shared.ErrValidation, id)
	}
	return nil
}

func (c *Catalog) SellerActive(ctx context.Context, id int64) error {
	active, err := c.sellers.IsActive(ctx, id)
	if err != nil {
		return fmt.Errorf("seller %d: %w", id, err)
	}
	if !active {
		return fmt.Errorf("%w: seller %d is inactive", shared.ErrValidation, id)
	}
	return nil
}

func (c *Catalog) ProductActive(ctx context.Context, id int64) error {
	active, err := c.products.IsActive(ctx, id)
	if err != nil {
		return fmt.Errorf("product %d: %w", id, err)
	}
	if !active {
		return fmt.Errorf("%w: product %d is inactive", shared.ErrValidation, id)
	}
	return nil
}

// TermsUsable checks the referenced payment terms exist, are active and
// carry a positive day count.
func (c *Catalog) TermsUsable(ctx context.Context, id int64) error {
	t, err := c.terms.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("payment terms %d: %w", id, err)
	}
	if !t.Active {
		return fmt.Errorf("%w: payment terms %d are inactive", shared.ErrValidation, id)
	}
	if t.DaysToDue <= 0 {
		return fmt.Errorf("%w: payment terms %d", shared.ErrInvalidPaymentTerms, id)
	}
	return nil
}

// DaysToDue resolves the due interval for the given payment terms.
func (c *Catalog) DaysToDue(ctx context.Context, id int64) (int, error) {
	t, err := c.terms.Get(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("payment terms %d: %w", id, err)
	}
	if !t.Active || t.DaysToDue <= 0 {
		return 0, fmt.Errorf("%w: payment terms %d", shared.ErrInvalidPaymentTerms, id)
	}
	return t.DaysToDue, nil
}
