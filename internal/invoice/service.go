package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/facturante/facturante/internal/shared"
)

// CatalogPort verifies referenced master data. An entity that is missing or
// soft-deleted fails the check.
type CatalogPort interface {
	ClientActive(ctx context.Context, id int64) error
	SellerActive(ctx context.Context, id int64) error
	ProductActive(ctx context.Context, id int64) error
	TermsUsable(ctx context.Context, id int64) error
}

// PaymentRegistrar is notified after an invoice is durably issued so the
// due-date tracker can open a pending payment record.
type PaymentRegistrar interface {
	InvoiceIssued(ctx context.Context, invoiceID int64, invoiceDate time.Time, paymentTermsID, clientID int64) error
}

// RepositoryPort defines data access methods for invoices.
type RepositoryPort interface {
	Create(ctx context.Context, inv *Invoice) (*Invoice, error)
	Issue(ctx context.Context, id int64, series string, now time.Time, claimer FolioClaimer) (*Invoice, error)
	Void(ctx context.Context, id int64) (*Invoice, error)
	ReplaceLines(ctx context.Context, id int64, lines []Line, subtotal, tax, total decimal.Decimal) (*Invoice, error)
	UpdateTotals(ctx context.Context, id int64, subtotal, tax, total decimal.Decimal) error
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListRequest) ([]Invoice, error)
}

// ServiceConfig tunes invoice business rules.
type ServiceConfig struct {
	// TaxRate applied on the subtotal. Zero value falls back to 16%.
	TaxRate decimal.Decimal
	// DefaultSeries used when issuance requests omit a folio series.
	DefaultSeries string
}

// Service owns the invoice lifecycle.
type Service struct {
	repo      RepositoryPort
	claimer   FolioClaimer
	catalog   CatalogPort
	registrar PaymentRegistrar
	logger    *slog.Logger
	cfg       ServiceConfig
	clock     func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, claimer FolioClaimer, catalog CatalogPort, registrar PaymentRegistrar, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.TaxRate.IsZero() {
		cfg.TaxRate = decimal.NewFromFloat(0.16)
	}
	if cfg.DefaultSeries == "" {
		cfg.DefaultSeries = "A"
	}
	return &Service{
		repo:      repo,
		claimer:   claimer,
		catalog:   catalog,
		registrar: registrar,
		logger:    logger,
		cfg:       cfg,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// LineInput describes a requested invoice line.
type LineInput struct {
	ProductID int64
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// CreateInput describes a requested draft invoice.
type CreateInput struct {
	Date           time.Time
	ClientID       int64
	SellerID       int64
	PaymentTermsID int64
	Lines          []LineInput
}

// Create validates the referenced entities, computes totals and persists a
// draft invoice.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Invoice, error) {
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("%w: an invoice needs at least one line item", shared.ErrValidation)
	}
	if err := s.catalog.ClientActive(ctx, input.ClientID); err != nil {
		return nil, err
	}
	if err := s.catalog.SellerActive(ctx, input.SellerID); err != nil {
		return nil, err
	}
	if err := s.catalog.TermsUsable(ctx, input.PaymentTermsID); err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(input.Lines))
	for _, li := range input.Lines {
		if li.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: line quantity must be positive", shared.ErrValidation)
		}
		if li.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: line unit price cannot be negative", shared.ErrValidation)
		}
		if err := s.catalog.ProductActive(ctx, li.ProductID); err != nil {
			return nil, err
		}
		lines = append(lines, Line{
			ProductID:    li.ProductID,
			Quantity:     li.Quantity,
			UnitPrice:    li.UnitPrice,
			LineSubtotal: li.Quantity.Mul(li.UnitPrice).Round(2),
		})
	}

	subtotal, tax, total := s.totals(lines)

	date := input.Date
	if date.IsZero() {
		date = s.clock().Truncate(24 * time.Hour)
	}

	inv := &Invoice{
		Date:           date,
		Subtotal:       subtotal,
		Tax:            tax,
		Total:          total,
		Status:         StatusDraft,
		ClientID:       input.ClientID,
		SellerID:       input.SellerID,
		PaymentTermsID: input.PaymentTermsID,
		Lines:          lines,
	}
	return s.repo.Create(ctx, inv)
}

// Issue finalizes a draft invoice: it claims the next folio of the series
// and binds it while flipping the status, atomically. A failed allocation
// leaves the invoice DRAFT. Safe to retry on transient conflicts.
func (s *Service) Issue(ctx context.Context, id int64, series string) (*Invoice, error) {
	if series == "" {
		series = s.cfg.DefaultSeries
	}

	var inv *Invoice
	err := shared.Retry(ctx, 3, 50*time.Millisecond, func() error {
		var err error
		inv, err = s.repo.Issue(ctx, id, series, s.clock(), s.claimer)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice issued",
		slog.Int64("invoice_id", inv.ID),
		slog.Any("folio_id", inv.FolioID),
	)

	if s.registrar != nil {
		if err := s.registrar.InvoiceIssued(ctx, inv.ID, inv.Date, inv.PaymentTermsID, inv.ClientID); err != nil {
			// The issuance already committed; registration is idempotent
			// and can be replayed through the payments API.
			s.logger.Error("register payment record",
				slog.Any("error", err),
				slog.Int64("invoice_id", inv.ID),
			)
		}
	}
	return inv, nil
}

// Void cancels a draft or issued invoice. A bound folio remains USED.
func (s *Service) Void(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Void(ctx, id)
}

// ReplaceLines swaps the line set of a draft invoice, revalidating products
// and recomputing totals.
func (s *Service) ReplaceLines(ctx context.Context, id int64, inputs []LineInput) (*Invoice, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: an invoice needs at least one line item", shared.ErrValidation)
	}
	lines := make([]Line, 0, len(inputs))
	for _, li := range inputs {
		if li.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: line quantity must be positive", shared.ErrValidation)
		}
		if err := s.catalog.ProductActive(ctx, li.ProductID); err != nil {
			return nil, err
		}
		lines = append(lines, Line{
			ProductID:    li.ProductID,
			Quantity:     li.Quantity,
			UnitPrice:    li.UnitPrice,
			LineSubtotal: li.Quantity.Mul(li.UnitPrice).Round(2),
		})
	}
	subtotal, tax, total := s.totals(lines)
	return s.repo.ReplaceLines(ctx, id, lines, subtotal, tax, total)
}

// RecomputeTotals reprices a draft invoice from its stored lines.
func (s *Service) RecomputeTotals(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusDraft {
		return nil, fmt.Errorf("%w: totals are frozen once invoice %d left DRAFT", shared.ErrInvalidTransition, id)
	}
	subtotal, tax, total := s.totals(inv.Lines)
	if err := s.repo.UpdateTotals(ctx, id, subtotal, tax, total); err != nil {
		return nil, err
	}
	inv.Subtotal, inv.Tax, inv.Total = subtotal, tax, total
	return inv, nil
}

// Get returns an invoice with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns invoices matching the filters.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Invoice, error) {
	if req.Limit <= 0 || req.Limit > shared.MaxLimit {
		req.Limit = shared.DefaultLimit
	}
	return s.repo.List(ctx, req)
}

func (s *Service) totals(lines []Line) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineSubtotal)
	}
	tax = subtotal.Mul(s.cfg.TaxRate).Round(2)
	total = subtotal.Add(tax)
	return subtotal, tax, total
}
