package invoice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/facturante/facturante/internal/folio"
	"github.com/facturante/facturante/internal/platform/db"
	"github.com/facturante/facturante/internal/shared"
)

type memoryClaimer struct {
	mu     sync.Mutex
	folios []folio.Folio
}

func (c *memoryClaimer) add(id, number int64, series string) {
	c.folios = append(c.folios, folio.Folio{ID: id, Number: number, Series: series, Status: folio.StatusAvailable})
}

func (c *memoryClaimer) Claim(ctx context.Context, q db.Querier, series string, now time.Time) (*folio.Folio, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, f := range c.folios {
		if f.Series != series || f.Status != folio.StatusAvailable {
			continue
		}
		if idx == -1 || f.Number < c.folios[idx].Number {
			idx = i
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: series %q", shared.ErrOutOfFolios, series)
	}
	c.folios[idx].Status = folio.StatusUsed
	c.folios[idx].UsedAt = &now
	out := c.folios[idx]
	return &out, nil
}

type memoryRepo struct {
	mu       sync.Mutex
	invoices map[int64]*Invoice
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{invoices: make(map[int64]*Invoice)}
}

func (r *memoryRepo) Create(ctx context.Context, inv *Invoice) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := *inv
	stored.ID = r.nextID
	r.invoices[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *memoryRepo) Issue(ctx context.Context, id int64, series string, now time.Time, claimer FolioClaimer) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	if inv.Status != StatusDraft {
		return nil, fmt.Errorf("%w: invoice %d is %s", shared.ErrInvalidTransition, id, inv.Status)
	}

	f, err := claimer.Claim(ctx, nil, series, now)
	if err != nil {
		return nil, err
	}
	inv.Status = StatusIssued
	inv.FolioID = &f.ID
	inv.FolioNumber = &f.Number
	out := *inv
	return &out, nil
}

func (r *memoryRepo) Void(ctx context.Context, id int64) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	if inv.Status == StatusVoid {
		return nil, fmt.Errorf("%w: invoice %d is VOID", shared.ErrInvalidTransition, id)
	}
	inv.Status = StatusVoid
	out := *inv
	return &out, nil
}

func (r *memoryRepo) ReplaceLines(ctx context.Context, id int64, lines []Line, subtotal, tax, total decimal.Decimal) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	if inv.Status != StatusDraft {
		return nil, fmt.Errorf("%w: invoice %d is %s", shared.ErrInvalidTransition, id, inv.Status)
	}
	inv.Lines = lines
	inv.Subtotal, inv.Tax, inv.Total = subtotal, tax, total
	out := *inv
	return &out, nil
}

func (r *memoryRepo) UpdateTotals(ctx context.Context, id int64, subtotal, tax, total decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[id]
	if !ok {
		return fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	inv.Subtotal, inv.Tax, inv.Total = subtotal, tax, total
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	out := *inv
	return &out, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListRequest) ([]Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Invoice
	for _, inv := range r.invoices {
		out = append(out, *inv)
	}
	return out, nil
}

type stubCatalog struct {
	inactiveProducts map[int64]bool
	inactiveClients  map[int64]bool
}

func (c stubCatalog) ClientActive(ctx context.Context, id int64) error {
	if c.inactiveClients[id] {
		return fmt.Errorf("%w: client %d is inactive", shared.ErrValidation, id)
	}
	return nil
}

func (c stubCatalog) SellerActive(ctx context.Context, id int64) error { return nil }

func (c stubCatalog) ProductActive(ctx context.Context, id int64) error {
	if c.inactiveProducts[id] {
		return fmt.Errorf("%w: product %d is inactive", shared.ErrValidation, id)
	}
	return nil
}

func (c stubCatalog) TermsUsable(ctx context.Context, id int64) error { return nil }

type recordingRegistrar struct {
	mu    sync.Mutex
	calls []int64
	err   error
}

func (r *recordingRegistrar) InvoiceIssued(ctx context.Context, invoiceID int64, invoiceDate time.Time, paymentTermsID, clientID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, invoiceID)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testService(repo *memoryRepo, claimer *memoryClaimer, catalog CatalogPort, registrar PaymentRegistrar) *Service {
	return NewService(repo, claimer, catalog, registrar, testLogger(), ServiceConfig{})
}

func draftInput() CreateInput {
	return CreateInput{
		Date:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ClientID:       1,
		SellerID:       1,
		PaymentTermsID: 1,
		Lines: []LineInput{
			{ProductID: 1, Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100)},
			{ProductID: 2, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50)},
		},
	}
}

func TestCreateComputesTotals(t *testing.T) {
	svc := testService(newMemoryRepo(), &memoryClaimer{}, stubCatalog{}, &recordingRegistrar{})

	inv, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)
	require.Equal(t, StatusDraft, inv.Status)
	require.True(t, inv.Subtotal.Equal(decimal.NewFromInt(250)), "subtotal %s", inv.Subtotal)
	require.True(t, inv.Tax.Equal(decimal.NewFromInt(40)), "tax %s", inv.Tax)
	require.True(t, inv.Total.Equal(decimal.NewFromInt(290)), "total %s", inv.Total)
	require.Nil(t, inv.FolioID)
}

func TestCreateRejectsEmptyLines(t *testing.T) {
	svc := testService(newMemoryRepo(), &memoryClaimer{}, stubCatalog{}, &recordingRegistrar{})

	input := draftInput()
	input.Lines = nil
	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsBadLines(t *testing.T) {
	svc := testService(newMemoryRepo(), &memoryClaimer{}, stubCatalog{}, &recordingRegistrar{})

	input := draftInput()
	input.Lines[0].Quantity = decimal.Zero
	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrValidation)

	input = draftInput()
	input.Lines[1].UnitPrice = decimal.NewFromInt(-1)
	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsInactiveReferences(t *testing.T) {
	catalog := stubCatalog{
		inactiveProducts: map[int64]bool{2: true},
		inactiveClients:  map[int64]bool{9: true},
	}
	svc := testService(newMemoryRepo(), &memoryClaimer{}, catalog, &recordingRegistrar{})

	_, err := svc.Create(context.Background(), draftInput())
	require.ErrorIs(t, err, shared.ErrValidation)

	input := draftInput()
	input.ClientID = 9
	input.Lines = input.Lines[:1]
	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestIssueBindsLowestFolioAndRegistersPayment(t *testing.T) {
	repo := newMemoryRepo()
	claimer := &memoryClaimer{}
	claimer.add(10, 3, "A")
	claimer.add(11, 1, "A")
	claimer.add(12, 2, "A")
	registrar := &recordingRegistrar{}
	svc := testService(repo, claimer, stubCatalog{}, registrar)

	inv, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)

	issued, err := svc.Issue(context.Background(), inv.ID, "")
	require.NoError(t, err)
	require.Equal(t, StatusIssued, issued.Status)
	require.NotNil(t, issued.FolioNumber)
	require.Equal(t, int64(1), *issued.FolioNumber)
	require.Equal(t, []int64{inv.ID}, registrar.calls)
}

func TestIssueOutOfFoliosLeavesDraft(t *testing.T) {
	repo := newMemoryRepo()
	registrar := &recordingRegistrar{}
	svc := testService(repo, &memoryClaimer{}, stubCatalog{}, registrar)

	inv, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)

	_, err = svc.Issue(context.Background(), inv.ID, "A")
	require.ErrorIs(t, err, shared.ErrOutOfFolios)

	got, err := svc.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, got.Status)
	require.Nil(t, got.FolioID)
	require.Empty(t, registrar.calls)
}

func TestIssueRejectsNonDraft(t *testing.T) {
	repo := newMemoryRepo()
	claimer := &memoryClaimer{}
	claimer.add(1, 1, "A")
	claimer.add(2, 2, "A")
	svc := testService(repo, claimer, stubCatalog{}, &recordingRegistrar{})

	inv, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)
	_, err = svc.Issue(context.Background(), inv.ID, "A")
	require.NoError(t, err)

	// A second issue attempt must not claim another folio.
	_, err = svc.Issue(context.Background(), inv.ID, "A")
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	f, err := claimer.Claim(context.Background(), nil, "A", time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(2), f.Number)
}

func TestIssueSurvivesRegistrarFailure(t *testing.T) {
	repo := newMemoryRepo()
	claimer := &memoryClaimer{}
	claimer.add(1, 1, "A")
	registrar := &recordingRegistrar{err: errors.New("tracker down")}
	svc := testService(repo, claimer, stubCatalog{}, registrar)

	inv, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)

	issued, err := svc.Issue(context.Background(), inv.ID, "A")
	require.NoError(t, err)
	require.Equal(t, StatusIssued, issued.Status)
}

func TestVoidKeepsFolioUsed(t *testing.T) {
	repo := newMemoryRepo()
	claimer := &memoryClaimer{}
	claimer.add(1, 1, "A")
	svc := testService(repo, claimer, stubCatalog{}, &recordingRegistrar{})

	inv, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)
	issued, err := svc.Issue(context.Background(), inv.ID, "A")
	require.NoError(t, err)

	voided, err := svc.Void(context.Background(), issued.ID)
	require.NoError(t, err)
	require.Equal(t, StatusVoid, voided.Status)
	require.Equal(t, issued.FolioID, voided.FolioID)

	// The claimed folio is not released.
	require.Equal(t, folio.StatusUsed, claimer.folios[0].Status)

	_, err = svc.Void(context.Background(), issued.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestReplaceLinesRecomputesTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, &memoryClaimer{}, stubCatalog{}, &recordingRegistrar{})

	inv, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)

	updated, err := svc.ReplaceLines(context.Background(), inv.ID, []LineInput{
		{ProductID: 1, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)
	require.True(t, updated.Subtotal.Equal(decimal.NewFromInt(100)))
	require.True(t, updated.Total.Equal(decimal.NewFromInt(116)))

	_, err = svc.ReplaceLines(context.Background(), inv.ID, nil)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecomputeTotalsOnlyOnDraft(t *testing.T) {
	repo := newMemoryRepo()
	claimer := &memoryClaimer{}
	claimer.add(1, 1, "A")
	svc := testService(repo, claimer, stubCatalog{}, &recordingRegistrar{})

	inv, err := svc.Create(context.Background(), draftInput())
	require.NoError(t, err)

	recomputed, err := svc.RecomputeTotals(context.Background(), inv.ID)
	require.NoError(t, err)
	require.True(t, recomputed.Total.Equal(decimal.NewFromInt(290)))

	_, err = svc.Issue(context.Background(), inv.ID, "A")
	require.NoError(t, err)

	_, err = svc.RecomputeTotals(context.Background(), inv.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}
