package payment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/facturante/facturante/internal/shared"
)

type memoryRepo struct {
	mu           sync.Mutex
	records      map[int64]*Record
	byInvoice    map[int64]int64
	nextID       int64
	summaryCalls int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[int64]*Record), byInvoice: make(map[int64]int64)}
}

func (r *memoryRepo) Insert(ctx context.Context, rec Record) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byInvoice[rec.InvoiceID]; ok {
		out := *r.records[id]
		return &out, nil
	}
	r.nextID++
	rec.ID = r.nextID
	rec.Status = StatusPending
	rec.Active = true
	r.records[rec.ID] = &rec
	r.byInvoice[rec.InvoiceID] = rec.ID
	out := rec
	return &out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: payment record %d", shared.ErrNotFound, id)
	}
	out := *rec
	return &out, nil
}

func (r *memoryRepo) GetByInvoice(ctx context.Context, invoiceID int64) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byInvoice[invoiceID]
	if !ok {
		return nil, fmt.Errorf("%w: no record for invoice %d", shared.ErrNotFound, invoiceID)
	}
	out := *r.records[id]
	return &out, nil
}

func (r *memoryRepo) Transition(ctx context.Context, id int64, to Status) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: payment record %d", shared.ErrNotFound, id)
	}
	if !rec.Active {
		return nil, fmt.Errorf("%w: payment record %d", shared.ErrNotFound, id)
	}
	if rec.Status != StatusPending {
		return nil, fmt.Errorf("%w: payment record %d is %s", shared.ErrInvalidTransition, id, rec.Status)
	}
	rec.Status = to
	out := *rec
	return &out, nil
}

func (r *memoryRepo) SweepOverdue(ctx context.Context, asOf time.Time) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var flipped []Record
	for _, rec := range r.records {
		if rec.Active && rec.Status == StatusPending && rec.DueDate.Before(asOf) {
			rec.Status = StatusOverdue
			flipped = append(flipped, *rec)
		}
	}
	return flipped, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListRequest) ([]RecordWithInvoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RecordWithInvoice
	for _, rec := range r.records {
		if !rec.Active || rec.Status != req.Status {
			continue
		}
		if req.ClientID != 0 && rec.ClientID != req.ClientID {
			continue
		}
		out = append(out, RecordWithInvoice{Record: *rec})
	}
	return out, nil
}

func (r *memoryRepo) FindDueOn(ctx context.Context, day time.Time) ([]RecordWithInvoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	y, m, d := day.Date()
	var out []RecordWithInvoice
	for _, rec := range r.records {
		ry, rm, rd := rec.DueDate.Date()
		if rec.Active && rec.Status == StatusPending && ry == y && rm == m && rd == d {
			out = append(out, RecordWithInvoice{Record: *rec})
		}
	}
	return out, nil
}

func (r *memoryRepo) Deactivate(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return fmt.Errorf("%w: payment record %d", shared.ErrNotFound, id)
	}
	rec.Active = false
	return nil
}

func (r *memoryRepo) CountSummary(ctx context.Context, today time.Time) (*Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaryCalls++
	summary := &Summary{}
	for _, rec := range r.records {
		if !rec.Active {
			continue
		}
		switch rec.Status {
		case StatusPending:
			summary.Pending++
		case StatusPaid:
			summary.Paid++
		case StatusOverdue:
			summary.Overdue++
		}
	}
	return summary, nil
}

type stubTerms struct {
	days map[int64]int
}

func (t stubTerms) DaysToDue(ctx context.Context, id int64) (int, error) {
	days, ok := t.days[id]
	if !ok {
		return 0, fmt.Errorf("%w: payment terms %d", shared.ErrNotFound, id)
	}
	if days <= 0 {
		return 0, fmt.Errorf("%w: payment terms %d", shared.ErrInvalidPaymentTerms, id)
	}
	return days, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testService(repo *memoryRepo, terms TermsPort) *Service {
	return NewService(repo, terms, testLogger(), nil, time.Minute)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRegisterComputesDueDate(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, stubTerms{days: map[int64]int{1: 30}})

	rec, err := svc.Register(context.Background(), 7, date(2025, 1, 1), 1, 3)
	require.NoError(t, err)
	require.Equal(t, StatusPending, rec.Status)
	require.Equal(t, date(2025, 1, 31), rec.DueDate)
	require.Equal(t, int64(7), rec.InvoiceID)
}

func TestRegisterIsIdempotentPerInvoice(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, stubTerms{days: map[int64]int{1: 15}})

	first, err := svc.Register(context.Background(), 7, date(2025, 1, 1), 1, 3)
	require.NoError(t, err)

	second, err := svc.Register(context.Background(), 7, date(2025, 1, 1), 1, 3)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.records, 1)
}

func TestRegisterRejectsUnusableTerms(t *testing.T) {
	svc := testService(newMemoryRepo(), stubTerms{days: map[int64]int{1: 0}})

	_, err := svc.Register(context.Background(), 7, date(2025, 1, 1), 1, 3)
	require.ErrorIs(t, err, shared.ErrInvalidPaymentTerms)

	_, err = svc.Register(context.Background(), 7, date(2025, 1, 1), 99, 3)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestTransitionsAreTerminal(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, stubTerms{days: map[int64]int{1: 30}})

	rec, err := svc.Register(context.Background(), 1, date(2025, 1, 1), 1, 3)
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)

	_, err = svc.MarkPaid(context.Background(), rec.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	_, err = svc.MarkOverdueManual(context.Background(), rec.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestSweepOverdueIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, stubTerms{days: map[int64]int{1: 10}})

	_, err := svc.Register(context.Background(), 1, date(2025, 1, 1), 1, 3)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), 2, date(2025, 1, 20), 1, 3)
	require.NoError(t, err)

	asOf := date(2025, 1, 15)
	flipped, err := svc.SweepOverdue(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, flipped, 1)
	require.Equal(t, StatusOverdue, flipped[0].Status)

	again, err := svc.SweepOverdue(context.Background(), asOf)
	require.NoError(t, err)
	require.Empty(t, again)
}

func TestSweepDoesNotFlipDueToday(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, stubTerms{days: map[int64]int{1: 10}})

	_, err := svc.Register(context.Background(), 1, date(2025, 1, 1), 1, 3)
	require.NoError(t, err)

	// Due date 2025-01-11 is not overdue on 2025-01-11.
	flipped, err := svc.SweepOverdue(context.Background(), date(2025, 1, 11))
	require.NoError(t, err)
	require.Empty(t, flipped)
}

func TestFindByStatusValidatesStatus(t *testing.T) {
	svc := testService(newMemoryRepo(), stubTerms{})

	_, err := svc.FindByStatus(context.Background(), Status("BOGUS"), 0)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestFindByStatusFiltersByClient(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, stubTerms{days: map[int64]int{1: 30}})

	_, err := svc.Register(context.Background(), 1, date(2025, 1, 1), 1, 3)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), 2, date(2025, 1, 1), 1, 4)
	require.NoError(t, err)

	records, err := svc.FindByStatus(context.Background(), StatusPending, 4)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, int64(2), records[0].InvoiceID)
}

func TestGetSummaryUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := newMemoryRepo()
	svc := NewService(repo, stubTerms{days: map[int64]int{1: 30}}, testLogger(), client, time.Minute)

	_, err := svc.Register(context.Background(), 1, date(2025, 1, 1), 1, 3)
	require.NoError(t, err)

	first, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.Pending)
	require.Equal(t, 1, repo.summaryCalls)

	// Second read is served from Redis.
	second, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, second.Pending)
	require.Equal(t, 1, repo.summaryCalls)

	// A transition invalidates the cached summary.
	rec, err := svc.GetByInvoice(context.Background(), 1)
	require.NoError(t, err)
	_, err = svc.MarkPaid(context.Background(), rec.ID)
	require.NoError(t, err)

	third, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, third.Pending)
	require.Equal(t, 1, third.Paid)
	require.Equal(t, 2, repo.summaryCalls)
}

func TestDeactivateHidesRecord(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, stubTerms{days: map[int64]int{1: 30}})

	rec, err := svc.Register(context.Background(), 1, date(2025, 1, 1), 1, 3)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), rec.ID))

	records, err := svc.FindByStatus(context.Background(), StatusPending, 0)
	require.NoError(t, err)
	require.Empty(t, records)

	// A deactivated record behaves like a missing one.
	_, err = svc.MarkPaid(context.Background(), rec.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
