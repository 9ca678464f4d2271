package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/facturante/facturante/internal/shared"
)

// Repository provides PostgreSQL backed persistence for payment records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordColumns = `id, invoice_id, invoice_date, payment_terms_id, client_id,
	due_date, status, active, created_at, updated_at`

// Insert creates a PENDING record for an invoice. The unique constraint on
// invoice_id makes registration idempotent: a second call returns the
// existing record untouched.
func (r *Repository) Insert(ctx context.Context, rec Record) (*Record, error) {
	const query = `
		INSERT INTO payment_records (
			invoice_id, invoice_date, payment_terms_id, client_id,
			due_date, status, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, 'PENDING', TRUE, NOW(), NOW())
		ON CONFLICT (invoice_id) DO NOTHING
		RETURNING ` + recordColumns

	stored, err := scanRecord(r.pool.QueryRow(ctx, query,
		rec.InvoiceID, rec.InvoiceDate, rec.PaymentTermsID, rec.ClientID, rec.DueDate))
	if errors.Is(err, pgx.ErrNoRows) {
		return r.GetByInvoice(ctx, rec.InvoiceID)
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Get returns a record by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM payment_records WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment record %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByInvoice returns the record tracking an invoice.
func (r *Repository) GetByInvoice(ctx context.Context, invoiceID int64) (*Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM payment_records WHERE invoice_id = $1`, invoiceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: no payment record for invoice %d", shared.ErrNotFound, invoiceID)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Transition moves a PENDING record to the given terminal status.
func (r *Repository) Transition(ctx context.Context, id int64, to Status) (*Record, error) {
	const query = `
		UPDATE payment_records SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING' AND active = TRUE
		RETURNING ` + recordColumns

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, id, string(to)))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var status Status
	var active bool
	err = r.pool.QueryRow(ctx,
		`SELECT status, active FROM payment_records WHERE id = $1`, id).Scan(&status, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment record %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, fmt.Errorf("%w: payment record %d", shared.ErrNotFound, id)
	}
	return nil, fmt.Errorf("%w: payment record %d is %s", shared.ErrInvalidTransition, id, status)
}

// SweepOverdue flips every active PENDING record past its due date to
// OVERDUE and returns the affected rows. The transition is monotonic, so
// overlapping sweeps are harmless and a repeat with the same cutoff returns
// nothing.
func (r *Repository) SweepOverdue(ctx context.Context, asOf time.Time) ([]Record, error) {
	const query = `
		UPDATE payment_records SET status = 'OVERDUE', updated_at = NOW()
		WHERE active = TRUE AND status = 'PENDING' AND due_date < $1
		RETURNING ` + recordColumns

	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// ListRequest filters record listings.
type ListRequest struct {
	Status   Status
	ClientID int64
	Limit    int
	Offset   int
}

const joinedColumns = `pr.id, pr.invoice_id, pr.invoice_date, pr.payment_terms_id,
	pr.client_id, pr.due_date, pr.status, pr.active, pr.created_at, pr.updated_at,
	c.name, i.total::text, f.number, f.series`

// List returns active records joined with invoice and client display
// fields, soonest due first.
func (r *Repository) List(ctx context.Context, req ListRequest) ([]RecordWithInvoice, error) {
	query := `
		SELECT ` + joinedColumns + `
		FROM payment_records pr
		JOIN invoices i ON i.id = pr.invoice_id
		JOIN clients c ON c.id = pr.client_id
		LEFT JOIN folios f ON f.id = i.folio_id
		WHERE pr.active = TRUE`
	args := []any{}
	argNum := 1

	if req.Status != "" {
		query += fmt.Sprintf(" AND pr.status = $%d", argNum)
		args = append(args, string(req.Status))
		argNum++
	}
	if req.ClientID > 0 {
		query += fmt.Sprintf(" AND pr.client_id = $%d", argNum)
		args = append(args, req.ClientID)
		argNum++
	}
	query += " ORDER BY pr.due_date, pr.id"
	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, req.Limit)
		argNum++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, req.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RecordWithInvoice
	for rows.Next() {
		rec, err := scanJoined(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// FindDueOn returns active PENDING records due on the given day.
func (r *Repository) FindDueOn(ctx context.Context, day time.Time) ([]RecordWithInvoice, error) {
	const query = `
		SELECT ` + joinedColumns + `
		FROM payment_records pr
		JOIN invoices i ON i.id = pr.invoice_id
		JOIN clients c ON c.id = pr.client_id
		LEFT JOIN folios f ON f.id = i.folio_id
		WHERE pr.active = TRUE AND pr.status = 'PENDING' AND pr.due_date = $1::date
		ORDER BY pr.id`

	rows, err := r.pool.Query(ctx, query, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RecordWithInvoice
	for rows.Next() {
		rec, err := scanJoined(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Deactivate soft-deletes a record.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payment_records SET active = FALSE, updated_at = NOW()
		 WHERE id = $1 AND active = TRUE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment record %d", shared.ErrNotFound, id)
	}
	return nil
}

// CountSummary aggregates active record counts per status plus the number
// of records due on the given day.
func (r *Repository) CountSummary(ctx context.Context, today time.Time) (*Summary, error) {
	const query = `
		SELECT
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COUNT(*) FILTER (WHERE status = 'PAID'),
			COUNT(*) FILTER (WHERE status = 'OVERDUE'),
			COUNT(*) FILTER (WHERE status = 'PENDING' AND due_date = $1::date)
		FROM payment_records
		WHERE active = TRUE`

	var s Summary
	err := r.pool.QueryRow(ctx, query, today).Scan(&s.Pending, &s.Paid, &s.Overdue, &s.DueToday)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.InvoiceID, &rec.InvoiceDate, &rec.PaymentTermsID, &rec.ClientID,
		&rec.DueDate, &rec.Status, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanJoined(row pgx.Row) (*RecordWithInvoice, error) {
	var rec RecordWithInvoice
	var total string
	var folioNumber pgtype.Int8
	var folioSeries pgtype.Text
	err := row.Scan(
		&rec.ID, &rec.InvoiceID, &rec.InvoiceDate, &rec.PaymentTermsID, &rec.ClientID,
		&rec.DueDate, &rec.Status, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.ClientName, &total, &folioNumber, &folioSeries,
	)
	if err != nil {
		return nil, err
	}
	if rec.InvoiceTotal, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	if folioNumber.Valid {
		rec.FolioNumber = &folioNumber.Int64
	}
	rec.FolioSeries = folioSeries.String
	return &rec, nil
}
