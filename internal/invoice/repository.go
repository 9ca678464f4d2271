package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/facturante/facturante/internal/folio"
	"github.com/facturante/facturante/internal/platform/db"
	"github.com/facturante/facturante/internal/shared"
)

// FolioClaimer claims the next available folio inside a caller-owned
// transaction. Satisfied by *folio.Repository.
type FolioClaimer interface {
	Claim(ctx context.Context, q db.Querier, series string, now time.Time) (*folio.Folio, error)
}

// Repository provides PostgreSQL backed persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const insertInvoiceSQL = `
	INSERT INTO invoices (
		invoice_date, subtotal, tax, total, status,
		client_id, seller_id, payment_terms_id, created_at, updated_at
	) VALUES ($1, $2, $3, $4, 'DRAFT', $5, $6, $7, NOW(), NOW())
	RETURNING id, created_at, updated_at`

// Create persists a draft invoice together with its lines in one transaction.
func (r *Repository) Create(ctx context.Context, inv *Invoice) (*Invoice, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertInvoiceSQL,
			inv.Date,
			inv.Subtotal.String(),
			inv.Tax.String(),
			inv.Total.String(),
			inv.ClientID,
			inv.SellerID,
			inv.PaymentTermsID,
		).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
		if err != nil {
			return err
		}
		inv.Status = StatusDraft

		return insertLines(ctx, tx, inv.ID, inv.Lines)
	})
	if err != nil {
		return nil, err
	}
	for i := range inv.Lines {
		inv.Lines[i].InvoiceID = inv.ID
	}
	return inv, nil
}

// Issue flips a draft invoice to ISSUED and binds a freshly claimed folio in
// a single transaction. The invoice row is locked first so concurrent issue
// calls serialize; if the folio claim fails, the invoice stays DRAFT.
func (r *Repository) Issue(ctx context.Context, id int64, series string, now time.Time, claimer FolioClaimer) (*Invoice, error) {
	var issued *Invoice
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var status Status
		err := tx.QueryRow(ctx,
			`SELECT status FROM invoices WHERE id = $1 FOR UPDATE`, id).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		if status != StatusDraft {
			return fmt.Errorf("%w: cannot issue invoice %d in status %s", shared.ErrInvalidTransition, id, status)
		}

		f, err := claimer.Claim(ctx, tx, series, now)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE invoices SET status = 'ISSUED', folio_id = $2, updated_at = $3 WHERE id = $1`,
			id, f.ID, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	issued, err = r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// Void moves a DRAFT or ISSUED invoice to VOID. The bound folio, if any,
// stays USED: a voided issued invoice still consumed a legal document number.
func (r *Repository) Void(ctx context.Context, id int64) (*Invoice, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status = 'VOID', updated_at = NOW()
		 WHERE id = $1 AND status IN ('DRAFT', 'ISSUED')`, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		var status Status
		err := r.pool.QueryRow(ctx, `SELECT status FROM invoices WHERE id = $1`, id).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
		}
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: cannot void invoice %d in status %s", shared.ErrInvalidTransition, id, status)
	}
	return r.Get(ctx, id)
}

// ReplaceLines swaps the line set of a draft invoice and stores the
// recomputed totals, all in one transaction.
func (r *Repository) ReplaceLines(ctx context.Context, id int64, lines []Line, subtotal, tax, total decimal.Decimal) (*Invoice, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var status Status
		err := tx.QueryRow(ctx,
			`SELECT status FROM invoices WHERE id = $1 FOR UPDATE`, id).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		if status != StatusDraft {
			return fmt.Errorf("%w: invoice %d is %s, lines are frozen", shared.ErrInvalidTransition, id, status)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, id); err != nil {
			return err
		}
		if err := insertLines(ctx, tx, id, lines); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE invoices SET subtotal = $2, tax = $3, total = $4, updated_at = NOW() WHERE id = $1`,
			id, subtotal.String(), tax.String(), total.String())
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// UpdateTotals stores recomputed totals for a draft invoice.
func (r *Repository) UpdateTotals(ctx context.Context, id int64, subtotal, tax, total decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET subtotal = $2, tax = $3, total = $4, updated_at = NOW()
		 WHERE id = $1 AND status = 'DRAFT'`,
		id, subtotal.String(), tax.String(), total.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var status Status
		err := r.pool.QueryRow(ctx, `SELECT status FROM invoices WHERE id = $1`, id).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: totals are frozen once invoice %d left DRAFT", shared.ErrInvalidTransition, id)
	}
	return nil
}

const invoiceColumns = `
	i.id, i.invoice_date, i.subtotal::text, i.tax::text, i.total::text, i.status,
	i.client_id, i.seller_id, i.payment_terms_id, i.folio_id, f.number,
	i.created_at, i.updated_at`

// Get returns an invoice with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices i
		LEFT JOIN folios f ON f.id = i.folio_id
		WHERE i.id = $1`

	inv, err := scanInvoice(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	lines, err := r.listLines(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines
	return inv, nil
}

// ListRequest filters invoice listings.
type ListRequest struct {
	Status   Status
	ClientID int64
	Limit    int
	Offset   int
}

// List returns invoices without lines, newest first.
func (r *Repository) List(ctx context.Context, req ListRequest) ([]Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices i
		LEFT JOIN folios f ON f.id = i.folio_id
		WHERE 1=1`
	args := []any{}
	argNum := 1

	if req.Status != "" {
		query += fmt.Sprintf(" AND i.status = $%d", argNum)
		args = append(args, string(req.Status))
		argNum++
	}
	if req.ClientID > 0 {
		query += fmt.Sprintf(" AND i.client_id = $%d", argNum)
		args = append(args, req.ClientID)
		argNum++
	}
	query += " ORDER BY i.invoice_date DESC, i.id DESC"
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

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (r *Repository) listLines(ctx context.Context, invoiceID int64) ([]Line, error) {
	const query = `
		SELECT id, invoice_id, product_id, quantity::text, unit_price::text, line_subtotal::text
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		var qty, price, sub string
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.ProductID, &qty, &price, &sub); err != nil {
			return nil, err
		}
		if l.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, err
		}
		if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if l.LineSubtotal, err = decimal.NewFromString(sub); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func insertLines(ctx context.Context, tx pgx.Tx, invoiceID int64, lines []Line) error {
	const query = `
		INSERT INTO invoice_lines (invoice_id, product_id, quantity, unit_price, line_subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	for i := range lines {
		err := tx.QueryRow(ctx, query,
			invoiceID,
			lines[i].ProductID,
			lines[i].Quantity.String(),
			lines[i].UnitPrice.String(),
			lines[i].LineSubtotal.String(),
		).Scan(&lines[i].ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var subtotal, tax, total string
	var folioID, folioNumber pgtype.Int8
	err := row.Scan(
		&inv.ID, &inv.Date, &subtotal, &tax, &total, &inv.Status,
		&inv.ClientID, &inv.SellerID, &inv.PaymentTermsID, &folioID, &folioNumber,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if inv.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, err
	}
	if inv.Tax, err = decimal.NewFromString(tax); err != nil {
		return nil, err
	}
	if inv.Total, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	if folioID.Valid {
		inv.FolioID = &folioID.Int64
	}
	if folioNumber.Valid {
		inv.FolioNumber = &folioNumber.Int64
	}
	return &inv, nil
}
