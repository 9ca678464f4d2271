package folio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facturante/facturante/internal/platform/db"
	"github.com/facturante/facturante/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the folio ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const folioColumns = `id, number, series, status, used_at, created_at, updated_at`

// Claim flips the lowest-numbered AVAILABLE folio of the series to USED and
// returns it. It must run inside a caller-owned transaction: q is expected
// to be a pgx.Tx so the row lock holds until the caller commits. SKIP LOCKED
// makes concurrent claimants take distinct rows in ascending number order
// instead of blocking on the same one.
func (r *Repository) Claim(ctx context.Context, q db.Querier, series string, now time.Time) (*Folio, error) {
	const query = `
		UPDATE folios SET status = 'USED', used_at = $2, updated_at = $2
		WHERE id = (
			SELECT id FROM folios
			WHERE status = 'AVAILABLE' AND series = $1
			ORDER BY number
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		) AND status = 'AVAILABLE'
		RETURNING ` + folioColumns

	f, err := scanFolio(q.QueryRow(ctx, query, series, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: series %q", shared.ErrOutOfFolios, series)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// AllocateNext claims the next folio in its own transaction.
func (r *Repository) AllocateNext(ctx context.Context, series string, now time.Time) (*Folio, error) {
	var f *Folio
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		f, err = r.Claim(ctx, tx, series, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ProvisionSequential creates count new AVAILABLE folios numbered from
// max(number)+1 upwards. Numbering continues across all series so a number
// is never minted twice; the unique index on number turns a concurrent
// provisioning race into a retriable conflict.
func (r *Repository) ProvisionSequential(ctx context.Context, count int, series string) ([]Folio, error) {
	const query = `
		INSERT INTO folios (number, series, status, created_at, updated_at)
		SELECT n, $2, 'AVAILABLE', NOW(), NOW()
		FROM generate_series(
			(SELECT COALESCE(MAX(number), 0) + 1 FROM folios),
			(SELECT COALESCE(MAX(number), 0) + $1 FROM folios)
		) AS n
		RETURNING ` + folioColumns

	rows, err := r.pool.Query(ctx, query, count, series)
	if err != nil {
		return nil, provisionError(err)
	}
	defer rows.Close()

	var folios []Folio
	for rows.Next() {
		f, err := scanFolio(rows)
		if err != nil {
			return nil, provisionError(err)
		}
		folios = append(folios, *f)
	}
	return folios, provisionError(rows.Err())
}

// provisionError translates a duplicate-number violation from two racing
// provisions into a retriable conflict.
func provisionError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == "folios_number_key" {
		return fmt.Errorf("%w: folio numbers already minted: %v", shared.ErrConflict, err)
	}
	return err
}

const pgUniqueViolation = "23505"

// Void retires an AVAILABLE folio without using it.
func (r *Repository) Void(ctx context.Context, id int64) (*Folio, error) {
	const query = `
		UPDATE folios SET status = 'VOIDED', updated_at = NOW()
		WHERE id = $1 AND status = 'AVAILABLE'
		RETURNING ` + folioColumns

	f, err := scanFolio(r.pool.QueryRow(ctx, query, id))
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Distinguish a missing folio from one past the AVAILABLE state.
	var status Status
	err = r.pool.QueryRow(ctx, `SELECT status FROM folios WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: folio %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: folio %d is %s", shared.ErrInvalidTransition, id, status)
}

// Get returns a folio by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Folio, error) {
	f, err := scanFolio(r.pool.QueryRow(ctx,
		`SELECT `+folioColumns+` FROM folios WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: folio %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// List returns folios filtered by status and series, lowest number first.
func (r *Repository) List(ctx context.Context, req ListRequest) ([]Folio, error) {
	query := `SELECT ` + folioColumns + ` FROM folios WHERE 1=1`
	args := []any{}
	argNum := 1

	if req.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(req.Status))
		argNum++
	}
	if req.Series != "" {
		query += fmt.Sprintf(" AND series = $%d", argNum)
		args = append(args, req.Series)
		argNum++
	}
	query += " ORDER BY number"
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

	var folios []Folio
	for rows.Next() {
		f, err := scanFolio(rows)
		if err != nil {
			return nil, err
		}
		folios = append(folios, *f)
	}
	return folios, rows.Err()
}

func scanFolio(row pgx.Row) (*Folio, error) {
	var f Folio
	var usedAt pgtype.Timestamptz
	err := row.Scan(&f.ID, &f.Number, &f.Series, &f.Status, &usedAt, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if usedAt.Valid {
		f.UsedAt = &usedAt.Time
	}
	return &f, nil
}
