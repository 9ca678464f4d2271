package terms

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facturante/facturante/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Terms, int, error)
	Get(ctx context.Context, id int64) (Terms, error)
	Create(ctx context.Context, t Terms) (Terms, error)
	Update(ctx context.Context, id int64, t Terms) error
	Deactivate(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const termsColumns = `id, name, days_to_due, active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Terms, int, error) {
	query := `SELECT ` + termsColumns + ` FROM payment_terms WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM payment_terms WHERE 1=1`
	args := []any{}
	argNum := 0

	if filters.Search != "" {
		argNum++
		clause := ` AND name ILIKE $` + strconv.Itoa(argNum)
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Active != nil {
		argNum++
		clause := ` AND active = $` + strconv.Itoa(argNum)
		query += clause
		countQuery += clause
		args = append(args, *filters.Active)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY days_to_due LIMIT $` + strconv.Itoa(argNum+1) + ` OFFSET $` + strconv.Itoa(argNum+2)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Terms
	for rows.Next() {
		var t Terms
		if err := rows.Scan(&t.ID, &t.Name, &t.DaysToDue, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Terms, error) {
	var t Terms
	err := r.pool.QueryRow(ctx, `SELECT `+termsColumns+` FROM payment_terms WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.DaysToDue, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Terms{}, shared.ErrNotFound
	}
	return t, err
}

func (r *repository) Create(ctx context.Context, t Terms) (Terms, error) {
	const query = `
		INSERT INTO payment_terms (name, days_to_due, active, created_at, updated_at)
		VALUES ($1, $2, TRUE, $3, $3)
		RETURNING ` + termsColumns

	now := time.Now()
	var out Terms
	err := r.pool.QueryRow(ctx, query, t.Name, t.DaysToDue, now).
		Scan(&out.ID, &out.Name, &out.DaysToDue, &out.Active, &out.CreatedAt, &out.UpdatedAt)
	return out, err
}

func (r *repository) Update(ctx context.Context, id int64, t Terms) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payment_terms SET name = $2, days_to_due = $3, updated_at = $4 WHERE id = $1`,
		id, t.Name, t.DaysToDue, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE payment_terms SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
