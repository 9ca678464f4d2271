package sellers

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
	List(ctx context.Context, filters shared.ListFilters) ([]Seller, int, error)
	Get(ctx context.Context, id int64) (Seller, error)
	Create(ctx context.Context, seller Seller) (Seller, error)
	Update(ctx context.Context, id int64, seller Seller) error
	Deactivate(ctx context.Context, id int64) error
	IsActive(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const sellerColumns = `id, name, tax_id, active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Seller, int, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM sellers WHERE 1=1`
	args := []any{}
	argNum := 0

	if filters.Search != "" {
		argNum++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argNum) + ` OR tax_id ILIKE $` + strconv.Itoa(argNum) + `)`
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

	query += ` ORDER BY name LIMIT $` + strconv.Itoa(argNum+1) + ` OFFSET $` + strconv.Itoa(argNum+2)
	args = append(args, filters.Limit, filters.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Seller
	for rows.Next() {
		var s Seller
		if err := rows.Scan(&s.ID, &s.Name, &s.TaxID, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Seller, error) {
	var s Seller
	err := r.pool.QueryRow(ctx, `SELECT `+sellerColumns+` FROM sellers WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.TaxID, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Seller{}, shared.ErrNotFound
	}
	return s, err
}

func (r *repository) Create(ctx context.Context, seller Seller) (Seller, error) {
	const query = `
		INSERT INTO sellers (name, tax_id, active, created_at, updated_at)
		VALUES ($1, $2, TRUE, $3, $3)
		RETURNING ` + sellerColumns

	now := time.Now()
	var s Seller
	err := r.pool.QueryRow(ctx, query, seller.Name, seller.TaxID, now).
		Scan(&s.ID, &s.Name, &s.TaxID, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *repository) Update(ctx context.Context, id int64, seller Seller) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sellers SET name = $2, tax_id = $3, updated_at = $4 WHERE id = $1`,
		id, seller.Name, seller.TaxID, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sellers SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) IsActive(ctx context.Context, id int64) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx, `SELECT active FROM sellers WHERE id = $1`, id).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, shared.ErrNotFound
	}
	return active, err
}
