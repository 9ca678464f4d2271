package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facturante/facturante/internal/shared"
)

// Repository provides PostgreSQL backed persistence for API keys.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a new API key row.
func (r *Repository) Insert(ctx context.Context, keyID, secretHash, label string) (*APIKey, error) {
	const query = `
		INSERT INTO api_keys (key_id, secret_hash, label, active, created_at)
		VALUES ($1, $2, $3, TRUE, NOW())
		RETURNING id, created_at`

	key := APIKey{KeyID: keyID, Label: label, Active: true}
	if err := r.pool.QueryRow(ctx, query, keyID, secretHash, label).Scan(&key.ID, &key.CreatedAt); err != nil {
		return nil, err
	}
	return &key, nil
}

// FindSecretHash returns the stored hash for an active key id.
func (r *Repository) FindSecretHash(ctx context.Context, keyID string) (string, error) {
	const query = `SELECT secret_hash FROM api_keys WHERE key_id = $1 AND active = TRUE`

	var hash string
	err := r.pool.QueryRow(ctx, query, keyID).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.ErrUnauthorized
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// TouchLastUsed stamps the most recent successful use of a key.
func (r *Repository) TouchLastUsed(ctx context.Context, keyID string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = $2 WHERE key_id = $1`, keyID, at)
	return err
}

// Revoke deactivates a key.
func (r *Repository) Revoke(ctx context.Context, keyID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE api_keys SET active = FALSE WHERE key_id = $1 AND active = TRUE`, keyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns all keys, most recent first.
func (r *Repository) List(ctx context.Context) ([]APIKey, error) {
	const query = `
		SELECT id, key_id, label, active, created_at, last_used_at
		FROM api_keys
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		var lastUsed pgtype.Timestamptz
		if err := rows.Scan(&k.ID, &k.KeyID, &k.Label, &k.Active, &k.CreatedAt, &lastUsed); err != nil {
			return nil, err
		}
		if lastUsed.Valid {
			k.LastUsedAt = &lastUsed.Time
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
