package auth

import "time"

// APIKey identifies a back-office console or integration caller. The secret
// is stored hashed; the plaintext is only returned once at creation.
type APIKey struct {
	ID         int64      `json:"id"`
	KeyID      string     `json:"key_id"`
	Label      string     `json:"label"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}
