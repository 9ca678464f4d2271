package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/facturante/facturante/internal/shared"
)

const tokenPrefix = "fct_"

// RepositoryPort defines data access methods for API keys.
type RepositoryPort interface {
	Insert(ctx context.Context, keyID, secretHash, label string) (*APIKey, error)
	FindSecretHash(ctx context.Context, keyID string) (string, error)
	TouchLastUsed(ctx context.Context, keyID string, at time.Time) error
	Revoke(ctx context.Context, keyID string) error
	List(ctx context.Context) ([]APIKey, error)
}

// Service handles API key issuance and verification.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateKey mints a new API key and returns the record together with the
// plaintext token. The plaintext cannot be recovered later.
func (s *Service) CreateKey(ctx context.Context, label string) (*APIKey, string, error) {
	if strings.TrimSpace(label) == "" {
		return nil, "", fmt.Errorf("%w: label is required", shared.ErrValidation)
	}

	keyID := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	secret := strings.ReplaceAll(uuid.NewString(), "-", "")

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	key, err := s.repo.Insert(ctx, keyID, string(hash), label)
	if err != nil {
		return nil, "", err
	}
	return key, tokenPrefix + keyID + "." + secret, nil
}

// Verify checks a bearer token against stored key hashes.
func (s *Service) Verify(ctx context.Context, token string) error {
	raw, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok {
		return shared.ErrUnauthorized
	}
	keyID, secret, ok := strings.Cut(raw, ".")
	if !ok || keyID == "" || secret == "" {
		return shared.ErrUnauthorized
	}

	hash, err := s.repo.FindSecretHash(ctx, keyID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return shared.ErrUnauthorized
		}
		return err
	}

	_ = s.repo.TouchLastUsed(ctx, keyID, time.Now().UTC())
	return nil
}

// RevokeKey deactivates the key with the given key id.
func (s *Service) RevokeKey(ctx context.Context, keyID string) error {
	return s.repo.Revoke(ctx, keyID)
}

// ListKeys returns all keys.
func (s *Service) ListKeys(ctx context.Context) ([]APIKey, error) {
	return s.repo.List(ctx)
}
