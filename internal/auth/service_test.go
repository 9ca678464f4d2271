package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facturante/facturante/internal/shared"
)

type memoryRepo struct {
	keys   map[string]*APIKey
	hashes map[string]string
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{keys: make(map[string]*APIKey), hashes: make(map[string]string)}
}

func (r *memoryRepo) Insert(ctx context.Context, keyID, secretHash, label string) (*APIKey, error) {
	r.nextID++
	key := &APIKey{ID: r.nextID, KeyID: keyID, Label: label, Active: true}
	r.keys[keyID] = key
	r.hashes[keyID] = secretHash
	out := *key
	return &out, nil
}

func (r *memoryRepo) FindSecretHash(ctx context.Context, keyID string) (string, error) {
	key, ok := r.keys[keyID]
	if !ok || !key.Active {
		return "", shared.ErrUnauthorized
	}
	return r.hashes[keyID], nil
}

func (r *memoryRepo) TouchLastUsed(ctx context.Context, keyID string, at time.Time) error {
	if key, ok := r.keys[keyID]; ok {
		key.LastUsedAt = &at
	}
	return nil
}

func (r *memoryRepo) Revoke(ctx context.Context, keyID string) error {
	key, ok := r.keys[keyID]
	if !ok {
		return shared.ErrNotFound
	}
	key.Active = false
	return nil
}

func (r *memoryRepo) List(ctx context.Context) ([]APIKey, error) {
	var out []APIKey
	for _, key := range r.keys {
		out = append(out, *key)
	}
	return out, nil
}

func TestCreateKeyAndVerify(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	key, token, err := svc.CreateKey(context.Background(), "console")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(token, "fct_"))
	require.Len(t, key.KeyID, 16)
	require.True(t, key.Active)

	require.NoError(t, svc.Verify(context.Background(), token))

	stored := repo.keys[key.KeyID]
	require.NotNil(t, stored.LastUsedAt)
}

func TestCreateKeyRequiresLabel(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, _, err := svc.CreateKey(context.Background(), "  ")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestVerifyRejectsMalformedTokens(t *testing.T) {
	svc := NewService(newMemoryRepo())

	for _, token := range []string{"", "nonsense", "fct_", "fct_onlykeyid", "fct_.onlysecret"} {
		require.ErrorIs(t, svc.Verify(context.Background(), token), shared.ErrUnauthorized, "token %q", token)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	key, _, err := svc.CreateKey(context.Background(), "console")
	require.NoError(t, err)

	err = svc.Verify(context.Background(), "fct_"+key.KeyID+".wrongsecret")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestVerifyRejectsRevokedKey(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	key, token, err := svc.CreateKey(context.Background(), "console")
	require.NoError(t, err)
	require.NoError(t, svc.RevokeKey(context.Background(), key.KeyID))

	require.ErrorIs(t, svc.Verify(context.Background(), token), shared.ErrUnauthorized)
}
