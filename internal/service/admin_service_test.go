package service

import (
	"context"
	"testing"
	"time"

	"artdocent-backend/internal/config"
	"artdocent-backend/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAdminService(t *testing.T) (*AdminService, *storage.MemoryStorage) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	store := storage.NewMemoryStorage()
	svc := NewAdminService(store, config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})
	require.NoError(t, svc.SeedAdmins(context.Background(), []config.AdminSeed{
		{Email: "curator@museum.org", PasswordHash: string(hash)},
	}))
	return svc, store
}

func TestAdminLoginAndAuthorize(t *testing.T) {
	svc, _ := newTestAdminService(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, "curator@museum.org", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	admin, err := svc.Authorize(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "curator@museum.org", admin.Email)

	_, err = svc.Login(ctx, "curator@museum.org", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@museum.org", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSeedKeepsAdminID(t *testing.T) {
	svc, store := newTestAdminService(t)
	ctx := context.Background()
	before, err := store.GetAdminByEmail(ctx, "curator@museum.org")
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("rotated"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, svc.SeedAdmins(ctx, []config.AdminSeed{{Email: "curator@museum.org", PasswordHash: string(hash)}}))

	after, err := store.GetAdminByEmail(ctx, "curator@museum.org")
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)

	assert.Error(t, svc.SeedAdmins(ctx, []config.AdminSeed{{Email: "x@y.z", PasswordHash: "plain"}}))
}

func TestAuthorizeRejects(t *testing.T) {
	svc, _ := newTestAdminService(t)
	ctx := context.Background()

	_, err := svc.Authorize(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// signed with another key
	other := jwt.NewWithClaims(jwt.SigningMethodHS256, &AdminClaims{
		Role:             adminRole,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "x", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	forged, err := other.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.Authorize(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// valid signature, subject no longer an admin
	orphan := jwt.NewWithClaims(jwt.SigningMethodHS256, &AdminClaims{
		Role:             adminRole,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "removed", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	token, err := orphan.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.Authorize(ctx, token)
	assert.ErrorIs(t, err, ErrNotAdmin)

	// expired
	resp, err := svc.Login(ctx, "curator@museum.org", "s3cret")
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Authorize(ctx, resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginWithoutSecret(t *testing.T) {
	svc := NewAdminService(storage.NewMemoryStorage(), config.AuthConfig{})
	_, err := svc.Login(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrAuthDisabled)
}
