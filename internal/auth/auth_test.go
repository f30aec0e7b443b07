package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, s store.Store, email, password string) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Email: email, Name: email, PasswordHash: hash, Role: models.RoleUser}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestNew_EmptySecret(t *testing.T) {
	s := newTestStore(t)
	_, err := New(s, "")
	assert.Error(t, err)
}

func TestLoginRoundTrip(t *testing.T) {
	s := newTestStore(t)
	a, err := New(s, "test-secret")
	require.NoError(t, err)
	ctx := context.Background()

	alice := seedUser(t, s, "alice@example.com", "hunter22")

	token, user, err := a.Login(ctx, "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, alice.ID, user.ID)

	resolved, err := a.FromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, resolved.ID)
	assert.Equal(t, models.RoleUser, resolved.Role)
}

func TestLogin_BadCredentials(t *testing.T) {
	s := newTestStore(t)
	a, err := New(s, "test-secret")
	require.NoError(t, err)
	ctx := context.Background()

	seedUser(t, s, "alice@example.com", "hunter22")

	// Wrong password and unknown email fail identically.
	_, _, err = a.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, _, err = a.Login(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestFromToken_Invalid(t *testing.T) {
	s := newTestStore(t)
	a, err := New(s, "test-secret")
	require.NoError(t, err)
	ctx := context.Background()

	alice := seedUser(t, s, "alice@example.com", "hunter22")

	t.Run("garbage", func(t *testing.T) {
		_, err := a.FromToken(ctx, "not-a-token")
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := New(s, "different-secret")
		require.NoError(t, err)
		token, err := other.IssueToken(alice)
		require.NoError(t, err)

		_, err = a.FromToken(ctx, token)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("expired", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   alice.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-48 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
		}
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = a.FromToken(ctx, expired)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("deleted user", func(t *testing.T) {
		token, err := a.IssueToken(alice)
		require.NoError(t, err)
		require.NoError(t, s.DeleteUser(ctx, alice.ID))

		_, err = a.FromToken(ctx, token)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	// Hashes are salted, so two hashes of the same input differ.
	again, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
}
