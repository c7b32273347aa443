package auth_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"wishera-chat/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestParseSession(t *testing.T) {
	t.Parallel()

	t.Run("it should read the subject and expiry", func(t *testing.T) {
		token := signToken(t, auth.WisheraClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u1",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			Email: "u1@example.com",
		})

		session, err := auth.ParseSession("Bearer " + token)
		require.NoError(t, err)
		require.Equal(t, "u1", session.UserId)
		require.Equal(t, "u1@example.com", session.Email)
		require.Equal(t, token, session.Token)
		require.True(t, session.ExpiresAt.Equal(now.Add(time.Hour)))
		require.False(t, session.Expired(now))
		require.True(t, session.Expired(now.Add(time.Hour)))
	})

	t.Run("it should parse expired tokens and report them expired", func(t *testing.T) {
		token := signToken(t, auth.WisheraClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u1",
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
			},
		})

		session, err := auth.ParseSession(token)
		require.NoError(t, err)
		require.True(t, session.Expired(now))
	})

	t.Run("it should fall back to the userId and nameid claims", func(t *testing.T) {
		session, err := auth.ParseSession(signToken(t, auth.WisheraClaims{UserId: "u2"}))
		require.NoError(t, err)
		require.Equal(t, "u2", session.UserId)
		require.False(t, session.Expired(now))

		session, err = auth.ParseSession(signToken(t, auth.WisheraClaims{NameId: "u3"}))
		require.NoError(t, err)
		require.Equal(t, "u3", session.UserId)
	})

	t.Run("it should reject tokens without a user id", func(t *testing.T) {
		_, err := auth.ParseSession(signToken(t, auth.WisheraClaims{Email: "x@example.com"}))
		require.ErrorIs(t, err, auth.ErrNoSubject)
	})

	t.Run("it should reject empty and garbage tokens", func(t *testing.T) {
		_, err := auth.ParseSession("  ")
		require.ErrorIs(t, err, auth.ErrEmptyToken)

		_, err = auth.ParseSession("not-a-jwt")
		require.Error(t, err)
	})
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "wishera", "session.json")
	store := auth.NewFileStore(path)

	t.Run("it should report no session before login", func(t *testing.T) {
		_, err := store.CheckAuth(now)
		require.ErrorIs(t, err, auth.ErrNoSession)
	})

	t.Run("it should persist the session on login", func(t *testing.T) {
		token := signToken(t, auth.WisheraClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u1",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		})

		_, err := store.Login(token)
		require.NoError(t, err)

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		session, err := auth.NewFileStore(path).CheckAuth(now)
		require.NoError(t, err)
		require.Equal(t, "u1", session.UserId)
		require.Equal(t, token, session.Token)
	})

	t.Run("it should forget the session on logout", func(t *testing.T) {
		require.NoError(t, store.Logout())
		require.NoError(t, store.Logout())

		_, err := store.CheckAuth(now)
		require.ErrorIs(t, err, auth.ErrNoSession)
	})

	t.Run("it should drop an expired session", func(t *testing.T) {
		token := signToken(t, auth.WisheraClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u1",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			},
		})
		_, err := store.Login(token)
		require.NoError(t, err)

		_, err = store.CheckAuth(now.Add(time.Hour))
		require.ErrorIs(t, err, auth.ErrExpired)

		_, err = os.Stat(path)
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("it should refuse to store an invalid token", func(t *testing.T) {
		_, err := store.Login("garbage")
		require.Error(t, err)

		_, err = store.CheckAuth(now)
		require.ErrorIs(t, err, auth.ErrNoSession)
	})
}
