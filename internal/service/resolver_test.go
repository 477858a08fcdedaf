package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-contacts-api/internal/model"
)

func TestIdentityResolver(t *testing.T) {
	t.Parallel()

	tokens := newTestTokenService()

	seed := func(store *memStore) model.User {
		return store.add(model.User{
			Username:     "alice",
			Email:        "alice@example.com",
			PasswordHash: "irrelevant",
			Confirmed:    true,
			Role:         model.RoleUser,
		})
	}

	t.Run("resolves a fresh token from the store and caches it", func(t *testing.T) {
		store := newMemStore()
		seed(store)
		resolver := NewIdentityResolver(tokens, newMemCache(), store, 600*time.Second)

		token, err := tokens.IssueAccessToken("alice")
		require.NoError(t, err)

		user, err := resolver.Resolve(context.Background(), token)
		require.NoError(t, err)
		require.Equal(t, "alice", user.Username)
		require.Empty(t, user.Avatar)
		require.Equal(t, 1, store.usernameLookups())
	})

	t.Run("second resolve hits the cache and skips the store", func(t *testing.T) {
		store := newMemStore()
		seed(store)
		resolver := NewIdentityResolver(tokens, newMemCache(), store, 600*time.Second)

		token, err := tokens.IssueAccessToken("alice")
		require.NoError(t, err)

		first, err := resolver.Resolve(context.Background(), token)
		require.NoError(t, err)
		second, err := resolver.Resolve(context.Background(), token)
		require.NoError(t, err)

		require.Equal(t, first, second)
		require.Equal(t, 1, store.usernameLookups())
	})

	t.Run("cache entries are keyed by token, not subject", func(t *testing.T) {
		store := newMemStore()
		seed(store)
		resolver := NewIdentityResolver(tokens, newMemCache(), store, 600*time.Second)

		// Different TTLs force different exp claims, so the two tokens for
		// the same subject are distinct strings.
		longer := NewTokenService(testSecret, 2*time.Hour, 168*time.Hour, 168*time.Hour, time.Hour)
		first, err := tokens.IssueAccessToken("alice")
		require.NoError(t, err)
		second, err := longer.IssueAccessToken("alice")
		require.NoError(t, err)
		require.NotEqual(t, first, second)

		_, err = resolver.Resolve(context.Background(), first)
		require.NoError(t, err)
		_, err = resolver.Resolve(context.Background(), second)
		require.NoError(t, err)

		// Each outstanding token gets its own entry and its own store miss.
		require.Equal(t, 2, store.usernameLookups())
	})

	t.Run("expired cache entry falls back to the store", func(t *testing.T) {
		store := newMemStore()
		seed(store)
		resolver := NewIdentityResolver(tokens, newMemCache(), store, time.Millisecond)

		token, err := tokens.IssueAccessToken("alice")
		require.NoError(t, err)

		_, err = resolver.Resolve(context.Background(), token)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		_, err = resolver.Resolve(context.Background(), token)
		require.NoError(t, err)
		require.Equal(t, 2, store.usernameLookups())
	})

	t.Run("invalid token is unauthenticated", func(t *testing.T) {
		store := newMemStore()
		seed(store)
		resolver := NewIdentityResolver(tokens, newMemCache(), store, 600*time.Second)

		_, err := resolver.Resolve(context.Background(), "garbage")
		require.ErrorIs(t, err, model.ErrUnauthenticated)
		require.Equal(t, 0, store.usernameLookups())
	})

	t.Run("refresh token cannot be used as an access token", func(t *testing.T) {
		store := newMemStore()
		seed(store)
		resolver := NewIdentityResolver(tokens, newMemCache(), store, 600*time.Second)

		token, err := tokens.IssueRefreshToken("alice")
		require.NoError(t, err)

		_, err = resolver.Resolve(context.Background(), token)
		require.ErrorIs(t, err, model.ErrUnauthenticated)
	})

	t.Run("unknown subject is unauthenticated", func(t *testing.T) {
		resolver := NewIdentityResolver(tokens, newMemCache(), newMemStore(), 600*time.Second)

		token, err := tokens.IssueAccessToken("nobody")
		require.NoError(t, err)

		_, err = resolver.Resolve(context.Background(), token)
		require.ErrorIs(t, err, model.ErrUnauthenticated)
	})

	t.Run("snapshot never contains the password hash", func(t *testing.T) {
		store := newMemStore()
		seed(store)
		cache := newMemCache()
		resolver := NewIdentityResolver(tokens, cache, store, 600*time.Second)

		token, err := tokens.IssueAccessToken("alice")
		require.NoError(t, err)

		_, err = resolver.Resolve(context.Background(), token)
		require.NoError(t, err)

		cached, ok, err := cache.Get(context.Background(), snapshotKeyPrefix+token)
		require.NoError(t, err)
		require.True(t, ok)
		require.NotContains(t, cached, "irrelevant")
		require.NotContains(t, cached, "password")
	})
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	t.Run("matching role passes the identity through unchanged", func(t *testing.T) {
		admin := &model.PublicUser{ID: 1, Username: "root", Role: model.RoleAdmin}
		got, err := RequireRole(admin, model.RoleAdmin)
		require.NoError(t, err)
		require.Same(t, admin, got)
	})

	t.Run("role mismatch is forbidden", func(t *testing.T) {
		user := &model.PublicUser{ID: 2, Username: "alice", Role: model.RoleUser}
		_, err := RequireRole(user, model.RoleAdmin)
		require.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("nil identity is forbidden", func(t *testing.T) {
		_, err := RequireRole(nil, model.RoleAdmin)
		require.ErrorIs(t, err, model.ErrForbidden)
	})
}
