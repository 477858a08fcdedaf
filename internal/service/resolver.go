package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go-contacts-api/internal/model"
)

const snapshotKeyPrefix = "user:"

// IdentityResolver turns a bearer access token into an authoritative user
// identity. The cache is keyed by the raw token string, so each outstanding
// token gets its own entry; expired tokens simply stop being presented and
// their entries age out on TTL. Role and confirmation changes may lag by up
// to the snapshot TTL for a token that is already cached.
type IdentityResolver struct {
	tokens *TokenService
	cache  SnapshotCache
	store  UserStore
	ttl    time.Duration
}

func NewIdentityResolver(tokens *TokenService, cache SnapshotCache, store UserStore, snapshotTTL time.Duration) *IdentityResolver {
	return &IdentityResolver{tokens: tokens, cache: cache, store: store, ttl: snapshotTTL}
}

// Resolve verifies the access token, then consults the cache and falls back
// to the user store, populating the cache on a miss. Any token failure or
// unknown subject collapses to model.ErrUnauthenticated; store I/O failures
// propagate so the caller can retry.
func (r *IdentityResolver) Resolve(ctx context.Context, accessToken string) (*model.PublicUser, error) {
	claims, err := r.tokens.Decode(accessToken, TokenTypeAccess)
	if err != nil {
		return nil, model.ErrUnauthenticated
	}

	username := claims.Subject
	if username == "" {
		return nil, model.ErrUnauthenticated
	}

	key := snapshotKeyPrefix + accessToken
	cached, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		// A broken cache must not block the request; treat as a miss.
		slog.Warn("snapshot cache read failed", "error", err)
	} else if ok {
		var snap model.PublicUser
		if unmarshalErr := json.Unmarshal([]byte(cached), &snap); unmarshalErr == nil {
			return &snap, nil
		}
		slog.Warn("discarding undecodable snapshot", "key_prefix", snapshotKeyPrefix)
	}

	user, err := r.store.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	snap := user.Public()
	if data, marshalErr := json.Marshal(snap); marshalErr == nil {
		// Concurrent misses for the same token both derive the same
		// snapshot, so last write wins and no locking is needed.
		if setErr := r.cache.Set(ctx, key, string(data), r.ttl); setErr != nil {
			slog.Warn("snapshot cache write failed", "error", setErr)
		}
	}

	return &snap, nil
}
