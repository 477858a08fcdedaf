package service

import (
	"context"
	"time"

	"go-contacts-api/internal/model"
)

// UserStore is the source-of-truth user collaborator. Implemented by
// repository.UserRepository; uniqueness on username and email is enforced
// there and surfaces as model.ErrUsernameTaken / model.ErrEmailTaken.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	SetConfirmed(ctx context.Context, email string) error
	SetPasswordHash(ctx context.Context, email string, passwordHash string) error
	SetAvatar(ctx context.Context, email string, avatarURL string) (model.User, error)
}

// SnapshotCache is the identity cache backend: TTL key-value semantics,
// silent overwrite, expiry is the only eviction.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// MailSender delivers templated messages. Callers treat it as
// fire-and-forget: the contract ends at "dispatch requested".
type MailSender interface {
	SendConfirmation(ctx context.Context, email string, username string, host string, token string) error
	SendPasswordReset(ctx context.Context, email string, username string, host string, token string) error
}

// AvatarStorage stores a processed avatar and returns its public URL.
type AvatarStorage interface {
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
