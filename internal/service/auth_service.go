package service

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go-contacts-api/internal/model"
	"go-contacts-api/pkg/apierror"
)

const mailDispatchTimeout = 30 * time.Second

// AuthService orchestrates registration, login, refresh, email confirmation
// and password reset on top of the hasher, token codec and user store.
type AuthService struct {
	store   UserStore
	hasher  *PasswordHasher
	tokens  *TokenService
	mail    MailSender
	baseURL string
}

func NewAuthService(store UserStore, hasher *PasswordHasher, tokens *TokenService, mail MailSender, baseURL string) *AuthService {
	return &AuthService{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		mail:    mail,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Register creates an unconfirmed user and requests a confirmation email.
// Duplicate email and username are checked up front; the store's unique
// indexes still back this up under a registration race.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.PublicUser, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if username == "" || email == "" || req.Password == "" {
		return nil, apierror.New("BAD_REQUEST", "username, email and password are required", "", http.StatusBadRequest)
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, model.ErrEmailTaken
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	if _, err := s.store.FindByUsername(ctx, username); err == nil {
		return nil, model.ErrUsernameTaken
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	avatar := gravatarURL(email)
	user, err := s.store.Create(ctx, model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Confirmed:    false,
		Role:         model.RoleUser,
		Avatar:       &avatar,
	})
	if err != nil {
		return nil, err
	}

	s.requestConfirmationMail(user)

	snap := user.Public()
	return &snap, nil
}

// Login verifies credentials and issues a fresh token pair. Unknown user
// and wrong password produce the identical failure so usernames cannot be
// enumerated.
func (s *AuthService) Login(ctx context.Context, username string, password string) (model.TokenPair, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.TokenPair{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	if !user.Confirmed {
		return model.TokenPair{}, model.ErrEmailUnconfirmed
	}

	return s.issueTokenPair(user.Username)
}

// Refresh exchanges a valid refresh token for a brand-new pair bound to the
// same subject. Rotation is stateless: the old refresh token stays usable
// until its own expiry, an accepted trade-off for keeping the core free of
// a revocation list.
func (s *AuthService) Refresh(_ context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.tokens.Decode(refreshToken, TokenTypeRefresh)
	if err != nil {
		return model.TokenPair{}, model.ErrInvalidToken
	}

	if claims.Subject == "" {
		return model.TokenPair{}, model.ErrInvalidToken
	}

	return s.issueTokenPair(claims.Subject)
}

// ConfirmEmail marks the token's subject as confirmed. Confirming an
// already-confirmed address is a no-op success; the returned flag lets the
// handler pick the right message.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (alreadyConfirmed bool, err error) {
	email, err := s.tokens.ExtractSubject(token, PurposeEmailConfirm)
	if err != nil {
		return false, model.ErrInvalidToken
	}

	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return false, model.ErrInvalidToken
	}
	if err != nil {
		return false, err
	}

	if user.Confirmed {
		return true, nil
	}

	return false, s.store.SetConfirmed(ctx, email)
}

// RequestConfirmation re-sends the confirmation email for an unconfirmed
// address.
func (s *AuthService) RequestConfirmation(ctx context.Context, email string) (alreadyConfirmed bool, err error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}

	if user.Confirmed {
		return true, nil
	}

	s.requestConfirmationMail(user)
	return false, nil
}

// ForgotPassword requests a password reset email for a known address.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.tokens.IssueResetToken(user.Email)
	if err != nil {
		return err
	}

	s.dispatch("password_reset", user.Email, func(ctx context.Context) error {
		return s.mail.SendPasswordReset(ctx, user.Email, user.Username, s.baseURL, token)
	})

	return nil
}

// ResetPassword sets a new password for the reset token's subject.
func (s *AuthService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	email, err := s.tokens.ExtractSubject(token, PurposePasswordReset)
	if err != nil {
		return model.ErrInvalidToken
	}

	if _, err := s.store.FindByEmail(ctx, email); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	return s.store.SetPasswordHash(ctx, email, hash)
}

func (s *AuthService) issueTokenPair(username string) (model.TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(username)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := s.tokens.IssueRefreshToken(username)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tokens.accessTTL.Seconds()),
	}, nil
}

func (s *AuthService) requestConfirmationMail(user model.User) {
	token, err := s.tokens.IssueConfirmationToken(user.Email)
	if err != nil {
		slog.Error("issue confirmation token failed", "email", user.Email, "error", err)
		return
	}

	s.dispatch("confirmation", user.Email, func(ctx context.Context) error {
		return s.mail.SendConfirmation(ctx, user.Email, user.Username, s.baseURL, token)
	})
}

// dispatch runs a mail send in the background on a detached, bounded
// context: cancelling the originating request must not cancel a send that
// was already requested, and delivery failures are logged, never returned.
func (s *AuthService) dispatch(kind string, email string, send func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailDispatchTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			slog.Error("email dispatch failed", "kind", kind, "email", email, "error", err)
		}
	}()
}

// gravatarURL derives a deterministic avatar source from the email. This is
// best-effort decoration; registration never fails because of it.
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=250&d=identicon", sum)
}
