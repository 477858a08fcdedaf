package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-contacts-api/internal/model"
)

const testSecret = "test-secret-please-rotate"

func newTestTokenService() *TokenService {
	return NewTokenService(testSecret, time.Hour, 168*time.Hour, 168*time.Hour, time.Hour)
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tokens := newTestTokenService()

	t.Run("access token decodes to the issued claims", func(t *testing.T) {
		token, err := tokens.IssueAccessToken("alice")
		require.NoError(t, err)

		claims, err := tokens.Decode(token, TokenTypeAccess)
		require.NoError(t, err)
		require.Equal(t, "alice", claims.Subject)
		require.Equal(t, TokenTypeAccess, claims.Type)
		require.Empty(t, claims.Purpose)
	})

	t.Run("refresh tokens carry a unique nonce", func(t *testing.T) {
		first, err := tokens.IssueRefreshToken("alice")
		require.NoError(t, err)
		second, err := tokens.IssueRefreshToken("alice")
		require.NoError(t, err)
		require.NotEqual(t, first, second)

		firstClaims, err := tokens.Decode(first, TokenTypeRefresh)
		require.NoError(t, err)
		secondClaims, err := tokens.Decode(second, TokenTypeRefresh)
		require.NoError(t, err)
		require.NotEmpty(t, firstClaims.ID)
		require.NotEqual(t, firstClaims.ID, secondClaims.ID)
	})
}

func TestTokenDecodeFailures(t *testing.T) {
	t.Parallel()

	tokens := newTestTokenService()

	t.Run("expired token is invalid", func(t *testing.T) {
		expired := NewTokenService(testSecret, -time.Second, -time.Second, -time.Second, -time.Second)
		token, err := expired.IssueAccessToken("alice")
		require.NoError(t, err)

		_, err = tokens.Decode(token, TokenTypeAccess)
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("wrong secret is invalid", func(t *testing.T) {
		other := NewTokenService("another-secret", time.Hour, time.Hour, time.Hour, time.Hour)
		token, err := other.IssueAccessToken("alice")
		require.NoError(t, err)

		_, err = tokens.Decode(token, TokenTypeAccess)
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("malformed token is invalid", func(t *testing.T) {
		_, err := tokens.Decode("definitely.not.a-jwt", TokenTypeAccess)
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("access token rejected where refresh expected", func(t *testing.T) {
		token, err := tokens.IssueAccessToken("alice")
		require.NoError(t, err)

		_, err = tokens.Decode(token, TokenTypeRefresh)
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("refresh token rejected where access expected", func(t *testing.T) {
		token, err := tokens.IssueRefreshToken("alice")
		require.NoError(t, err)

		_, err = tokens.Decode(token, TokenTypeAccess)
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})
}

func TestSinglePurposeTokens(t *testing.T) {
	t.Parallel()

	tokens := newTestTokenService()

	t.Run("confirmation token yields its subject", func(t *testing.T) {
		token, err := tokens.IssueConfirmationToken("alice@example.com")
		require.NoError(t, err)

		email, err := tokens.ExtractSubject(token, PurposeEmailConfirm)
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", email)
	})

	t.Run("confirmation token cannot be replayed against reset", func(t *testing.T) {
		token, err := tokens.IssueConfirmationToken("alice@example.com")
		require.NoError(t, err)

		_, err = tokens.ExtractSubject(token, PurposePasswordReset)
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("reset token cannot be replayed against confirmation", func(t *testing.T) {
		token, err := tokens.IssueResetToken("alice@example.com")
		require.NoError(t, err)

		_, err = tokens.ExtractSubject(token, PurposeEmailConfirm)
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})

	t.Run("access token is not a single-purpose token", func(t *testing.T) {
		token, err := tokens.IssueAccessToken("alice")
		require.NoError(t, err)

		_, err = tokens.ExtractSubject(token, PurposeEmailConfirm)
		require.ErrorIs(t, err, model.ErrInvalidToken)
	})
}
