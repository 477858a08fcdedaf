package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"go-contacts-api/internal/model"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	PurposeEmailConfirm  = "email_confirm"
	PurposePasswordReset = "password_reset"
)

// Claims is the signed token payload. General-access tokens carry a type
// discriminator; single-purpose tokens carry a purpose discriminator so a
// confirmation token cannot be replayed against the reset endpoint.
type Claims struct {
	Type    string `json:"type,omitempty"`
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and decodes HS256-signed tokens. All decode failures
// (signature, structure, expiry, wrong type or purpose) collapse to
// model.ErrInvalidToken so callers cannot branch on why decoding failed.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	confirmTTL time.Duration
	resetTTL   time.Duration
}

func NewTokenService(secret string, accessTTL, refreshTTL, confirmTTL, resetTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		confirmTTL: confirmTTL,
		resetTTL:   resetTTL,
	}
}

func (s *TokenService) IssueAccessToken(username string) (string, error) {
	now := time.Now().UTC()
	return s.sign(Claims{
		Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	})
}

// IssueRefreshToken mints a long-lived refresh token with a random jti so
// two refresh tokens for the same subject never collide.
func (s *TokenService) IssueRefreshToken(username string) (string, error) {
	now := time.Now().UTC()
	return s.sign(Claims{
		Type: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	})
}

func (s *TokenService) IssueConfirmationToken(email string) (string, error) {
	now := time.Now().UTC()
	return s.sign(Claims{
		Purpose: PurposeEmailConfirm,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.confirmTTL)),
		},
	})
}

func (s *TokenService) IssueResetToken(email string) (string, error) {
	now := time.Now().UTC()
	return s.sign(Claims{
		Purpose: PurposePasswordReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.resetTTL)),
		},
	})
}

func (s *TokenService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry and, when expectedType is
// non-empty, rejects tokens of any other type.
func (s *TokenService) Decode(tokenString string, expectedType string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, model.ErrInvalidToken
	}

	if expectedType != "" && claims.Type != expectedType {
		return nil, model.ErrInvalidToken
	}

	return claims, nil
}

// ExtractSubject decodes a single-purpose token and returns its subject.
// The purpose must match; a confirmation token presented where a reset
// token is expected is invalid even with a valid signature.
func (s *TokenService) ExtractSubject(tokenString string, purpose string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", model.ErrInvalidToken
	}

	if claims.Purpose != purpose || claims.Subject == "" {
		return "", model.ErrInvalidToken
	}

	return claims.Subject, nil
}

func (s *TokenService) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, model.ErrInvalidToken
	}

	return claims, nil
}
