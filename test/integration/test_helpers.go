//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"go-contacts-api/internal/cache"
	"go-contacts-api/internal/config"
	"go-contacts-api/internal/database"
	"go-contacts-api/internal/handler"
	"go-contacts-api/internal/middleware"
	"go-contacts-api/internal/repository"
	"go-contacts-api/internal/router"
	"go-contacts-api/internal/service"
)

// capturingMailer keeps tokens in-process so the flow tests can follow the
// confirmation and reset links without a real SMTP server.
type capturingMailer struct {
	confirmations chan string
	resets        chan string
}

func newCapturingMailer() *capturingMailer {
	return &capturingMailer{
		confirmations: make(chan string, 8),
		resets:        make(chan string, 8),
	}
}

func (m *capturingMailer) SendConfirmation(_ context.Context, _, _, _, token string) error {
	m.confirmations <- token
	return nil
}

func (m *capturingMailer) SendPasswordReset(_ context.Context, _, _, _, token string) error {
	m.resets <- token
	return nil
}

type memObjectStorage struct{}

func (memObjectStorage) Store(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "https://storage.test/" + key, nil
}

func awaitToken(t *testing.T, ch chan string) string {
	t.Helper()

	select {
	case token := <-ch:
		return token
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for mail dispatch")
		return ""
	}
}

// newTestServer wires the full stack against real Postgres and Redis. Both
// must be provided through DATABASE_URL and REDIS_ADDR or the test skips.
func newTestServer(t *testing.T) (*httptest.Server, *capturingMailer) {
	t.Helper()

	databaseURL := os.Getenv("DATABASE_URL")
	redisAddr := os.Getenv("REDIS_ADDR")
	if databaseURL == "" || redisAddr == "" {
		t.Skip("integration tests require DATABASE_URL and REDIS_ADDR")
	}

	ctx := context.Background()

	db, err := database.New(ctx, databaseURL, 4, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.EnsureSchema(ctx))

	snapshots, err := cache.New(ctx, redisAddr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = snapshots.Close() })

	cfg := &config.Config{
		ServerPort:     "8080",
		RequestTimeout: 30 * time.Second,
		JWTSecret:      "integration-test-secret",
		JWTAccessTTL:   time.Hour,
		JWTRefreshTTL:  168 * time.Hour,
		ConfirmTTL:     168 * time.Hour,
		ResetTTL:       time.Hour,
		SnapshotTTL:    600 * time.Second,
		BcryptCost:     4,
		PublicBaseURL:  "http://localhost:8080",
		CORSOrigins:    []string{"*"},
		RateLimitRPM:   1000,
		AuthRateLimit:  1000,
		MeRateLimit:    1000,
	}

	userRepo := repository.NewUserRepository(db.Pool)
	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.ConfirmTTL, cfg.ResetTTL)
	mailer := newCapturingMailer()

	authService := service.NewAuthService(userRepo, hasher, tokens, mailer, cfg.PublicBaseURL)
	resolver := service.NewIdentityResolver(tokens, snapshots, userRepo, cfg.SnapshotTTL)
	avatarService := service.NewAvatarService(memObjectStorage{}, userRepo)

	authMiddleware := middleware.NewAuthMiddleware(resolver)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(avatarService)

	server := httptest.NewServer(router.New(cfg, authMiddleware, authHandler, userHandler))
	t.Cleanup(server.Close)
	return server, mailer
}

// uniqueName avoids collisions with rows left behind by earlier runs.
func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func getWithToken(t *testing.T, url string, accessToken string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeTokens(t *testing.T, resp *http.Response) (string, string) {
	t.Helper()

	var parsed struct {
		Success bool `json:"success"`
		Data    struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.True(t, parsed.Success)
	require.NotEmpty(t, parsed.Data.AccessToken)
	require.NotEmpty(t, parsed.Data.RefreshToken)
	return parsed.Data.AccessToken, parsed.Data.RefreshToken
}
