package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notekeeper/internal/config"
	"notekeeper/internal/notify"
	"notekeeper/internal/oauth"
	"notekeeper/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:            "test",
		AppPort:           ":0",
		ShutdownTimeout:   time.Second,
		LogLevel:          "error",
		LogFormat:         "json",
		DBDriver:          "sqlite",
		JWTSecret:         "test_jwt_secret_value",
		TokenTTL:          time.Hour,
		OTPTTL:            10 * time.Minute,
		ResendCooldown:    time.Minute,
		BcryptCost:        4,
		MailDriver:        "log",
		MailQueue:         "otp_mail_queue",
		GoogleAuthURL:     "https://accounts.google.com/o/oauth2/auth",
		GoogleTokenURL:    "https://oauth2.googleapis.com/token",
		GoogleUserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		FrontendURL:       "http://localhost:5173",
		CORSOrigins:       "http://localhost:5173",
		AuthRateLimit:     3,
	}
}

func setupServer(t *testing.T, cfg *config.Config) (*gorm.DB, serverDeps) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(context.Background(), "sqlite", dsn, zap.NewNop(), false)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	states, err := oauth.NewStateStore(time.Minute)
	require.NoError(t, err)
	t.Cleanup(states.Close)

	return db, serverDeps{
		cfg:      cfg,
		log:      zap.NewNop(),
		db:       db,
		notifier: notify.NewLogNotifier(zap.NewNop()),
		states:   states,
	}
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestHealth(t *testing.T) {
	db, deps := setupServer(t, testConfig())
	app := newServer(deps)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unhealthy", decode(t, resp)["status"])
}

func TestUnknownRouteIsJSON(t *testing.T) {
	_, deps := setupServer(t, testConfig())
	app := newServer(deps)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/nothing-here", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decode(t, resp)["error"])
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	_, deps := setupServer(t, testConfig())
	app := newServer(deps)

	var last *http.Response
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@x.com","password":"secret1"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		if i < 3 {
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		}
		last = resp
	}
	assert.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	assert.Equal(t, "rate_limited", decode(t, last)["error"])
}

func TestRateLimitDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRateLimit = 0
	assert.Nil(t, authLimiter(cfg.AuthRateLimit))
}

func TestOAuthStartWithoutProvider(t *testing.T) {
	_, deps := setupServer(t, testConfig())
	app := newServer(deps)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/auth/google", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestNewProvider(t *testing.T) {
	cfg := testConfig()
	provider, err := newProvider(cfg)
	require.NoError(t, err)
	assert.Nil(t, provider)

	cfg.GoogleClientID = "client"
	cfg.GoogleClientSecret = "secret"
	cfg.GoogleRedirectURL = "http://localhost:8080/api/v1/auth/google/callback"
	provider, err = newProvider(cfg)
	require.NoError(t, err)
	require.NotNil(t, provider)
	assert.Contains(t, provider.AuthCodeURL("abc"), "state=abc")
}

func TestNewNotifier(t *testing.T) {
	cfg := testConfig()

	n, mq, err := newNotifier(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, mq)
	assert.IsType(t, &notify.LogNotifier{}, n)

	cfg.MailDriver = "smtp"
	cfg.SMTPHost = "smtp.example.com"
	cfg.MailFrom = "noreply@example.com"
	n, mq, err = newNotifier(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, mq)
	assert.IsType(t, &notify.SMTPMailer{}, n)
}
