package config_test

import (
	"testing"
	"time"

	"notekeeper/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-very-long-test-secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 60*time.Second, cfg.ResendCooldown)
	assert.Equal(t, "log", cfg.MailDriver)
	assert.Equal(t, "http://localhost:5173", cfg.FrontendURL)
	assert.False(t, cfg.OAuthEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-very-long-test-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file:notes.db")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("FRONTEND_URL", "https://notes.example.com/")
	t.Setenv("GOOGLE_CLIENT_ID", "client")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("GOOGLE_REDIRECT_URL", "https://api.example.com/api/v1/auth/google/callback")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, "https://notes.example.com", cfg.FrontendURL)
	assert.True(t, cfg.OAuthEnabled())
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "a-very-long-test-secret")
	t.Setenv("MAIL_DRIVER", "smtp")
	_, err = config.Load()
	assert.Error(t, err, "smtp driver requires SMTP_HOST and MAIL_FROM")

	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("MAIL_FROM", "noreply@example.com")
	_, err = config.Load()
	assert.NoError(t, err)
}
