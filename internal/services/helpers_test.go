package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"notekeeper/internal/repositories"
	"notekeeper/internal/services"
	"notekeeper/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var errSMTPDown = errors.New("smtp: connection refused")

// recordingNotifier remembers the last code sent to each address.
type recordingNotifier struct {
	mu    sync.Mutex
	codes map[string]string
	sent  int
	err   error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{codes: make(map[string]string)}
}

func (n *recordingNotifier) SendOTP(_ context.Context, email, _ string, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.codes[email] = code
	n.sent++
	return nil
}

func (n *recordingNotifier) lastCode(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[email]
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(context.Background(), "sqlite", dsn, zap.NewNop(), false)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type authFixture struct {
	auth     *services.AuthService
	tokens   *services.TokenService
	users    repositories.UserRepository
	notifier *recordingNotifier
}

func newAuthFixture(t *testing.T, users repositories.UserRepository, cooldown time.Duration) *authFixture {
	t.Helper()
	notifier := newRecordingNotifier()
	tokens := services.NewTokenService("test_jwt_secret_value", 7*24*time.Hour)
	auth := services.NewAuthService(
		services.NewCredentialStore(users, bcrypt.MinCost),
		services.NewOTPService(users, 10*time.Minute),
		tokens,
		notifier,
		services.NewResendThrottle(cooldown),
		zap.NewNop(),
	)
	return &authFixture{auth: auth, tokens: tokens, users: users, notifier: notifier}
}
