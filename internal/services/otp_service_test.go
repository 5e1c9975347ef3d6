package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"notekeeper/internal/models"
	"notekeeper/internal/repositories"
	"notekeeper/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newOTPFixture(t *testing.T) (*OTPService, repositories.UserRepository, *models.User) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(context.Background(), "sqlite", dsn, zap.NewNop(), false)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	users := repositories.NewGORMUserRepository(db)
	user := &models.User{Name: "Alice", Email: "a@x.com", PasswordHash: "hash"}
	require.NoError(t, users.Create(context.Background(), user))
	return NewOTPService(users, 10*time.Minute), users, user
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code %q must be numeric", code)
		}
	}
}

func TestOTPService_IssueReplacesPending(t *testing.T) {
	svc, users, user := newOTPFixture(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, user)
	require.NoError(t, err)
	second, err := svc.Issue(ctx, user)
	require.NoError(t, err)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, second, stored.OTPCode)
	require.NotNil(t, stored.OTPExpiresAt)

	if first != second {
		ok, err := svc.Verify(ctx, stored, first)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestOTPService_VerifyIsSingleUse(t *testing.T) {
	svc, users, user := newOTPFixture(t)
	ctx := context.Background()

	code, err := svc.Issue(ctx, user)
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, user, code)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, user.IsEmailVerified)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsEmailVerified)
	assert.False(t, stored.HasPendingOTP())

	ok, err = svc.Verify(ctx, stored, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOTPService_WrongCodeKeepsPending(t *testing.T) {
	svc, users, user := newOTPFixture(t)
	ctx := context.Background()

	code, err := svc.Issue(ctx, user)
	require.NoError(t, err)
	wrong := "000000"
	if code == wrong {
		wrong = "999999"
	}

	ok, err := svc.Verify(ctx, user, wrong)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsEmailVerified)
	assert.Equal(t, code, stored.OTPCode)

	ok, err = svc.Verify(ctx, stored, code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOTPService_Expiry(t *testing.T) {
	svc, _, user := newOTPFixture(t)
	ctx := context.Background()

	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }
	code, err := svc.Issue(ctx, user)
	require.NoError(t, err)

	// exactly at the deadline the code is already dead
	svc.now = func() time.Time { return issuedAt.Add(10 * time.Minute) }
	ok, err := svc.Verify(ctx, user, code)
	require.NoError(t, err)
	assert.False(t, ok)

	svc.now = func() time.Time { return issuedAt.Add(9 * time.Minute) }
	ok, err = svc.Verify(ctx, user, code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOTPService_ConcurrentVerifyAcceptsOnce(t *testing.T) {
	svc, users, user := newOTPFixture(t)
	ctx := context.Background()

	code, err := svc.Issue(ctx, user)
	require.NoError(t, err)

	// both requests loaded the user before either verified
	first, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	second, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, first, code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify(ctx, second, code)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, second.IsEmailVerified)
}

func TestOTPService_StaleCopyRejectsSupersededCode(t *testing.T) {
	svc, users, user := newOTPFixture(t)
	ctx := context.Background()

	old, err := svc.Issue(ctx, user)
	require.NoError(t, err)
	stale, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)

	// a resend lands between the load and the verify
	current := old
	for current == old {
		current, err = svc.Issue(ctx, user)
		require.NoError(t, err)
	}

	ok, err := svc.Verify(ctx, stale, old)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsEmailVerified)
	assert.Equal(t, current, stored.OTPCode)

	ok, err = svc.Verify(ctx, stored, current)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOTPService_ConsumeFailure(t *testing.T) {
	users := &failingConsumeRepo{}
	svc := NewOTPService(users, 10*time.Minute)
	expires := time.Now().Add(time.Minute)
	user := &models.User{ID: "u1", OTPCode: "123456", OTPExpiresAt: &expires}

	ok, err := svc.Verify(context.Background(), user, "123456")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, "123456", user.OTPCode)
}

type failingConsumeRepo struct {
	repositories.UserRepository
}

func (failingConsumeRepo) ConsumeOTP(context.Context, string, string, time.Time) (bool, error) {
	return false, fmt.Errorf("database is locked")
}
