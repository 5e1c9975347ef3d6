package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"notekeeper/internal/models"
	"notekeeper/internal/repositories"
)

const otpDigits = 6

var otpUpperBound = big.NewInt(1_000_000)

// OTPService issues and checks the six-digit codes used to prove email ownership.
type OTPService struct {
	users repositories.UserRepository
	ttl   time.Duration
	now   func() time.Time
}

// NewOTPService creates an OTPService whose codes expire after ttl.
func NewOTPService(users repositories.UserRepository, ttl time.Duration) *OTPService {
	return &OTPService{users: users, ttl: ttl, now: time.Now}
}

// Issue generates a fresh code for user, replacing any pending one.
func (s *OTPService) Issue(ctx context.Context, user *models.User) (string, error) {
	code, err := generateOTP()
	if err != nil {
		return "", err
	}
	expiresAt := s.now().Add(s.ttl)
	if err := s.users.SetOTP(ctx, user.ID, code, expiresAt); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	user.OTPCode = code
	user.OTPExpiresAt = &expiresAt
	return code, nil
}

// Verify checks submitted against the pending code. A match before the
// deadline consumes the code and marks the email verified; anything else
// leaves the pending code untouched so the user can retry. The consume is
// conditional on the stored code, so user may be a stale copy.
func (s *OTPService) Verify(ctx context.Context, user *models.User, submitted string) (bool, error) {
	if !user.HasPendingOTP() {
		return false, nil
	}
	now := s.now()
	if !now.Before(*user.OTPExpiresAt) {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(user.OTPCode), []byte(submitted)) != 1 {
		return false, nil
	}
	consumed, err := s.users.ConsumeOTP(ctx, user.ID, submitted, now)
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	if !consumed {
		return false, nil
	}
	user.IsEmailVerified = true
	user.OTPCode = ""
	user.OTPExpiresAt = nil
	return true, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpUpperBound)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
