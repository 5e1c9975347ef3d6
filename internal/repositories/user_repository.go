package repositories

import (
	"context"
	"time"

	"notekeeper/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByOAuthID(ctx context.Context, oauthID string) (*models.User, error)
	// SetOTP replaces any pending code for the user.
	SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error
	// ConsumeOTP verifies the email and clears the pending code only if code
	// is still the pending one and unexpired at now. It reports whether it did.
	ConsumeOTP(ctx context.Context, id, code string, now time.Time) (bool, error)
	// LinkOAuth attaches an external identity to an existing user.
	LinkOAuth(ctx context.Context, id, oauthID, avatar string) error
}
