package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notekeeper/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database. A second user with the same
// email or OAuth id is rejected with ErrDuplicate.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("user with email %s: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by their normalized email.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByID retrieves a user by their ID.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByOAuthID retrieves a user by the external provider subject.
func (r *GORMUserRepository) GetByOAuthID(ctx context.Context, oauthID string) (*models.User, error) {
	return r.first(ctx, "oauth_id = ?", oauthID)
}

func (r *GORMUserRepository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user where %s %v: %w", query, arg, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// SetOTP stores a new pending code, overwriting any previous one.
func (r *GORMUserRepository) SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	return r.update(ctx, id, map[string]any{
		"otp_code":       code,
		"otp_expires_at": expiresAt,
	})
}

// ConsumeOTP sets the verified flag and clears the pending code in a single
// conditional write, so concurrent or superseded verifications cannot both win.
func (r *GORMUserRepository) ConsumeOTP(ctx context.Context, id, code string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND otp_code = ? AND otp_expires_at > ?", id, code, now).
		Updates(map[string]any{
			"is_email_verified": true,
			"otp_code":          "",
			"otp_expires_at":    nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to consume otp for user %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// LinkOAuth attaches a provider identity. Linking implies the provider has
// vouched for the email, so the account is marked verified as well.
func (r *GORMUserRepository) LinkOAuth(ctx context.Context, id, oauthID, avatar string) error {
	fields := map[string]any{
		"oauth_id":          oauthID,
		"is_email_verified": true,
	}
	if avatar != "" {
		fields["avatar"] = avatar
	}
	err := r.update(ctx, id, fields)
	if err != nil && isDuplicateKey(err) {
		return fmt.Errorf("oauth id %s already linked: %w", oauthID, ErrDuplicate)
	}
	return err
}

func (r *GORMUserRepository) update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// isDuplicateKey recognizes unique violations whether or not the dialector
// translates them into gorm.ErrDuplicatedKey.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
