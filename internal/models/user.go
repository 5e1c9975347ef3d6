package models

import "time"

// User represents an account holder.
type User struct {
	ID              string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name            string     `json:"name" gorm:"type:varchar(100);not null"`
	Email           string     `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	PasswordHash    string     `json:"-" gorm:"type:varchar(255)"` // empty for accounts created through OAuth
	IsEmailVerified bool       `json:"is_email_verified" gorm:"not null;default:false"`
	OTPCode         string     `json:"-" gorm:"column:otp_code;type:varchar(6)"`
	OTPExpiresAt    *time.Time `json:"-" gorm:"column:otp_expires_at"`
	Avatar          string     `json:"avatar,omitempty" gorm:"type:varchar(1024)"`
	OAuthID         *string    `json:"-" gorm:"column:oauth_id;uniqueIndex;type:varchar(255)"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HasPendingOTP reports whether a one-time code is awaiting verification.
func (u *User) HasPendingOTP() bool {
	return u.OTPCode != "" && u.OTPExpiresAt != nil
}
