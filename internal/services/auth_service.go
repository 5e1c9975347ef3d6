package services

import (
	"context"
	"errors"
	"strings"

	"notekeeper/internal/models"
	"notekeeper/pkg/apperr"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Notifier delivers one-time codes to users.
type Notifier interface {
	SendOTP(ctx context.Context, email, name, code string) error
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72,bcryptmax"`
}

// VerifyOTPInput is the body of a code verification request.
type VerifyOTPInput struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// ResendOTPInput is the body of a code resend request.
type ResendOTPInput struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginInput is the body of a password login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned whenever a session token is issued.
type AuthResult struct {
	Token string
	User  *models.User
}

// AuthService handles registration, verification, login and token resolution.
type AuthService struct {
	credentials *CredentialStore
	otp         *OTPService
	tokens      *TokenService
	notifier    Notifier
	throttle    *ResendThrottle
	validate    *validator.Validate
	log         *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(credentials *CredentialStore, otp *OTPService, tokens *TokenService, notifier Notifier, throttle *ResendThrottle, log *zap.Logger) *AuthService {
	return &AuthService{
		credentials: credentials,
		otp:         otp,
		tokens:      tokens,
		notifier:    notifier,
		throttle:    throttle,
		validate:    newValidator(),
		log:         log,
	}
}

// Register creates an unverified user and sends them a code. When only the
// notification fails the user is returned together with a notify_failed
// error; the account stays and the code can be resent.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	user, err := s.credentials.CreateUser(ctx, in.Name, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	code, err := s.otp.Issue(ctx, user)
	if err != nil {
		s.log.Error("issue otp failed", zap.String("user_id", user.ID), zap.Error(err))
		return user, apperr.Wrap(err, apperr.KindNotifyFailed, "User created but failed to send verification email")
	}
	if err := s.notifier.SendOTP(ctx, user.Email, user.Name, code); err != nil {
		s.log.Warn("verification email failed", zap.String("user_id", user.ID), zap.Error(err))
		return user, apperr.Wrap(err, apperr.KindNotifyFailed, "User created but failed to send verification email")
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// VerifyOTP consumes a pending code and issues a session token.
func (s *AuthService) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*AuthResult, error) {
	in.Email = NormalizeEmail(in.Email)
	in.OTP = strings.TrimSpace(in.OTP)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	user, err := s.credentials.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}

	ok, err := s.otp.Verify(ctx, user, in.OTP)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.New(apperr.KindInvalidCode, "Invalid or expired OTP")
	}
	return s.issue(user)
}

// ResendOTP issues a new code for an existing user, whatever their state,
// at most once per cooldown window per email.
func (s *AuthService) ResendOTP(ctx context.Context, in ResendOTPInput) error {
	in.Email = NormalizeEmail(in.Email)
	if err := validateStruct(s.validate, in); err != nil {
		return err
	}

	user, err := s.credentials.FindByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if !s.throttle.Allow(user.Email) {
		return apperr.New(apperr.KindRateLimited, "Please wait before requesting another code")
	}

	code, err := s.otp.Issue(ctx, user)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.notifier.SendOTP(ctx, user.Email, user.Name, code); err != nil {
		s.log.Warn("resend otp email failed", zap.String("user_id", user.ID), zap.Error(err))
		return apperr.Wrap(err, apperr.KindNotifyFailed, "Failed to send OTP")
	}
	return nil
}

// Login checks a password and issues a token. Unknown emails and wrong
// passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	invalid := apperr.New(apperr.KindInvalidCredentials, "Invalid credentials")
	user, err := s.credentials.FindByEmail(ctx, in.Email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if !s.credentials.VerifyPassword(user, in.Password) {
		return nil, invalid
	}
	if !user.IsEmailVerified {
		return nil, apperr.New(apperr.KindNotVerified, "Please verify your email first")
	}
	return s.issue(user)
}

// OAuthLogin finds or creates the user for a provider-verified identity and
// issues a token. Lookup order is provider subject, then email.
func (s *AuthService) OAuthLogin(ctx context.Context, identity models.OAuthIdentity) (*AuthResult, error) {
	if identity.Subject == "" || identity.Email == "" {
		return nil, apperr.Validation(map[string]string{"identity": "provider returned an incomplete profile"})
	}

	user, err := s.credentials.FindByOAuthID(ctx, identity.Subject)
	if err == nil {
		return s.issue(user)
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	user, err = s.credentials.FindByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if !identity.EmailVerified {
			return nil, apperr.New(apperr.KindDuplicateEmail, "User already exists with this email")
		}
		if err := s.credentials.LinkOAuth(ctx, user, identity); err != nil {
			return nil, err
		}
		s.log.Info("oauth identity linked", zap.String("user_id", user.ID))
	case apperr.Is(err, apperr.KindNotFound):
		user, err = s.credentials.CreateOAuthUser(ctx, identity)
		if err != nil {
			return nil, err
		}
		s.log.Info("user registered via oauth", zap.String("user_id", user.ID))
	default:
		return nil, err
	}
	return s.issue(user)
}

// ResolveToken maps a bearer token to the caller's user id.
func (s *AuthService) ResolveToken(token string) (string, error) {
	if token == "" {
		return "", apperr.New(apperr.KindUnauthenticated, "Access token required")
	}
	userID, err := s.tokens.Verify(token)
	if err != nil {
		if !errors.Is(err, ErrInvalidToken) {
			s.log.Error("token verification failed", zap.Error(err))
		}
		return "", apperr.Wrap(err, apperr.KindUnauthenticated, "Invalid or expired token")
	}
	return userID, nil
}

// CurrentUser loads the profile of an authenticated caller.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return s.credentials.FindByID(ctx, userID)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
