package services

import (
	"context"
	"errors"
	"strings"

	"notekeeper/internal/models"
	"notekeeper/internal/repositories"
	"notekeeper/pkg/apperr"

	"golang.org/x/crypto/bcrypt"
)

// NormalizeEmail trims and lower-cases an email so it can be used as a login key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CredentialStore persists users and checks their passwords. Raw secrets
// only ever pass through bcrypt.
type CredentialStore struct {
	users repositories.UserRepository
	cost  int
}

// NewCredentialStore creates a CredentialStore hashing with the given bcrypt cost.
func NewCredentialStore(users repositories.UserRepository, cost int) *CredentialStore {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialStore{users: users, cost: cost}
}

// CreateUser hashes the password and stores a new, unverified user.
func (s *CredentialStore) CreateUser(ctx context.Context, name, email, rawPassword string) (*models.User, error) {
	email = NormalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.New(apperr.KindDuplicateEmail, "User already exists with this email")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), s.cost)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to hash password")
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, translateCreateErr(err)
	}
	return user, nil
}

// CreateOAuthUser stores a verified, password-less user for an external identity.
func (s *CredentialStore) CreateOAuthUser(ctx context.Context, identity models.OAuthIdentity) (*models.User, error) {
	subject := identity.Subject
	email := NormalizeEmail(identity.Email)
	user := &models.User{
		Name:            displayName(identity.Name, email),
		Email:           email,
		IsEmailVerified: true,
		Avatar:          identity.AvatarURL,
		OAuthID:         &subject,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, translateCreateErr(err)
	}
	return user, nil
}

// FindByEmail looks a user up by normalized email.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	return user, translateLookupErr(err)
}

// FindByID looks a user up by id.
func (s *CredentialStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	return user, translateLookupErr(err)
}

// FindByOAuthID looks a user up by provider subject.
func (s *CredentialStore) FindByOAuthID(ctx context.Context, oauthID string) (*models.User, error) {
	user, err := s.users.GetByOAuthID(ctx, oauthID)
	return user, translateLookupErr(err)
}

// LinkOAuth attaches a provider identity to an existing account.
func (s *CredentialStore) LinkOAuth(ctx context.Context, user *models.User, identity models.OAuthIdentity) error {
	if err := s.users.LinkOAuth(ctx, user.ID, identity.Subject, identity.AvatarURL); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return apperr.Wrap(err, apperr.KindDuplicateEmail, "Account is already linked to another identity")
		}
		return translateLookupErr(err)
	}
	subject := identity.Subject
	user.OAuthID = &subject
	user.IsEmailVerified = true
	if identity.AvatarURL != "" {
		user.Avatar = identity.AvatarURL
	}
	return nil
}

// VerifyPassword reports whether rawPassword matches the stored hash.
// Accounts without a password never match.
func (s *CredentialStore) VerifyPassword(user *models.User, rawPassword string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(rawPassword)) == nil
}

func translateCreateErr(err error) error {
	if errors.Is(err, repositories.ErrDuplicate) {
		return apperr.Wrap(err, apperr.KindDuplicateEmail, "User already exists with this email")
	}
	return apperr.Internal(err)
}

func translateLookupErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.Wrap(err, apperr.KindNotFound, "User not found")
	}
	return apperr.Internal(err)
}

func displayName(name, email string) string {
	name = strings.TrimSpace(name)
	if len([]rune(name)) >= 2 {
		return name
	}
	if local, _, ok := strings.Cut(email, "@"); ok && len(local) >= 2 {
		return local
	}
	return email
}
