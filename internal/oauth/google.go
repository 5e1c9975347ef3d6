// Package oauth implements the Google authorization code flow used for
// social login.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"notekeeper/internal/models"

	"golang.org/x/oauth2"
)

// ErrNotConfigured is returned when no client credentials were supplied.
var ErrNotConfigured = errors.New("oauth provider is not configured")

// Provider turns an authorization code into a verified identity.
type Provider interface {
	AuthCodeURL(state string) string
	Identify(ctx context.Context, code string) (models.OAuthIdentity, error)
}

// GoogleConfig holds the client credentials and endpoints.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
}

// GoogleProvider implements Provider against Google's OAuth 2.0 endpoints.
type GoogleProvider struct {
	cfg         *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewGoogleProvider creates a GoogleProvider. A nil client gets a default
// one with a timeout.
func NewGoogleProvider(cfg GoogleConfig, client *http.Client) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNotConfigured
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  client,
	}, nil
}

// AuthCodeURL returns the consent page URL carrying state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Identify exchanges code for a token and loads the user's profile.
func (p *GoogleProvider) Identify(ctx context.Context, code string) (models.OAuthIdentity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return models.OAuthIdentity{}, fmt.Errorf("token exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return models.OAuthIdentity{}, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.cfg.Client(ctx, token).Do(req)
	if err != nil {
		return models.OAuthIdentity{}, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.OAuthIdentity{}, fmt.Errorf("read userinfo: %w", err)
	}
	if resp.StatusCode >= 300 {
		return models.OAuthIdentity{}, fmt.Errorf("userinfo failed: status=%d", resp.StatusCode)
	}
	return parseUserInfo(body)
}

func parseUserInfo(body []byte) (models.OAuthIdentity, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.OAuthIdentity{}, fmt.Errorf("decode userinfo: %w", err)
	}

	identity := models.OAuthIdentity{
		Subject:       stringValue(raw["sub"]),
		Email:         stringValue(raw["email"]),
		EmailVerified: boolValue(raw["email_verified"]),
		Name:          stringValue(raw["name"]),
		AvatarURL:     stringValue(raw["picture"]),
	}
	if identity.Subject == "" || identity.Email == "" {
		return models.OAuthIdentity{}, errors.New("userinfo is missing subject or email")
	}
	return identity, nil
}

func stringValue(input any) string {
	switch v := input.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// boolValue accepts both JSON booleans and the "true"/"false" strings some
// providers send.
func boolValue(input any) bool {
	switch v := input.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}
