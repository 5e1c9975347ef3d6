package handlers

import (
	"net/url"

	"notekeeper/internal/middleware"
	"notekeeper/internal/models"
	"notekeeper/internal/oauth"
	"notekeeper/internal/services"
	"notekeeper/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserView is the public part of a user returned alongside a token.
type UserView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

func newUserView(u *models.User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	provider    oauth.Provider
	states      *oauth.StateStore
	frontendURL string
	log         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. provider may be nil when social
// login is not configured.
func NewAuthHandler(authService *services.AuthService, provider oauth.Provider, states *oauth.StateStore, frontendURL string, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		provider:    provider,
		states:      states,
		frontendURL: frontendURL,
		log:         log,
	}
}

// RegisterRoutes registers the authentication routes. limiter guards the
// public credential endpoints and may be nil.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, limiter fiber.Handler) {
	authRoutes := router.Group("/auth")

	limited := func(handler fiber.Handler) []fiber.Handler {
		if limiter == nil {
			return []fiber.Handler{handler}
		}
		return []fiber.Handler{limiter, handler}
	}
	authRoutes.Post("/register", limited(h.HandleRegister)...)
	authRoutes.Post("/verify-otp", limited(h.HandleVerifyOTP)...)
	authRoutes.Post("/resend-otp", limited(h.HandleResendOTP)...)
	authRoutes.Post("/login", limited(h.HandleLogin)...)
	authRoutes.Get("/google", h.HandleGoogleStart)
	authRoutes.Get("/google/callback", h.HandleGoogleCallback)
	authRoutes.Get("/me", middleware.AuthRequired(h.authService), h.HandleMe)
}

// HandleRegister creates an unverified account and sends the first code.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		status, body := errorBody(h.log, c, err)
		if user != nil {
			body["user_id"] = user.ID
		}
		return c.Status(status).JSON(body)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully. Please check your email for the OTP.",
		"user_id": user.ID,
	})
}

// HandleVerifyOTP verifies the emailed code and signs the user in.
func (h *AuthHandler) HandleVerifyOTP(c *fiber.Ctx) error {
	var req services.VerifyOTPInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	res, err := h.authService.VerifyOTP(c.UserContext(), req)
	if err != nil {
		return writeError(h.log, c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Email verified successfully",
		"token":   res.Token,
		"user":    newUserView(res.User),
	})
}

// HandleResendOTP issues a new code.
func (h *AuthHandler) HandleResendOTP(c *fiber.Ctx) error {
	var req services.ResendOTPInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.authService.ResendOTP(c.UserContext(), req); err != nil {
		return writeError(h.log, c, err)
	}
	return c.JSON(fiber.Map{"message": "OTP sent successfully"})
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req services.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	res, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return writeError(h.log, c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   res.Token,
		"user":    newUserView(res.User),
	})
}

// HandleMe returns the authenticated user's profile.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.authService.CurrentUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return writeError(h.log, c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// HandleGoogleStart redirects to the provider's consent page.
func (h *AuthHandler) HandleGoogleStart(c *fiber.Ctx) error {
	if h.provider == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Google sign-in is not configured",
			"error":   string(apperr.KindInternal),
		})
	}

	state, err := h.states.New()
	if err != nil {
		return writeError(h.log, c, apperr.Internal(err))
	}
	return c.Redirect(h.provider.AuthCodeURL(state), fiber.StatusFound)
}

// HandleGoogleCallback completes the provider flow and hands the token to
// the frontend. Every failure lands on the login page.
func (h *AuthHandler) HandleGoogleCallback(c *fiber.Ctx) error {
	failed := h.frontendURL + "/login?error=oauth_failed"

	if h.provider == nil {
		return c.Redirect(failed, fiber.StatusFound)
	}
	if !h.states.Consume(c.Query("state")) {
		h.log.Warn("oauth callback with unknown state")
		return c.Redirect(failed, fiber.StatusFound)
	}
	if providerErr := c.Query("error"); providerErr != "" {
		h.log.Info("oauth consent denied", zap.String("error", providerErr))
		return c.Redirect(failed, fiber.StatusFound)
	}
	code := c.Query("code")
	if code == "" {
		return c.Redirect(failed, fiber.StatusFound)
	}

	identity, err := h.provider.Identify(c.UserContext(), code)
	if err != nil {
		h.log.Warn("oauth identify failed", zap.Error(err))
		return c.Redirect(failed, fiber.StatusFound)
	}

	res, err := h.authService.OAuthLogin(c.UserContext(), identity)
	if err != nil {
		h.log.Warn("oauth login failed", zap.String("kind", string(apperr.KindOf(err))), zap.Error(err))
		return c.Redirect(failed, fiber.StatusFound)
	}
	return c.Redirect(h.frontendURL+"/auth/callback?token="+url.QueryEscape(res.Token), fiber.StatusFound)
}
