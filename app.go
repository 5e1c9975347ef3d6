package main

import (
	"context"
	"errors"
	"time"

	"notekeeper/internal/config"
	"notekeeper/internal/handlers"
	"notekeeper/internal/middleware"
	"notekeeper/internal/notify"
	"notekeeper/internal/oauth"
	"notekeeper/internal/repositories"
	"notekeeper/internal/services"
	"notekeeper/pkg/apperr"
	"notekeeper/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// serverDeps are the collaborators the HTTP server is built from.
type serverDeps struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	notifier services.Notifier
	provider oauth.Provider // nil disables Google sign-in
	states   *oauth.StateStore
}

// newServer wires repositories, services and handlers into a Fiber app.
func newServer(d serverDeps) *fiber.App {
	userRepo := repositories.NewGORMUserRepository(d.db)
	noteRepo := repositories.NewGORMNoteRepository(d.db)

	authService := services.NewAuthService(
		services.NewCredentialStore(userRepo, d.cfg.BcryptCost),
		services.NewOTPService(userRepo, d.cfg.OTPTTL),
		services.NewTokenService(d.cfg.JWTSecret, d.cfg.TokenTTL),
		d.notifier,
		services.NewResendThrottle(d.cfg.ResendCooldown),
		d.log,
	)
	noteService := services.NewNoteService(noteRepo)

	authHandler := handlers.NewAuthHandler(authService, d.provider, d.states, d.cfg.FrontendURL, d.log)
	noteHandler := handlers.NewNoteHandler(noteService, d.log)

	app := fiber.New(fiber.Config{
		AppName:      "notekeeper",
		ErrorHandler: jsonErrorHandler(d.log),
	})

	app.Use(recover.New())
	if d.cfg.AppEnv != "test" {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: d.cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1, authLimiter(d.cfg.AuthRateLimit))
	noteHandler.RegisterRoutes(apiV1, middleware.AuthRequired(authService))

	app.Get("/health", healthHandler(d.db))

	return app
}

// authLimiter caps requests per client IP per minute. Zero disables it.
func authLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return nil
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests, please try again later",
				"error":   "rate_limited",
			})
		},
	})
}

func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "unhealthy",
				"database": "unreachable",
				"time":     time.Now().Format(time.RFC3339),
			})
		}
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"database": "connected",
			"time":     time.Now().Format(time.RFC3339),
		})
	}
}

// jsonErrorHandler renders errors that escape handlers, such as unknown
// routes, in the same shape as handler errors.
func jsonErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		kind := apperr.KindInternal
		switch {
		case code == fiber.StatusNotFound:
			kind = apperr.KindNotFound
		case code < fiber.StatusInternalServerError:
			kind = apperr.KindValidation
		default:
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{
			"message": message,
			"error":   string(kind),
		})
	}
}

// newMailer builds the SMTP mailer from the configured server settings.
func newMailer(cfg *config.Config, log *zap.Logger) *notify.SMTPMailer {
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	}, cfg.OTPTTL, log)
}

// newProvider builds the Google provider, or nil when it is not configured.
func newProvider(cfg *config.Config) (oauth.Provider, error) {
	if !cfg.OAuthEnabled() {
		return nil, nil
	}
	provider, err := oauth.NewGoogleProvider(oauth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		AuthURL:      cfg.GoogleAuthURL,
		TokenURL:     cfg.GoogleTokenURL,
		UserInfoURL:  cfg.GoogleUserInfoURL,
	}, nil)
	if err != nil {
		return nil, err
	}
	return provider, nil
}
