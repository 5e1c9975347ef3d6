package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notekeeper/internal/config"
	"notekeeper/internal/notify"
	"notekeeper/internal/oauth"
	"notekeeper/internal/services"
	"notekeeper/pkg/database"
	applogger "notekeeper/pkg/logger"
	"notekeeper/pkg/rabbitmq"

	"go.uber.org/zap"
)

const oauthStateTTL = 10 * time.Minute

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zlog, err := applogger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	db, err := database.Open(ctx, cfg.DBDriver, cfg.DatabaseDSN, zlog, cfg.LogLevel == "debug")
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// --- Mail delivery ---
	notifier, mqClient, err := newNotifier(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	if mqClient != nil {
		defer mqClient.Close()
	}

	// --- OAuth ---
	provider, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("oauth provider: %w", err)
	}
	states, err := oauth.NewStateStore(oauthStateTTL)
	if err != nil {
		return err
	}
	defer states.Close()
	if provider == nil {
		zlog.Info("google sign-in disabled")
	}

	app := newServer(serverDeps{
		cfg:      cfg,
		log:      zlog,
		db:       db,
		notifier: notifier,
		provider: provider,
		states:   states,
	})

	// --- Start HTTP Server ---
	listenErr := make(chan error, 1)
	go func() {
		zlog.Info("starting server", zap.String("addr", cfg.AppPort), zap.String("env", cfg.AppEnv))
		listenErr <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	zlog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		zlog.Error("error during fiber shutdown", zap.Error(err))
	}
	zlog.Info("server gracefully stopped")
	return nil
}

// newNotifier selects how codes reach users. The queue driver also starts
// the in-process mail worker, which runs until ctx is done.
func newNotifier(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (services.Notifier, *rabbitmq.Client, error) {
	switch cfg.MailDriver {
	case "smtp":
		return newMailer(cfg, zlog), nil, nil
	case "queue":
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.MailQueue}, zlog)
		if err != nil {
			return nil, nil, fmt.Errorf("rabbitmq: %w", err)
		}
		worker := notify.NewWorker(newMailer(cfg, zlog), zlog)
		go func() {
			if err := mqClient.Consume(ctx, worker.Handle); err != nil {
				zlog.Error("mail worker stopped", zap.Error(err))
			}
		}()
		return notify.NewQueueNotifier(mqClient), mqClient, nil
	default:
		zlog.Warn("mail driver is log; codes are written to the log")
		return notify.NewLogNotifier(zlog), nil, nil
	}
}
