package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/reservoireye/internal/alert"
	"github.com/reservoireye/internal/api"
	"github.com/reservoireye/internal/auth"
	"github.com/reservoireye/internal/bus"
	"github.com/reservoireye/internal/config"
	"github.com/reservoireye/internal/database"
	"github.com/reservoireye/internal/logger"
	"github.com/reservoireye/internal/monitor"
	"github.com/reservoireye/internal/notify"
	"github.com/reservoireye/internal/store"
)

func main() {
	// Initialize configuration
	cfg, err := config.Load(os.Getenv("RESERVOIREYE_CONFIG_DIR"))
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
	log := logger.WithComponent("main")

	// Initialize database
	if err := database.Initialize(database.Options{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer database.Close()
	db := database.GetDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.AdminEmail != "" {
		ok, err := store.NewUserStore(db).EnsureAdmin(ctx, cfg.Auth.AdminEmail)
		if err != nil {
			log.Error().Err(err).Msg("failed to promote admin")
		} else if !ok {
			log.Warn().Str("email", cfg.Auth.AdminEmail).Msg("admin account not registered yet")
		}
	}

	// Notification channel
	dispatcher, err := notify.New(notify.Config{
		Channel:      cfg.Notify.Channel,
		SMTPHost:     cfg.Notify.Email.SMTPHost,
		SMTPPort:     cfg.Notify.Email.SMTPPort,
		SMTPUsername: cfg.Notify.Email.Username,
		SMTPPassword: cfg.Notify.Email.Password,
		EmailFrom:    cfg.Notify.Email.From,
		SlackToken:   cfg.Notify.Slack.Token,
		SlackChannel: cfg.Notify.Slack.Channel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure notifications")
	}
	log.Info().Str("channel", dispatcher.Type()).Msg("notification channel ready")

	// Optional event bus
	var publisher alert.EventPublisher
	if cfg.Bus.NATSURL != "" {
		p, err := bus.NewPublisher(cfg.Bus.NATSURL, cfg.Bus.Subject)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect event bus")
		}
		defer p.Close()
		publisher = p
		log.Info().Str("subject", cfg.Bus.Subject).Msg("publishing alert events")
	}

	// Device liveness
	watcher := monitor.NewDeviceWatcher(db, cfg.Monitor.Interval, cfg.Monitor.OfflineAfter)
	watcher.Start(ctx)
	defer watcher.Stop()

	ruleManager := alert.NewRuleManager(db)
	history := alert.NewAlertHistory(db, publisher)
	alertManager := alert.NewAlertManager(db, ruleManager, history, dispatcher,
		alert.WithDispatchTimeout(cfg.Alert.DispatchTimeout),
		alert.WithBannedOwnerPolicy(cfg.Alert.SkipBannedOwner),
	)

	// Initialize and start API server
	server := api.NewServer(api.Deps{
		DB:             db,
		Tokens:         auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Rules:          ruleManager,
		History:        history,
		Alerts:         alertManager,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if err := server.Run(ctx, cfg.Addr()); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return
	}
	log.Info().Msg("server stopped")
}
