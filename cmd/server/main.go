// Command server is the composition root: it loads configuration, opens the
// SQLite store, wires the Slack gateway, starts the scheduled-message
// dispatcher, mounts the HTTP API, and handles graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/SG-Dcoder/SLACK-CONNECT/internal/config"
	httpapi "github.com/SG-Dcoder/SLACK-CONNECT/internal/http"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/observability"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/repo"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/scheduler"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/slackapi"
	"github.com/SG-Dcoder/SLACK-CONNECT/internal/sysutil"
)

const version = "1.0.0"

// @title       Slack Connect API
// @version     1.0.0
// @description Connect a Slack workspace via OAuth, send messages immediately, and schedule messages for future delivery.
// @BasePath    /api/v1
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	otelShutdown, err := observability.SetupOTel(context.Background(), cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	gw := slackapi.New(
		cfg.Slack.ClientID,
		cfg.Slack.ClientSecret,
		cfg.Slack.RedirectURI,
		slackapi.WithHTTPClient(&http.Client{Timeout: cfg.Slack.Timeout}),
	)

	dispatcher := &scheduler.Dispatcher{
		DB:          db,
		Gateway:     gw,
		Interval:    cfg.DispatchInterval,
		CallTimeout: cfg.Slack.Timeout,
		Logger:      log.With().Str("component", "dispatcher").Logger(),
	}
	if err := dispatcher.Start(); err != nil {
		log.Fatal().Err(err).Msg("start dispatcher")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, gw, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	dispatcher.Stop()
	if err := otelShutdown(ctx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("shutdown complete")
}
