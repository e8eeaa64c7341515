package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Simplici0/pestdirectory/internal/app"
	"github.com/Simplici0/pestdirectory/internal/config"
	"github.com/Simplici0/pestdirectory/internal/db"
	"github.com/Simplici0/pestdirectory/internal/importer"
	"github.com/Simplici0/pestdirectory/internal/logging"
	"github.com/Simplici0/pestdirectory/internal/migrations"
	"github.com/Simplici0/pestdirectory/internal/sheets"
	"github.com/Simplici0/pestdirectory/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.IsDev())
	for _, w := range cfg.Warnings() {
		logger.Warn().Msg(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if cfg.IsDev() {
		if _, err := migrations.Up(ctx, database); err != nil {
			logger.Fatal().Err(err).Msg("failed to run database migrations")
		}
	}

	profiles := app.OpenCache(ctx, cfg, logger)
	publisher := app.NewPublisher(cfg)
	defer publisher.Close()

	st := store.New(database)
	srv, err := newServer(serverDeps{
		store:    st,
		cache:    profiles,
		importer: importer.New(st, profiles, publisher, logger),
		source: func(ctx context.Context) (sheets.Source, error) {
			return app.OpenSource(ctx, cfg)
		},
		importOptions: importer.Options{ClientsSheet: cfg.ClientsSheet, PricingSheet: cfg.PricingSheet},
		logger:        logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logger.Info().Str("addr", httpServer.Addr).Str("env", cfg.Env).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
