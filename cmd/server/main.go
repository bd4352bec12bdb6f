package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shabikihub/shabiki/internal/app"
	"github.com/shabikihub/shabiki/internal/app/storage/supabase"
	"github.com/shabikihub/shabiki/internal/config"
	"github.com/shabikihub/shabiki/pkg/logger"
)

func main() {
	// Local development convenience; production relies on real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault("main").WithError(err).Fatal("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON, Component: "main"})

	var stores app.Stores
	if cfg.UseSupabase {
		store, err := supabase.New(supabase.Config{URL: cfg.SupabaseURL, ServiceKey: cfg.SupabaseServiceKey})
		if err != nil {
			log.WithError(err).Fatal("failed to initialize supabase store")
		}
		stores = app.Stores{Users: store, Memes: store, Chat: store, Meta: store}
		log.Info("using supabase backend")
	} else {
		stores = app.MemoryStores()
		log.Info("using in-memory backend")
	}

	application := app.New(cfg, stores, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Fatal("server failed")
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown did not complete cleanly")
	}
}
