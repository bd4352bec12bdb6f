// Package app wires storage, services, the relay and the HTTP surface into a
// runnable application.
package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shabikihub/shabiki/internal/app/httpapi"
	"github.com/shabikihub/shabiki/internal/app/relay"
	"github.com/shabikihub/shabiki/internal/app/services/assistant"
	"github.com/shabikihub/shabiki/internal/app/services/matches"
	"github.com/shabikihub/shabiki/internal/app/services/memes"
	"github.com/shabikihub/shabiki/internal/app/services/quota"
	"github.com/shabikihub/shabiki/internal/app/services/trends"
	"github.com/shabikihub/shabiki/internal/app/storage"
	"github.com/shabikihub/shabiki/internal/app/storage/memory"
	"github.com/shabikihub/shabiki/internal/app/system"
	"github.com/shabikihub/shabiki/internal/config"
	"github.com/shabikihub/shabiki/internal/gemini"
	"github.com/shabikihub/shabiki/internal/middleware"
	"github.com/shabikihub/shabiki/pkg/logger"
)

// Stores groups the storage interfaces the application depends on. Both
// backends satisfy all of them; the split exists so tests can swap a single
// concern.
type Stores struct {
	Users storage.UserStore
	Memes storage.MemeStore
	Chat  storage.ChatStore
	Meta  storage.MetaStore
}

// MemoryStores builds a Stores over a fresh in-memory backend.
func MemoryStores() Stores {
	s := memory.New()
	return Stores{Users: s, Memes: s, Chat: s, Meta: s}
}

// Application holds the wired components and the running HTTP server.
type Application struct {
	cfg     *config.Config
	log     *logger.Logger
	manager *system.Manager
	server  *http.Server

	Hub *relay.Hub
}

// New wires the application from configuration and stores. Pass zero-value
// stores to default to the in-memory backend.
func New(cfg *config.Config, stores Stores, log *logger.Logger) *Application {
	if log == nil {
		log = logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON, Component: "app"})
	}
	if stores.Memes == nil {
		stores = MemoryStores()
	}

	ai := gemini.New(cfg.GeminiAPIKey, log.WithField("component", "gemini"))

	limits := quota.Limits{Global: cfg.MemeGlobalLimit, PerGuest: cfg.MemeUserLimit}
	tracker := quota.New(stores.Meta, limits, len(memes.DefaultAssetPool), log.WithField("component", "quota"))

	memeSvc := memes.New(stores.Memes, tracker, ai, nil, log.WithField("component", "memes"))
	assistantSvc := assistant.New(ai, log.WithField("component", "assistant"))

	fetcher := trends.NewGoogleFetcher(splitGeos(cfg.TrendGeos), log.WithField("component", "trends-fetcher"))
	trendSvc := trends.New(stores.Meta, fetcher, log.WithField("component", "trends"))
	refresher := trends.NewRefresher(trendSvc, log.WithField("component", "trends-refresher"))

	hub := relay.NewHub(stores.Chat, log.WithField("component", "relay"))
	limiter := middleware.NewRateLimiter(cfg.AssistantRate, cfg.AssistantBurst)

	backend := "memory"
	if cfg.UseSupabase {
		backend = "supabase"
	}
	handler := httpapi.NewHandler(
		memeSvc,
		assistantSvc,
		trendSvc,
		matches.New(),
		stores.Chat,
		hub,
		limiter,
		backend,
		log.WithField("component", "httpapi"),
	)

	manager := system.NewManager(log.WithField("component", "system"))
	manager.Register(hub)
	manager.Register(refresher)

	return &Application{
		cfg: cfg,
		log: log,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		manager: manager,
		Hub:     hub,
	}
}

func splitGeos(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var geos []string
	for _, geo := range strings.Split(raw, ",") {
		if geo = strings.TrimSpace(geo); geo != "" {
			geos = append(geos, strings.ToUpper(geo))
		}
	}
	return geos
}

// Start brings up background services and begins serving HTTP. It blocks
// until the server stops.
func (a *Application) Start(ctx context.Context) error {
	if err := a.manager.Start(ctx); err != nil {
		return err
	}
	a.log.WithField("addr", a.cfg.Addr).Info("http server listening")

	err := a.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server and background services.
func (a *Application) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.manager.Stop(ctx)
	return err
}
