// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"
)

// Config is the full service configuration. Every field has a default so a
// bare environment still boots against the in-memory backend.
type Config struct {
	Addr string `env:"ADDR,default=:8080"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
	LogJSON  bool   `env:"LOG_JSON,default=false"`

	// UseSupabase selects the hosted backend. When false the service runs
	// entirely on the in-memory store.
	UseSupabase        bool   `env:"USE_SUPABASE,default=false"`
	SupabaseURL        string `env:"SUPABASE_URL,default="`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY,default="`

	GeminiAPIKey string `env:"GEMINI_API_KEY,default="`

	// TrendGeos is a comma-separated list of Google Trends geo codes.
	TrendGeos string `env:"TREND_GEOS,default="`

	MemeGlobalLimit int `env:"MEME_GEN_GLOBAL_LIMIT,default=10"`
	MemeUserLimit   int `env:"MEME_GEN_USER_LIMIT,default=1"`

	// AI chat throttling, requests per second with a burst allowance.
	AssistantRate  float64 `env:"ASSISTANT_RATE,default=1"`
	AssistantBurst int     `env:"ASSISTANT_BURST,default=5"`
}

// Load decodes configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.UseSupabase && (cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "") {
		return nil, fmt.Errorf("USE_SUPABASE is set but SUPABASE_URL or SUPABASE_SERVICE_KEY is missing")
	}
	return &cfg, nil
}
