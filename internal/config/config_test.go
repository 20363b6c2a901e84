package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/growthlab/growthlab-web/internal/config"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GROWTHLAB_HTTP_ADDR",
		"GROWTHLAB_API_URL", "NEXT_PUBLIC_GROWTHLAB_API_URL",
		"GROWTHLAB_API_KEY", "NEXT_PUBLIC_GROWTHLAB_API_KEY",
		"GROWTHLAB_API_TIMEOUT",
		"GROWTHLAB_DB_DRIVER", "GROWTHLAB_DB_DSN",
		"GROWTHLAB_SESSION_LIFETIME", "GROWTHLAB_INSECURE_COOKIES",
		"GROWTHLAB_CACHE_BACKEND", "GROWTHLAB_CACHE_TTL", "GROWTHLAB_REDIS_URL",
		"GROWTHLAB_DEGRADED_MODE", "GROWTHLAB_WIDGET_TOKEN_TIMEOUT",
		"GROWTHLAB_LOG_LEVEL", "GROWTHLAB_LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.API.URL != "http://localhost:3001" {
		t.Errorf("API.URL = %q, want http://localhost:3001", cfg.API.URL)
	}
	if cfg.API.Key != "" {
		t.Errorf("API.Key = %q, want empty", cfg.API.Key)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("API.Timeout = %v, want 10s", cfg.API.Timeout)
	}
	if cfg.Cache.Backend != "memory" || cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache = %+v, want memory/5m", cfg.Cache)
	}
	if cfg.DegradedMode {
		t.Error("DegradedMode should default to false")
	}
	if cfg.WidgetTokenTimeout != time.Second {
		t.Errorf("WidgetTokenTimeout = %v, want 1s", cfg.WidgetTokenTimeout)
	}
	if cfg.DB.Driver != "sqlite3" {
		t.Errorf("DB.Driver = %q, want sqlite3", cfg.DB.Driver)
	}
}

func TestLoad_PublicEnvFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEXT_PUBLIC_GROWTHLAB_API_URL", "https://public.example.com")
	t.Setenv("NEXT_PUBLIC_GROWTHLAB_API_KEY", "public-key")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.URL != "https://public.example.com" {
		t.Errorf("API.URL = %q", cfg.API.URL)
	}
	if cfg.API.Key != "public-key" {
		t.Errorf("API.Key = %q", cfg.API.Key)
	}

	t.Setenv("GROWTHLAB_API_URL", "https://api.example.com")
	cfg, err = config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.URL != "https://api.example.com" {
		t.Errorf("API.URL = %q, want the GROWTHLAB_ value to win", cfg.API.URL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROWTHLAB_DEGRADED_MODE", "true")
	t.Setenv("GROWTHLAB_CACHE_BACKEND", "redis")
	t.Setenv("GROWTHLAB_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("GROWTHLAB_WIDGET_TOKEN_TIMEOUT", "250ms")
	t.Setenv("GROWTHLAB_LOG_FORMAT", "json")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.DegradedMode {
		t.Error("DegradedMode = false, want true")
	}
	if cfg.Cache.Backend != "redis" || cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Errorf("cache = %+v, redis = %+v", cfg.Cache, cfg.Redis)
	}
	if cfg.WidgetTokenTimeout != 250*time.Millisecond {
		t.Errorf("WidgetTokenTimeout = %v, want 250ms", cfg.WidgetTokenTimeout)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "redis without url",
			env:     map[string]string{"GROWTHLAB_CACHE_BACKEND": "redis"},
			wantErr: "GROWTHLAB_REDIS_URL",
		},
		{
			name:    "unknown cache backend",
			env:     map[string]string{"GROWTHLAB_CACHE_BACKEND": "memcached"},
			wantErr: "GROWTHLAB_CACHE_BACKEND",
		},
		{
			name:    "bad duration",
			env:     map[string]string{"GROWTHLAB_CACHE_TTL": "five minutes"},
			wantErr: "GROWTHLAB_CACHE_TTL",
		},
		{
			name:    "non-positive timeout",
			env:     map[string]string{"GROWTHLAB_WIDGET_TOKEN_TIMEOUT": "0s"},
			wantErr: "GROWTHLAB_WIDGET_TOKEN_TIMEOUT",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"GROWTHLAB_DB_DRIVER": "oracle"},
			wantErr: "GROWTHLAB_DB_DRIVER",
		},
		{
			name:    "unknown log format",
			env:     map[string]string{"GROWTHLAB_LOG_FORMAT": "xml"},
			wantErr: "GROWTHLAB_LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %s", err, tt.wantErr)
			}
		})
	}
}
