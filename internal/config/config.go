package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	API struct {
		URL     string
		Key     string
		Timeout time.Duration
	}
	DB struct {
		Driver string
		DSN    string
	}
	Cache struct {
		Backend string
		TTL     time.Duration
	}
	Redis struct {
		URL string
	}
	Log struct {
		Level  string
		Format string
	}
	SessionLifetime    time.Duration
	InsecureCookies    bool
	DegradedMode       bool
	WidgetTokenTimeout time.Duration
}

// Load reads config from environment (GROWTHLAB_ prefix) and optional growthlab.yaml.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GROWTHLAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("growthlab")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	// NEXT_PUBLIC_ names are accepted as fallbacks.
	_ = v.BindEnv("api.url", "GROWTHLAB_API_URL", "NEXT_PUBLIC_GROWTHLAB_API_URL")
	_ = v.BindEnv("api.key", "GROWTHLAB_API_KEY", "NEXT_PUBLIC_GROWTHLAB_API_KEY")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("api.url", "http://localhost:3001")
	v.SetDefault("api.key", "")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "growthlab.db")
	v.SetDefault("session.lifetime", "720h")
	v.SetDefault("insecure_cookies", false)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("degraded_mode", false)
	v.SetDefault("widget.token_timeout", "1s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.API.URL = v.GetString("api.url")
	cfg.API.Key = v.GetString("api.key")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Cache.Backend = v.GetString("cache.backend")
	cfg.Redis.URL = v.GetString("redis.url")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.InsecureCookies = v.GetBool("insecure_cookies")
	cfg.DegradedMode = v.GetBool("degraded_mode")

	durations := []struct {
		key string
		env string
		dst *time.Duration
	}{
		{"api.timeout", "GROWTHLAB_API_TIMEOUT", &cfg.API.Timeout},
		{"cache.ttl", "GROWTHLAB_CACHE_TTL", &cfg.Cache.TTL},
		{"session.lifetime", "GROWTHLAB_SESSION_LIFETIME", &cfg.SessionLifetime},
		{"widget.token_timeout", "GROWTHLAB_WIDGET_TOKEN_TIMEOUT", &cfg.WidgetTokenTimeout},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.env, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("%s must be positive", d.env)
		}
		*d.dst = parsed
	}

	if cfg.API.URL == "" {
		return nil, fmt.Errorf("GROWTHLAB_API_URL is required")
	}
	switch cfg.DB.Driver {
	case "sqlite3", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("GROWTHLAB_DB_DRIVER must be one of sqlite3, mysql, postgres; got %q", cfg.DB.Driver)
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("GROWTHLAB_DB_DSN is required")
	}
	switch cfg.Cache.Backend {
	case "memory":
	case "redis":
		if cfg.Redis.URL == "" {
			return nil, fmt.Errorf("GROWTHLAB_REDIS_URL is required when GROWTHLAB_CACHE_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("GROWTHLAB_CACHE_BACKEND must be memory or redis; got %q", cfg.Cache.Backend)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("GROWTHLAB_LOG_FORMAT must be text or json; got %q", cfg.Log.Format)
	}

	return cfg, nil
}
