package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nulzo/calx-web/internal/catalog"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Backend     BackendConfig     `mapstructure:"backend"`
	Fetch       FetchConfig       `mapstructure:"fetch"`
	Session     SessionConfig     `mapstructure:"session"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Database    DatabaseConfig    `mapstructure:"database"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	UpdateCheck UpdateCheckConfig `mapstructure:"update_check"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Env            string   `mapstructure:"env"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// DebugAddr serves expvar when set, e.g. "127.0.0.1:6060".
	DebugAddr string `mapstructure:"debug_addr"`
}

// BackendConfig points at the CalX REST API.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type FetchConfig struct {
	// Timeout bounds a single vendor call. Zero leaves it to the request context.
	Timeout        time.Duration `mapstructure:"timeout"`
	RequireSession bool          `mapstructure:"require_session"`
	// Providers overrides vendor API roots by provider id. Empty values keep the default.
	Providers map[string]string `mapstructure:"providers"`
}

type SessionConfig struct {
	Store      string        `mapstructure:"store"` // memory or redis
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DatabaseConfig struct {
	DSN     string `mapstructure:"dsn"`
	Enabled bool   `mapstructure:"enabled"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type UpdateCheckConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Repo    string `mapstructure:"repo"`
}

// LoadConfig reads configuration from file or environment variables.
// Extra directories are searched for config.yaml before the defaults.
func LoadConfig(paths ...string) (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Default Values
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.debug_addr", "")

	v.SetDefault("backend.base_url", "https://calx-api.vercel.app")
	v.SetDefault("backend.timeout", 15*time.Second)

	v.SetDefault("fetch.timeout", time.Duration(0))
	v.SetDefault("fetch.require_session", true)
	// registering each id lets FETCH_PROVIDERS_<ID> override it from the environment
	for _, p := range catalog.NewRegistry(nil).Providers() {
		v.SetDefault("fetch.providers."+p.ID, "")
	}

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.cookie_name", "calx_session")
	v.SetDefault("session.secure", false)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.dsn", "file:calx.db?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000")
	v.SetDefault("database.enabled", true)

	v.SetDefault("rate_limit.requests_per_second", 2.0)
	v.SetDefault("rate_limit.burst", 5)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "calx-web")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("update_check.enabled", false)
	v.SetDefault("update_check.repo", "nulzo/calx-web")

	// Environment Variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	cfg.Redis.Password = resolveSecret(v, cfg.Redis.Password)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveSecret expands "ENV:NAME" to the value of NAME.
func resolveSecret(v *viper.Viper, value string) string {
	if !strings.HasPrefix(value, "ENV:") {
		return value
	}
	envVar := strings.TrimPrefix(value, "ENV:")
	// Check process environment first (explicit override)
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return v.GetString(envVar)
}

func (c *Config) Validate() error {
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("session.store must be memory or redis, got %q", c.Session.Store)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit requires a positive rate and burst")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %v", c.Tracing.SampleRatio)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
