package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config is the full runtime configuration tree.
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Security   SecurityConfig
	Session    SessionConfig
	Google     GoogleConfig
	RateLimit  RateLimitConfig
	Monitoring MonitoringConfig
}

type AppConfig struct {
	Name       string `env:"APP_NAME" envDefault:"auth-demo"`
	Env        string `env:"APP_ENV" envDefault:"development"`
	Port       string `env:"PORT" envDefault:"8080"`
	BaseURL    string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	AdminToken string `env:"ADMIN_TOKEN"`
}

type DatabaseConfig struct {
	Driver       string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DSN          string `env:"DB_DSN" envDefault:"./auth_demo.db"`
	AutoMigrate  bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
}

type CacheConfig struct {
	Type          string `env:"CACHE_TYPE" envDefault:"redis"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

type SecurityConfig struct {
	BcryptCost        int `env:"BCRYPT_COST" envDefault:"10"`
	NameMinLength     int `env:"NAME_MIN_LENGTH" envDefault:"2"`
	PasswordMinLength int `env:"PASSWORD_MIN_LENGTH" envDefault:"8"`
}

type SessionConfig struct {
	Secret       string        `env:"AUTH_SECRET"`
	TTL          time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	CookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"auth_demo_session"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	StateTTL     time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`
}

type GoogleConfig struct {
	ClientID     string   `env:"AUTH_GOOGLE_ID"`
	ClientSecret string   `env:"AUTH_GOOGLE_SECRET"`
	RedirectURL  string   `env:"AUTH_GOOGLE_REDIRECT_URL"`
	Scopes       []string `env:"AUTH_GOOGLE_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
}

type RateLimitConfig struct {
	Enabled  bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Backend  string        `env:"RATE_LIMIT_BACKEND" envDefault:"redis"`
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"10"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	Prefix   string        `env:"RATE_LIMIT_PREFIX" envDefault:"ratelimit:"`

	// TrustProxyHeaders keys limits on X-Forwarded-For instead of the peer address.
	TrustProxyHeaders bool `env:"RATE_LIMIT_TRUST_PROXY" envDefault:"false"`
}

type MonitoringConfig struct {
	SentryDSN      string `env:"SENTRY_DSN"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Google.RedirectURL == "" {
		cfg.Google.RedirectURL = cfg.App.BaseURL + "/api/auth/callback/google"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Session.Secret == "" {
		return errors.New("AUTH_SECRET is required")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// IsProduction reports whether the app runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
