package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/MealPilot/internal/pkg/env"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the process-wide configuration, built once at startup and handed
// to constructors explicitly.
type Config struct {
	AppEnv          string `validate:"oneof=dev prod test"`
	Host            string `validate:"required"`
	Port            string `validate:"required,numeric"`
	PublicDomain    string
	PublicDir       string
	PrincipalHeader string `validate:"required"`

	Database   Database
	Cache      Cache
	Stripe     Stripe
	OpenRouter OpenRouter
	Admin      Admin

	MealPlanCacheTTL    time.Duration `validate:"gt=0"`
	MealPlanCoalesce    bool
	EntitlementCacheTTL time.Duration `validate:"gt=0,lte=15m"`
	GenerationTimeout   time.Duration `validate:"gt=0"`
	WebhookTimeout      time.Duration `validate:"gt=0"`

	RateLimitMax    int           `validate:"gte=0"`
	RateLimitWindow time.Duration `validate:"gt=0"`
}

type Database struct {
	Driver   string `validate:"oneof=mysql postgres sqlite"`
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Path     string
	Timeout  time.Duration `validate:"gt=0"`
}

type Cache struct {
	Host      string `validate:"required"`
	Port      string `validate:"required,numeric"`
	Password  string
	DB        int           `validate:"gte=0,lte=15"`
	LimiterDB int           `validate:"gte=0,lte=15"`
	Prefix    string        `validate:"required"`
	Timeout   time.Duration `validate:"gt=0"`
}

type Stripe struct {
	SecretKey     string
	WebhookSecret string `validate:"required"`
	PriceWeekly   string
	PriceMonthly  string
	PriceYearly   string
}

type OpenRouter struct {
	APIKey  string
	BaseURL string `validate:"required,url"`
	Model   string `validate:"required"`
}

type Admin struct {
	User         string
	PasswordHash string
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Addr is the redis address.
func (c Cache) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// DSN builds the driver-specific data source name.
func (d Database) DSN() string {
	switch d.Driver {
	case DriverPostgres:
		port := d.Port
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			d.Host, d.User, d.Password, d.Name, port)
	case DriverSQLite:
		return d.Path
	default:
		port := d.Port
		if port == "" {
			port = "3306"
		}
		// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, port, d.Name)
	}
}

// Load reads the configuration from the environment (see env.SetupEnvFile).
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:          env.GetEnv("APP_ENV", "prod"),
		Host:            env.GetEnv("APP_HOST", "localhost"),
		Port:            env.GetEnv("APP_PORT", "4000"),
		PublicDomain:    strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/"),
		PublicDir:       env.GetEnv("PUBLIC_DIR", "./public"),
		PrincipalHeader: env.GetEnv("PRINCIPAL_HEADER", "X-Authenticated-User"),
		Database: Database{
			Driver:   strings.ToLower(env.GetEnv("DB_DRIVER", DriverMySQL)),
			Host:     env.GetEnv("DB_HOST", "127.0.0.1"),
			Port:     env.GetEnv("DB_PORT", ""),
			User:     env.GetEnv("DB_USER", ""),
			Password: env.GetEnv("DB_PASSWORD", ""),
			Name:     env.GetEnv("DB_NAME", ""),
			Path:     env.GetEnv("DB_PATH", "mealpilot.db"),
			Timeout:  env.GetDuration("STORE_TIMEOUT", 5*time.Second),
		},
		Cache: Cache{
			Host:      env.GetEnv("CACHE_HOST", "localhost"),
			Port:      env.GetEnv("CACHE_PORT", "6379"),
			Password:  env.GetEnv("CACHE_PASSWORD", ""),
			DB:        env.GetInt("CACHE_DB", 0),
			LimiterDB: env.GetInt("CACHE_LIMITER_DB", 1),
			Prefix:    env.GetEnv("CACHE_PREFIX", "mealpilot"),
			Timeout:   env.GetDuration("CACHE_OP_TIMEOUT", 2*time.Second),
		},
		Stripe: Stripe{
			SecretKey:     strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
			WebhookSecret: strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", "")),
			PriceWeekly:   strings.TrimSpace(env.GetEnv("STRIPE_PRICE_WEEKLY", "")),
			PriceMonthly:  strings.TrimSpace(env.GetEnv("STRIPE_PRICE_MONTHLY", "")),
			PriceYearly:   strings.TrimSpace(env.GetEnv("STRIPE_PRICE_YEARLY", "")),
		},
		OpenRouter: OpenRouter{
			APIKey:  strings.TrimSpace(env.GetEnv("OPEN_ROUTER_API_KEY", "")),
			BaseURL: strings.TrimRight(env.GetEnv("OPEN_ROUTER_BASE_URL", "https://openrouter.ai/api/v1"), "/"),
			Model:   env.GetEnv("OPEN_ROUTER_MODEL", "meta-llama/llama-4-maverick:free"),
		},
		Admin: Admin{
			User:         env.GetEnv("ADMIN_USER", "admin"),
			PasswordHash: env.GetEnv("ADMIN_PASSWORD_HASH", ""),
		},
		MealPlanCacheTTL:    env.GetDuration("MEALPLAN_CACHE_TTL", time.Hour),
		MealPlanCoalesce:    env.GetBool("MEALPLAN_COALESCE", false),
		EntitlementCacheTTL: env.GetDuration("ENTITLEMENT_CACHE_TTL", 30*time.Second),
		GenerationTimeout:   env.GetDuration("GENERATION_TIMEOUT", 3*time.Minute),
		WebhookTimeout:      env.GetDuration("WEBHOOK_TIMEOUT", 15*time.Second),
		RateLimitMax:        env.GetInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow:     env.GetDuration("RATE_LIMIT_WINDOW", time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
