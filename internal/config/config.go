package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`

	// Empty DatabaseURL runs every store in memory.
	DatabaseURL    string `env:"DATABASE_URL"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"migrations"`
	JWTSecret      string `env:"JWT_SECRET" envDefault:"secret-key"`

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Empty RedisAddr disables the search cache and queues notifications in process.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	CommissionRate  float64 `env:"COMMISSION_RATE" envDefault:"0.15"`
	MinWithdrawal   float64 `env:"MIN_WITHDRAWAL" envDefault:"500"`
	PlatformAccount string  `env:"PLATFORM_ACCOUNT" envDefault:"platform"`
	CurrencySymbol  string  `env:"CURRENCY_SYMBOL" envDefault:"₹"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// CatalogSeedPath optionally points at a JSON file of providers loaded at startup.
	CatalogSeedPath string `env:"CATALOG_SEED_PATH"`

	SearchCacheTTL time.Duration `env:"SEARCH_CACHE_TTL" envDefault:"30s"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"20"`

	ReminderSchedule string        `env:"REMINDER_SCHEDULE" envDefault:"@every 5m"`
	ReminderLead     time.Duration `env:"REMINDER_LEAD" envDefault:"1h"`

	NotificationMaxTries int `env:"NOTIFICATION_MAX_TRIES" envDefault:"3"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		return fmt.Errorf("COMMISSION_RATE must be in [0, 1), got %v", c.CommissionRate)
	}
	if c.MinWithdrawal < 0 {
		return fmt.Errorf("MIN_WITHDRAWAL must not be negative, got %v", c.MinWithdrawal)
	}
	if c.PlatformAccount == "" {
		return fmt.Errorf("PLATFORM_ACCOUNT must not be empty")
	}
	return nil
}

func (c *Config) Commission() decimal.Decimal {
	return decimal.NewFromFloat(c.CommissionRate)
}

func (c *Config) MinimumWithdrawal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinWithdrawal)
}
