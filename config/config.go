package config

import (
	"fmt"
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Database settings
	DbHost    string `env:"DB_HOST" envDefault:"localhost"`
	DbPort    string `env:"DB_PORT" envDefault:"5432"`
	DbUser    string `env:"DB_USER" envDefault:"postgres"`
	DbPass    string `env:"DB_PASSWORD" envDefault:"password"`
	DbName    string `env:"DB_NAME" envDefault:"studio_db"`
	DbSslMode string `env:"DB_SSLMODE" envDefault:"disable"`
	DbTz      string `env:"DB_TZ" envDefault:"UTC"`

	// Server settings
	Env      string `env:"ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8040"`
	AppUrl   string `env:"APP_URL" envDefault:"http://localhost:8040"`
	AppName  string `env:"APP_NAME" envDefault:"Studio Site API"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"debug"`

	// Security settings
	CorsOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Content settings
	SlugMaxAttempts int  `env:"SLUG_MAX_ATTEMPTS" envDefault:"1000"`
	MigrateOnStart  bool `env:"MIGRATE_ON_START" envDefault:"false"`

	// Initial admin account, used by `migrate seed`
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@studio.local"`
	AdminName     string `env:"ADMIN_NAME" envDefault:"Studio Admin"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// LoadConfig reads an optional .env file and parses the environment into a Config.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	return Parse()
}

// Parse builds a Config from the current process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.SlugMaxAttempts <= 0 {
		cfg.SlugMaxAttempts = 1000
	}

	return cfg, nil
}

// IsProduction reports whether ENV is set to production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// DSN renders the key/value connection string understood by the postgres driver.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DbHost,
		c.DbPort,
		c.DbUser,
		c.DbPass,
		c.DbName,
		c.DbSslMode,
		c.DbTz,
	)
}
