package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/subtrack/subtrack/internal/billing"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	AMQP      AMQPConfig      `mapstructure:"amqp"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Business  BusinessConfig  `mapstructure:"business"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type RedisConfig struct {
	Addr      string        `mapstructure:"REDIS_ADDR"`
	Password  string        `mapstructure:"REDIS_PASSWORD"`
	DB        int           `mapstructure:"REDIS_DB"`
	ReportTTL time.Duration `mapstructure:"REDIS_REPORT_TTL"`
}

// AMQPConfig configures the event publisher. An empty URL disables events.
type AMQPConfig struct {
	URL      string `mapstructure:"AMQP_URL"`
	Exchange string `mapstructure:"AMQP_EXCHANGE"`
}

type SchedulerConfig struct {
	SweepSpec        string `mapstructure:"SCHEDULER_SWEEP_SPEC"`
	SweepConcurrency int    `mapstructure:"SCHEDULER_SWEEP_CONCURRENCY"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

// BusinessConfig carries the billing policy knobs. The defaults are part of
// the billing contract; they are configurable so alternate policies run
// without a rebuild.
type BusinessConfig struct {
	DueSoonDays  int    `mapstructure:"DUE_SOON_DAYS"`
	GraceDays    int    `mapstructure:"GRACE_DAYS"`
	BasePriceVND string `mapstructure:"BASE_PRICE_VND"`
	BasePriceUSD string `mapstructure:"BASE_PRICE_USD"`
	UsdToVndRate string `mapstructure:"USD_TO_VND_RATE"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_REPORT_TTL", "5m")
	viper.SetDefault("AMQP_EXCHANGE", "subtrack.events")
	viper.SetDefault("SCHEDULER_SWEEP_SPEC", "0 0 6 * * *")
	viper.SetDefault("SCHEDULER_SWEEP_CONCURRENCY", 8)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("DUE_SOON_DAYS", 3)
	viper.SetDefault("GRACE_DAYS", 7)
	viper.SetDefault("BASE_PRICE_VND", "50000")
	viper.SetDefault("BASE_PRICE_USD", "2")
	viper.SetDefault("USD_TO_VND_RATE", "25800")

	// Load .env for local development; absent in production deployments
	_ = godotenv.Load()

	// Read from environment variables
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Business.DueSoonDays < 0 {
		return fmt.Errorf("DUE_SOON_DAYS must not be negative")
	}

	if c.Business.GraceDays < 0 {
		return fmt.Errorf("GRACE_DAYS must not be negative")
	}

	for name, value := range map[string]string{
		"BASE_PRICE_VND":  c.Business.BasePriceVND,
		"BASE_PRICE_USD":  c.Business.BasePriceUSD,
		"USD_TO_VND_RATE": c.Business.UsdToVndRate,
	} {
		price, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("%s must be a valid decimal: %w", name, err)
		}
		if !price.IsPositive() {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if c.Scheduler.SweepConcurrency <= 0 {
		return fmt.Errorf("SCHEDULER_SWEEP_CONCURRENCY must be greater than 0")
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// Policy builds the billing policy from the business knobs. Call after
// Validate; malformed decimals cannot reach this point.
func (c *Config) Policy() billing.Policy {
	basePriceVND, _ := decimal.NewFromString(c.Business.BasePriceVND)
	basePriceUSD, _ := decimal.NewFromString(c.Business.BasePriceUSD)
	rate, _ := decimal.NewFromString(c.Business.UsdToVndRate)
	return billing.Policy{
		DueSoonDays:  c.Business.DueSoonDays,
		GraceDays:    c.Business.GraceDays,
		BasePriceVND: basePriceVND,
		BasePriceUSD: basePriceUSD,
		UsdToVndRate: rate,
	}
}
