package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{URL: "postgres://localhost/subtrack?sslmode=disable"},
		Scheduler: SchedulerConfig{
			SweepSpec:        "0 0 6 * * *",
			SweepConcurrency: 8,
		},
		Business: BusinessConfig{
			DueSoonDays:  3,
			GraceDays:    7,
			BasePriceVND: "50000",
			BasePriceUSD: "2",
			UsdToVndRate: "25800",
		},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		contains string
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }, "SERVER_PORT"},
		{"missing database url", func(c *Config) { c.Database.URL = "" }, "DATABASE_URL"},
		{"negative due window", func(c *Config) { c.Business.DueSoonDays = -1 }, "DUE_SOON_DAYS"},
		{"negative grace window", func(c *Config) { c.Business.GraceDays = -1 }, "GRACE_DAYS"},
		{"bad base price", func(c *Config) { c.Business.BasePriceVND = "fifty" }, "BASE_PRICE_VND"},
		{"non-positive rate", func(c *Config) { c.Business.UsdToVndRate = "0" }, "USD_TO_VND_RATE"},
		{"zero sweep concurrency", func(c *Config) { c.Scheduler.SweepConcurrency = 0 }, "SCHEDULER_SWEEP_CONCURRENCY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestPolicy(t *testing.T) {
	policy := validConfig().Policy()

	assert.Equal(t, 3, policy.DueSoonDays)
	assert.Equal(t, 7, policy.GraceDays)
	assert.Equal(t, "50000", policy.BasePriceVND.String())
	assert.Equal(t, "2", policy.BasePriceUSD.String())
	assert.Equal(t, "25800", policy.UsdToVndRate.String())
}

func TestEnvironmentHelpers(t *testing.T) {
	cfg := validConfig()

	cfg.Server.Env = "development"
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Server.Env = "prod"
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
}
