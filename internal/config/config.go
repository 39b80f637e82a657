// Package config loads process-level configuration from the
// environment, faithful to the teacher's internal/config shape
// (godotenv + typed getenv helpers). Domain-tunable values (weights,
// thresholds, watchlists, risk/stop-loss/ml params) are NOT here —
// they live in the Settings table (internal/database/repositories)
// so they can change without a redeploy; Defaults() in seed.go seeds
// them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-level configuration.
type Config struct {
	Port    int
	DevMode bool

	DatabasePath string

	ScanInterval   time.Duration
	WorkerPoolSize int

	LogLevel string
}

// Load reads configuration from environment variables, optionally
// populated from a .env file if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnvAsInt("PORT", 8080),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		DatabasePath:   getEnv("DATABASE_PATH", "./data/signals.db"),
		ScanInterval:   getEnvAsDuration("SCAN_INTERVAL", 5*time.Minute),
		WorkerPoolSize: getEnvAsInt("WORKER_POOL_SIZE", 8),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required configuration is present.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.WorkerPoolSize < 1 {
		return fmt.Errorf("WORKER_POOL_SIZE must be >= 1")
	}
	if c.WorkerPoolSize > 8 {
		// spec §4.4: bounded degree of parallelism (<=8)
		c.WorkerPoolSize = 8
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
