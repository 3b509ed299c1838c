package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopower/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Power     PowerConfig
	Export    ExportConfig
	Profiling ProfilingConfig
	LogLevel  string
}

// DatabaseConfig holds database connection settings. An empty URL keeps plans in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port         string
	GinMode      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PowerConfig holds defaults applied when a request omits alpha or power
type PowerConfig struct {
	DefaultAlpha     float64
	DefaultPower     float64
	SweepConcurrency int
	MaxSweepCells    int
}

// ExportConfig holds spreadsheet export settings
type ExportConfig struct {
	Dir string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database:  *loadDatabaseConfig(),
		Server:    *loadServerConfig(),
		Power:     *loadPowerConfig(),
		Export:    *loadExportConfig(),
		Profiling: *loadProfilingConfig(),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:             getEnvOrDefault("DATABASE_URL", ""),
		MaxOpenConns:    getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		ConnMaxLifetime: getEnvDurationOrDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:         getEnvOrDefault("PORT", "8080"),
		GinMode:      getEnvOrDefault("GIN_MODE", "release"),
		ReadTimeout:  getEnvDurationOrDefault("READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getEnvDurationOrDefault("WRITE_TIMEOUT", 30*time.Second),
	}
}

func loadPowerConfig() *PowerConfig {
	return &PowerConfig{
		DefaultAlpha:     getEnvFloatOrDefault("DEFAULT_ALPHA", 0.05),
		DefaultPower:     getEnvFloatOrDefault("DEFAULT_POWER", 0.8),
		SweepConcurrency: getEnvIntOrDefault("SWEEP_CONCURRENCY", 4),
		MaxSweepCells:    getEnvIntOrDefault("MAX_SWEEP_CELLS", 10000),
	}
}

func loadExportConfig() *ExportConfig {
	return &ExportConfig{
		Dir: getEnvOrDefault("EXPORT_DIR", "./exports"),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if !(config.Power.DefaultAlpha > 0 && config.Power.DefaultAlpha < 1) {
		return errors.ConfigInvalid(fmt.Sprintf("DEFAULT_ALPHA must lie in (0,1), got %v", config.Power.DefaultAlpha))
	}
	if !(config.Power.DefaultPower > 0 && config.Power.DefaultPower < 1) {
		return errors.ConfigInvalid(fmt.Sprintf("DEFAULT_POWER must lie in (0,1), got %v", config.Power.DefaultPower))
	}
	if config.Power.SweepConcurrency < 1 {
		return errors.ConfigInvalid("SWEEP_CONCURRENCY must be at least 1")
	}
	if config.Power.MaxSweepCells < 1 {
		return errors.ConfigInvalid("MAX_SWEEP_CELLS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
