package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Env variable names (documented for reference)
const (
	envVersion       = "APP_VERSION"
	envLogLevel      = "LOG_LEVEL"
	envDBUser        = "DB_USER"
	envDBPass        = "DB_PASS"
	envDBHost        = "DB_HOST" // "host:port" of the MongoDB deployment
	envDBName        = "DB_NAME"
	envResetHistory  = "RESET_HISTORY" // "true" wipes chat histories on connect
	envOpTimeout     = "OP_TIMEOUT"    // Go duration string, e.g. "10s"
	envMetricsAddr   = "METRICS_ADDR"
	envStatsInterval = "STATS_INTERVAL" // gauge refresh period, e.g. "1m"
)

// Config aggregates all runtime settings required by the application.
// All fields are immutable after MustLoad().
//
// The MongoDB endpoint is deliberately a setting, not a constant: the same
// binary must reach a local instance in development and the deployment host
// in production without a rebuild.
//
// Example:
//
//	DB_NAME=chatbot DB_USER=admin DB_PASS=secret go run ./cmd/chatbot-store list -c users
type Config struct {
	Version       string        // app semantic version or git SHA
	LogLevel      string        // debug, info, warn, error, fatal (zap levels)
	DBUser        string        // MongoDB username; empty for unauthenticated deployments
	DBPass        string        // MongoDB password
	DBHost        string        // MongoDB "host:port"
	DBName        string        // database holding the chatbot collections
	ResetHistory  bool          // drop and recreate chat histories on connect
	OpTimeout     time.Duration // per-operation deadline, default 10s
	MetricsAddr   string        // listen address for the Prometheus endpoint
	StatsInterval time.Duration // collection-gauge refresh period, default 1m
}

var (
	defaultVersion       = "dev"
	defaultLogLevel      = "info"
	defaultDBHost        = "localhost:27017"
	defaultOpTimeout     = 10 * time.Second
	defaultMetricsAddr   = ":8080"
	defaultStatsInterval = time.Minute
)

// MustLoad is a convenience wrapper around Load() that panics on error.
// Preferable in main() early startup where configuration problems are fatal.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads environment variables, applies defaults, validates the result
// and returns a ready-to-use Config instance.
func Load() (Config, error) {
	var cfg Config

	cfg.Version = getEnv(envVersion, defaultVersion)
	cfg.LogLevel = getEnv(envLogLevel, defaultLogLevel)
	cfg.DBUser = os.Getenv(envDBUser)
	cfg.DBPass = os.Getenv(envDBPass)
	cfg.DBHost = getEnv(envDBHost, defaultDBHost)
	cfg.DBName = os.Getenv(envDBName) // required, no default

	if s := os.Getenv(envResetHistory); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envResetHistory, err)
		}
		cfg.ResetHistory = b
	}

	if s := os.Getenv(envOpTimeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envOpTimeout, err)
		}
		cfg.OpTimeout = d
	} else {
		cfg.OpTimeout = defaultOpTimeout
	}

	cfg.MetricsAddr = getEnv(envMetricsAddr, defaultMetricsAddr)

	if s := os.Getenv(envStatsInterval); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envStatsInterval, err)
		}
		cfg.StatsInterval = d
	} else {
		cfg.StatsInterval = defaultStatsInterval
	}

	// Validation
	if cfg.DBName == "" {
		return Config{}, fmt.Errorf("%s is required", envDBName)
	}
	if cfg.DBUser == "" && cfg.DBPass != "" {
		return Config{}, fmt.Errorf("%s set without %s", envDBPass, envDBUser)
	}
	if cfg.OpTimeout < time.Second {
		return Config{}, fmt.Errorf("operation timeout too small (>=1s)")
	}
	if cfg.StatsInterval < time.Second {
		return Config{}, fmt.Errorf("stats interval too small (>=1s)")
	}
	return cfg, nil
}

// getEnv returns the value of the environment variable if set, otherwise def.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
