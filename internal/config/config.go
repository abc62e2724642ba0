package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Storage backend names accepted by STORAGE_TYPE and FUNDS_BACKEND.
const (
	StorageFile   = "file"
	StorageMemory = "memory"

	FundsKV     = "kv"
	FundsSQLite = "sqlite"
	FundsMemory = "memory"
)

// Config holds all configuration for the application
type Config struct {
	// Table settings
	NumDecks     int
	MinBet       int64
	DefaultFunds int64
	PlayerID     string

	// Storage
	DataDir      string
	StorageType  string // "file" or "memory"
	FundsBackend string // "kv", "sqlite" or "memory"

	// History
	HistoryEnabled bool

	// Elasticsearch mirror (optional)
	ElasticsearchURL      string
	ElasticsearchUsername string
	ElasticsearchPassword string

	// Server
	ListenAddr string

	// Environment
	Environment string // "development" or "production"
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg := &Config{
		NumDecks:              getEnvIntWithDefault("NUM_DECKS", 1),
		MinBet:                int64(getEnvIntWithDefault("MIN_BET", 10)),
		DefaultFunds:          int64(getEnvIntWithDefault("DEFAULT_FUNDS", 1000)),
		PlayerID:              getEnvWithDefault("PLAYER_ID", "local"),
		DataDir:               getEnvWithDefault("DATA_DIR", filepath.Join(wd, "data")),
		StorageType:           getEnvWithDefault("STORAGE_TYPE", StorageFile),
		FundsBackend:          getEnvWithDefault("FUNDS_BACKEND", FundsKV),
		HistoryEnabled:        getEnvBoolWithDefault("HISTORY_ENABLED", true),
		ElasticsearchURL:      os.Getenv("ELASTICSEARCH_URL"),
		ElasticsearchUsername: os.Getenv("ELASTICSEARCH_USERNAME"),
		ElasticsearchPassword: os.Getenv("ELASTICSEARCH_PASSWORD"),
		ListenAddr:            getEnvWithDefault("LISTEN_ADDR", "127.0.0.1:8080"),
		Environment:           getEnvWithDefault("ENVIRONMENT", "development"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// validate checks configuration values for basic sanity
func (c *Config) validate() error {
	if c.NumDecks < 1 || c.NumDecks > 8 {
		return fmt.Errorf("NUM_DECKS must be between 1 and 8, got %d", c.NumDecks)
	}
	if c.MinBet < 1 {
		return fmt.Errorf("MIN_BET must be positive, got %d", c.MinBet)
	}
	if c.DefaultFunds < c.MinBet {
		return fmt.Errorf("DEFAULT_FUNDS (%d) must cover MIN_BET (%d)", c.DefaultFunds, c.MinBet)
	}
	switch c.StorageType {
	case StorageFile, StorageMemory:
	default:
		return fmt.Errorf("STORAGE_TYPE must be %q or %q, got %q", StorageFile, StorageMemory, c.StorageType)
	}
	switch c.FundsBackend {
	case FundsKV, FundsSQLite, FundsMemory:
	default:
		return fmt.Errorf("FUNDS_BACKEND must be %q, %q or %q, got %q", FundsKV, FundsSQLite, FundsMemory, c.FundsBackend)
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// StoragePath returns the snapshot file location
func (c *Config) StoragePath() string {
	return filepath.Join(c.DataDir, "blackjack.json")
}

// HistoryDBPath returns the round history database location
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// FundsDBPath returns the funds ledger database location
func (c *Config) FundsDBPath() string {
	return filepath.Join(c.DataDir, "funds.db")
}

// getEnvWithDefault returns environment variable value or default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
