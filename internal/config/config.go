// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	ServerAddress string
	Environment   string
	LogLevel      string

	// Control-plane database. A `sqlite://` or bare file path opens a local
	// file; a `postgres://` URL opens a remote hosted database.
	ControlDBURL string

	// WorkspaceDBDir is where newly auto-created workspaces get their local
	// sqlite file when no remote locator is configured.
	WorkspaceDBDir string

	// MasterKeySource names where the C1 master key comes from. "env" reads
	// MEMENTO_MASTER_KEY (32 raw bytes, base64). "dev" derives a fixed
	// non-production key and is never valid when Environment=="production".
	MasterKeySource string
	MasterKeyB64    string

	BlobDir string

	EnableVectorBackend bool
	VectorDBURL         string

	EnableLLM  bool
	LLMAPIKey  string
	LLMTimeout time.Duration

	SignupRatePerHour int
	SignupRatePerDay  int

	DecayInterval time.Duration

	EnableCORS bool
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ControlDBURL:   getEnv("CONTROL_DB_URL", "./data/control.db"),
		WorkspaceDBDir: getEnv("WORKSPACE_DB_DIR", "./data/workspaces"),

		MasterKeySource: getEnv("MASTER_KEY_SOURCE", "dev"),
		MasterKeyB64:    getEnv("MEMENTO_MASTER_KEY", ""),

		BlobDir: getEnv("BLOB_DIR", "./data/blobs"),

		EnableVectorBackend: getEnvBool("ENABLE_VECTOR_BACKEND", false),
		VectorDBURL:         getEnv("VECTOR_DB_URL", ""),

		EnableLLM:  getEnvBool("ENABLE_LLM", false),
		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMTimeout: time.Duration(getEnvInt("LLM_TIMEOUT_MS", 8000)) * time.Millisecond,

		SignupRatePerHour: getEnvInt("SIGNUP_RATE_PER_HOUR", 5),
		SignupRatePerDay:  getEnvInt("SIGNUP_RATE_PER_DAY", 20),

		DecayInterval: time.Duration(getEnvInt("DECAY_INTERVAL_SECONDS", 300)) * time.Second,

		EnableCORS: getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present for the chosen
// environment.
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.MasterKeySource == "dev" {
			return fmt.Errorf("MASTER_KEY_SOURCE=dev is not allowed in production")
		}
		if c.MasterKeyB64 == "" {
			return fmt.Errorf("MEMENTO_MASTER_KEY is required in production")
		}
	}
	return nil
}

// IsProduction reports whether the service is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	return v == "true" || v == "1" || v == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}
