// Package config loads pipeline configuration from the environment.
// Precedence: environment variables, then .env files, then a config file
// (~/.capitolwatch.yaml), then defaults.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/capitolwatch/capitolwatch/pkg/constants"
	"github.com/capitolwatch/capitolwatch/pkg/errors"
)

// Config holds everything the pipeline needs to reach its external
// collaborators: the document store and the source APIs.
type Config struct {
	// Document store
	MongoURI      string
	MongoDatabase string

	// External source API keys
	CongressAPIKey string
	FECAPIKey      string
	GeminiAPIKey   string

	// Sync scope
	Congress int

	// Logging
	LogLevel string
}

// Load reads configuration from all sources.
func Load() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	bindEnvKeys()

	// Config file is optional.
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".capitolwatch")
	}
	_ = viper.ReadInConfig()

	viper.SetDefault("mongodb_database", "capitolwatch")
	viper.SetDefault("congress", constants.CurrentCongress)
	viper.SetDefault("log_level", "info")

	cfg := &Config{
		MongoURI:       viper.GetString("mongodb_uri"),
		MongoDatabase:  viper.GetString("mongodb_database"),
		CongressAPIKey: viper.GetString("congress_gov_api_key"),
		FECAPIKey:      viper.GetString("fec_api_key"),
		GeminiAPIKey:   viper.GetString("gemini_api_key"),
		Congress:       viper.GetInt("congress"),
		LogLevel:       viper.GetString("log_level"),
	}

	return cfg, cfg.validate()
}

// validate checks that the store is reachable in principle. API keys are
// validated lazily by the jobs that need them, so a members-only sync works
// without an FEC key.
func (c *Config) validate() error {
	if c.MongoURI == "" {
		return errors.NewConfigError("store", "MONGODB_URI not set", nil)
	}
	if c.Congress <= 0 {
		return errors.NewConfigError("sync", "congress must be positive", nil)
	}
	return nil
}

// RequireCongressKey returns the Congress.gov API key or a typed error.
func (c *Config) RequireCongressKey() (string, error) {
	if c.CongressAPIKey == "" {
		return "", errors.NewConfigError("congress.gov", "CONGRESS_GOV_API_KEY not set", errors.ErrAPIKeyRequired)
	}
	return c.CongressAPIKey, nil
}

// RequireFECKey returns the FEC API key or a typed error.
func (c *Config) RequireFECKey() (string, error) {
	if c.FECAPIKey == "" {
		return "", errors.NewConfigError("fec", "FEC_API_KEY not set", errors.ErrAPIKeyRequired)
	}
	return c.FECAPIKey, nil
}

// RequireGeminiKey returns the embedding service API key or a typed error.
func (c *Config) RequireGeminiKey() (string, error) {
	if c.GeminiAPIKey == "" {
		return "", errors.NewConfigError("embeddings", "GEMINI_API_KEY not set", errors.ErrAPIKeyRequired)
	}
	return c.GeminiAPIKey, nil
}

// loadEnvFiles loads .env files if present, without overriding variables
// already set in the environment.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

// bindEnvKeys binds the well-known environment variable names so they
// resolve regardless of viper key casing.
func bindEnvKeys() {
	for _, key := range []string{
		"MONGODB_URI",
		"MONGODB_DATABASE",
		"CONGRESS_GOV_API_KEY",
		"FEC_API_KEY",
		"GEMINI_API_KEY",
		"CONGRESS",
		"LOG_LEVEL",
	} {
		_ = viper.BindEnv(strings.ToLower(key), key)
	}
}
