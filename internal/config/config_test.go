package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitolwatch/capitolwatch/pkg/constants"
	"github.com/capitolwatch/capitolwatch/pkg/errors"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("CONGRESS_GOV_API_KEY", "congress-key")
	t.Setenv("CONGRESS", "118")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "capitolwatch", cfg.MongoDatabase, "database name defaults")
	assert.Equal(t, 118, cfg.Congress)

	key, err := cfg.RequireCongressKey()
	require.NoError(t, err)
	assert.Equal(t, "congress-key", key)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("CONGRESS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, constants.CurrentCongress, cfg.Congress)
}

func TestLoadRequiresMongoURI(t *testing.T) {
	t.Setenv("MONGODB_URI", "")

	_, err := Load()
	require.Error(t, err)

	var cfgErr *errors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestRequireKeysReturnTypedErrors(t *testing.T) {
	cfg := &Config{}

	_, err := cfg.RequireFECKey()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAPIKeyRequired))

	_, err = cfg.RequireGeminiKey()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAPIKeyRequired))
}
