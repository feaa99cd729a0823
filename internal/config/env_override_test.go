package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides_Database(t *testing.T) {
	t.Run("BANKBOT_DB sets path", func(t *testing.T) {
		t.Setenv("BANKBOT_DB", "/tmp/override.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	})

	t.Run("BANKBOT_DB_DRIVER sets driver", func(t *testing.T) {
		t.Setenv("BANKBOT_DB_DRIVER", "sqlite3")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "sqlite3", cfg.Database.Driver)
	})

	t.Run("empty values leave config alone", func(t *testing.T) {
		t.Setenv("BANKBOT_DB", "")
		t.Setenv("BANKBOT_DB_DRIVER", "")

		cfg := &Config{Database: DatabaseConfig{Driver: "sqlite", Path: "keep.db"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "keep.db", cfg.Database.Path)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
	})
}

func TestEnvOverrides_Threshold(t *testing.T) {
	t.Run("valid integer overrides", func(t *testing.T) {
		t.Setenv("BANKBOT_MAX_VALIDATION_FAILURES", "4")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, 4, cfg.Forms.MaxValidationFailures)
	})

	t.Run("garbage is ignored", func(t *testing.T) {
		t.Setenv("BANKBOT_MAX_VALIDATION_FAILURES", "many")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, DefaultMaxValidationFailures, cfg.Forms.MaxValidationFailures)
	})
}

func TestEnvOverrides_LogLevelEnablesDebugMode(t *testing.T) {
	t.Setenv("BANKBOT_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.False(t, cfg.Logging.DebugMode)
	cfg.applyEnvOverrides()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.DebugMode)
}

func TestEnvOverrides_AppliedByLoad(t *testing.T) {
	t.Setenv("BANKBOT_MAX_VALIDATION_FAILURES", "7")

	cfg, err := Load(t.TempDir() + "/missing.yaml")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Forms.MaxValidationFailures)
}
