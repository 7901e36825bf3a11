package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/studydeck/internal/validate"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Flags(), nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "studydeck.db", cfg.DB)
	assert.Equal(t, "repos", cfg.ReposDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0.9, cfg.DesiredRetention)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.Sync)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studydeck.yaml")
	yml := "addr: \":9000\"\ndb: from-file.db\nlog_level: warn\nsession_ttl: 30m\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("STUDYDECK_DB", "from-env.db")

	cfg, err := Load(Flags(), []string{"--config", path, "--log-level", "debug"})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr, "file beats default")
	assert.Equal(t, "from-env.db", cfg.DB, "env beats file")
	assert.Equal(t, "debug", cfg.LogLevel, "flag beats file")
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
}

func TestLoadValidates(t *testing.T) {
	_, err := Load(Flags(), []string{"--log-level", "loud"})
	assert.True(t, validate.IsValidation(err), "got %v", err)

	_, err = Load(Flags(), []string{"--desired-retention", "1.5"})
	assert.True(t, validate.IsValidation(err), "got %v", err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(Flags(), []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
