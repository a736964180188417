package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every known key; viper treats empty variables as unset.
func clearEnv(t *testing.T) {
	for k := range defaults {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 30*time.Second, cfg.CongestionInterval)
	assert.Equal(t, "mild", cfg.CongestionModel)
	assert.Equal(t, "nearest", cfg.SelectionPolicy)
	assert.Equal(t, 20, cfg.RateBurst)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("CONGESTION_INTERVAL", "5m")
	t.Setenv("CONGESTION_MODEL", "volatile")
	t.Setenv("CONGESTION_SEED", "42")
	t.Setenv("SELECTION_POLICY", "colocated")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("RATE_RPS", "2.5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.CongestionInterval)
	assert.Equal(t, "volatile", cfg.CongestionModel)
	assert.Equal(t, int64(42), cfg.CongestionSeed)
	assert.Equal(t, "colocated", cfg.SelectionPolicy)
	assert.Equal(t, 2.5, cfg.RateRPS)
	assert.Equal(t, true, cfg.Redacted()["HAS_REDIS_URL"])
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONGESTION_MODEL", "chaotic")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "ilds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: \"7070\"\nNETWORK_PATH: /data/network.txt\n"), 0o600))
	t.Setenv("NETWORK_PATH", "/override/network.txt")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "/override/network.txt", cfg.NetworkPath)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
