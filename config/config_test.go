package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("OWNER_ID", "42")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Token)
	assert.Equal(t, int64(42), cfg.OwnerID)
	assert.Equal(t, BackendJSON, cfg.StorageBackend)
	assert.Equal(t, "bot_data.json", cfg.DataPath)
	assert.Equal(t, "data.sqlite", cfg.DatabasePath)
	assert.Equal(t, 20.0, cfg.FanoutRate)
	assert.Empty(t, cfg.BootstrapDeputies)
	assert.Empty(t, cfg.MetricsListen)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("OWNER_ID", "42")
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("BOOTSTRAP_DEPUTIES", "5,6")
	t.Setenv("FANOUT_RATE", "0")
	t.Setenv("METRICS_LISTEN", ":9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, []int64{5, 6}, cfg.BootstrapDeputies)
	assert.Zero(t, cfg.FanoutRate)
	assert.Equal(t, ":9100", cfg.MetricsListen)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	t.Setenv("OWNER_ID", "0")
	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidOwner)

	t.Setenv("OWNER_ID", "42")
	t.Setenv("STORAGE_BACKEND", "redis")
	_, err = Load()
	assert.ErrorIs(t, err, ErrInvalidBackend)

	t.Setenv("STORAGE_BACKEND", "json")
	t.Setenv("FANOUT_RATE", "-1")
	_, err = Load()
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("OWNER_ID", "42")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EDITGUARD_TEST_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("EDITGUARD_TEST_VALUE") })

	LoadEnvFile(path)
	assert.Equal(t, "from-file", os.Getenv("EDITGUARD_TEST_VALUE"))

	// missing file is tolerated
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}
