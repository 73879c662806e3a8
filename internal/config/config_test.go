package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvLogLevel, EnvDB, EnvProfiles, EnvWorkers} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Workers)
	assert.False(t, cfg.Debug())
	assert.False(t, cfg.HistoryEnabled())
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvDB, "/tmp/phantom.db")
	t.Setenv(EnvProfiles, " profiles.json ")
	t.Setenv(EnvWorkers, "4")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.Debug())
	assert.True(t, cfg.HistoryEnabled())
	assert.Equal(t, "/tmp/phantom.db", cfg.DBPath)
	assert.Equal(t, "profiles.json", cfg.ProfilesPath)
	assert.Equal(t, 4, cfg.Workers)
}

func TestFromEnv_InvalidWorkers(t *testing.T) {
	for _, v := range []string{"many", "0", "-3"} {
		t.Run(v, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(EnvWorkers, v)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvDB)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvDB+"=history.db\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "history.db", cfg.DBPath)
}
