package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidiansystems/hw-app-kda/pkg/log"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("KDA_CONFIG_DIR", dir)

		cfg, err := Load(log.NewNoopLogger())
		require.NoError(t, err)

		assert.Equal(t, dir, cfg.ConfigDir)
		assert.Equal(t, TransportHID, cfg.Transport)
		assert.Equal(t, 0, cfg.DeviceIndex)
		assert.Equal(t, 230, cfg.ChunkSize)
		assert.False(t, cfg.LenientPaths)
		assert.Equal(t, "", cfg.MetricsAddr)
		assert.Equal(t, historyFileName, filepath.Base(cfg.HistoryPath))
		assert.Empty(t, cfg.Accounts().Accounts)
		assert.Equal(t, log.LevelInfo, cfg.Log.Level)
	})

	t.Run("Environment overrides", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("KDA_CONFIG_DIR", dir)
		t.Setenv("KDA_TRANSPORT", "zondax")
		t.Setenv("KDA_DEVICE_INDEX", "2")
		t.Setenv("KDA_CHUNK_SIZE", "64")
		t.Setenv("KDA_HISTORY_PATH", filepath.Join(dir, "h.db"))
		t.Setenv("KDA_METRICS_ADDR", "localhost:9090")
		t.Setenv("KDA_LOG_LEVEL", "debug")

		cfg, err := Load(log.NewNoopLogger())
		require.NoError(t, err)

		assert.Equal(t, TransportZondax, cfg.Transport)
		assert.Equal(t, 2, cfg.DeviceIndex)
		assert.Equal(t, 64, cfg.ChunkSize)
		assert.Equal(t, filepath.Join(dir, "h.db"), cfg.HistoryPath)
		assert.Equal(t, "localhost:9090", cfg.MetricsAddr)
		assert.Equal(t, log.LevelDebug, cfg.Log.Level)
	})

	t.Run("Invalid values", func(t *testing.T) {
		tests := map[string]string{
			"KDA_TRANSPORT":    "bluetooth",
			"KDA_CHUNK_SIZE":   "256",
			"KDA_DEVICE_INDEX": "-1",
			"KDA_LOG_FORMAT":   "xml",
		}

		for key, value := range tests {
			t.Run(key, func(t *testing.T) {
				t.Setenv("KDA_CONFIG_DIR", t.TempDir())
				t.Setenv(key, value)

				_, err := Load(log.NewNoopLogger())
				assert.Error(t, err)
			})
		}
	})

	t.Run("Dotenv file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, ".env", "KDA_CHUNK_SIZE=100\n")
		t.Setenv("KDA_CONFIG_DIR", dir)
		t.Cleanup(func() { os.Unsetenv("KDA_CHUNK_SIZE") })

		cfg, err := Load(log.NewNoopLogger())
		require.NoError(t, err)
		assert.Equal(t, 100, cfg.ChunkSize)
	})

	t.Run("Accounts are loaded", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, accountsFileName, "accounts:\n  - name: main\n    path: 44'/626'/0'/0/0\n")
		t.Setenv("KDA_CONFIG_DIR", dir)

		cfg, err := Load(log.NewNoopLogger())
		require.NoError(t, err)
		assert.Equal(t, []string{"main"}, cfg.Accounts().Names())
	})
}
