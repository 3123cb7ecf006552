package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"api_keys": ["k1"]}`))
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 200, cfg.Redis.IOTimeoutMS)
	require.Equal(t, 60, cfg.RateLimit.PerWindow)
	require.Equal(t, 60, cfg.RateLimit.WindowSeconds)
	require.Equal(t, 30, cfg.RateLimit.ExpiryBufferSeconds)
	require.Equal(t, 300, cfg.Cache.TTLSeconds)
	require.EqualValues(t, 1<<20, cfg.Audio.MaxSizeBytes)
	require.Equal(t, 1.0, cfg.Audio.MinDurationSeconds)
	require.Equal(t, 10.0, cfg.Audio.MaxDurationSeconds)
	require.Contains(t, cfg.Audio.Languages, "English")
	require.Contains(t, cfg.Audio.Formats, "wav")
	require.Equal(t, 25000, cfg.Pipeline.DeadlineMS)
	require.Equal(t, 2, cfg.Pipeline.MaxWorkers)
	require.Equal(t, "local", cfg.ModelStore.Type)
	require.Equal(t, "model.json", cfg.ModelStore.ArtifactKey)
}

func TestLoad_ExplicitValuesKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"port": 9090,
		"api_keys": ["k1", "k2"],
		"rate_limit": {"per_window": 5, "window_seconds": 10},
		"audio": {"max_size_bytes": 2048, "languages": ["English"]},
		"pipeline": {"deadline_ms": 1000, "max_workers": 8}
	}`))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, []string{"k1", "k2"}, cfg.APIKeys)
	require.Equal(t, 5, cfg.RateLimit.PerWindow)
	require.Equal(t, 10, cfg.RateLimit.WindowSeconds)
	require.EqualValues(t, 2048, cfg.Audio.MaxSizeBytes)
	require.Equal(t, []string{"English"}, cfg.Audio.Languages)
	require.Equal(t, 1000, cfg.Pipeline.DeadlineMS)
	require.Equal(t, 8, cfg.Pipeline.MaxWorkers)
}

func TestLoad_APIKeysRequired(t *testing.T) {
	_, err := Load(writeConfig(t, `{"port": 8080}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "api_keys")
}

func TestLoad_BadInput(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{not json`))
	require.Error(t, err)
}
