package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, int64(5<<20), cfg.Storage.MaxUploadBytes)
	require.Contains(t, cfg.Storage.AllowedTypes, "application/pdf")
	require.Equal(t, 60*time.Second, cfg.Analyzer.Timeout)
	require.Equal(t, 3, cfg.Credits.FreeInitial)
	require.Equal(t, "gemini-2.5-flash", cfg.Analyzer.Model)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
env: prod
db:
  source: postgres://file
storage:
  root: /srv/data
analyzer:
  timeout: 10s
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yml"), content, 0o600))

	t.Setenv("DB_SOURCE", "postgres://env")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "postgres://env", cfg.DB.Source)
	require.Equal(t, "from-env", cfg.JWT.Secret)
	require.Equal(t, "/srv/data", cfg.Storage.Root)
	require.Equal(t, 10*time.Second, cfg.Analyzer.Timeout)
}
