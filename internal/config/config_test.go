package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".valmetrics", "metrics.db"), cfg.DB)
	require.Equal(t, "warn", cfg.LogLevel)
	require.False(t, cfg.CompetitiveOnly)
	require.Equal(t, 4, cfg.Workers)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "valmetrics.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db: /tmp/file.db\nlog_level: info\nworkers: 2\n"), 0o600))

	t.Setenv("VALMETRICS_COMPETITIVE_ONLY", "true")
	t.Setenv("VALMETRICS_LOG_LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "")
	flags.Int("workers", 0, "")
	require.NoError(t, flags.Parse([]string{"--workers", "8"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	require.Equal(t, "/tmp/file.db", cfg.DB, "unset flag must not shadow the file")
	require.Equal(t, "debug", cfg.LogLevel, "env overrides file")
	require.True(t, cfg.CompetitiveOnly)
	require.Equal(t, 8, cfg.Workers, "flag overrides file")
}

func TestLoadDefaultFileInDataDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".valmetrics"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".valmetrics", "config.yaml"),
		[]byte("competitive_only: true\nworkers: 0\n"), 0o600))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.True(t, cfg.CompetitiveOnly)
	require.Equal(t, 1, cfg.Workers)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}
