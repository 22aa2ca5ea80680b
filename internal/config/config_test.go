package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	require.Equal(t, DefaultServerLogLevel, cfg.Server.LogLevel)
	require.Equal(t, DefaultDispatchHistoryLimit, cfg.Dispatch.HistoryLimit)
	require.Equal(t, DefaultDispatchModelHistoryWindow, cfg.Dispatch.ModelHistoryWindow)
	require.Equal(t, DefaultSchedulerTickInterval, cfg.Scheduler.TickInterval)
	require.Contains(t, cfg.Transcript.WakeWords, "hibiki")
	require.NotEmpty(t, cfg.Models.Registry)
}

func TestLoad_ConfigFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  log_level: debug\ndispatch:\n  history_limit: 4\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cmd := &cobra.Command{}
	cmd.Flags().String("config", path, "")

	cfg, err := Load(cmd)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, 4, cfg.Dispatch.HistoryLimit)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HIBIKI_SERVER_LOG_LEVEL", "warn")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Server.LogLevel)
}

func TestDurationOrDefault(t *testing.T) {
	d, err := DurationOrDefault("", DefaultDispatchDetectionGuardGap)
	require.NoError(t, err)
	require.Equal(t, int64(2200), d.Milliseconds())

	_, err = DurationOrDefault("nonsense", "1s")
	require.Error(t, err)
}
