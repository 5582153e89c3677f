package cmd

import (
	"context"
	"testing"

	"aicruit/internal/app"
	"aicruit/internal/config"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkipAppInit(t *testing.T) {
	root := &cobra.Command{Use: "aicruit"}
	help := &cobra.Command{Use: "help"}
	completion := &cobra.Command{Use: "completion"}
	bash := &cobra.Command{Use: "bash"}
	worker := &cobra.Command{Use: "worker"}
	completion.AddCommand(bash)
	root.AddCommand(help, completion, worker)

	assert.True(t, skipAppInit(help))
	assert.True(t, skipAppInit(bash))
	assert.False(t, skipAppInit(worker))
	assert.False(t, skipAppInit(root))
}

func TestSetupLogging(t *testing.T) {
	defer log.SetLevel(log.GetLevel())
	defer log.SetFormatter(log.StandardLogger().Formatter)

	cfg := &config.Config{}
	cfg.Log.Level = "debug"
	cfg.Log.Format = "JSON"
	require.NoError(t, setupLogging(cfg))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	cfg.Log.Level = ""
	cfg.Log.Format = ""
	require.NoError(t, setupLogging(cfg))
	assert.Equal(t, log.InfoLevel, log.GetLevel())

	cfg.Log.Level = "loud"
	assert.Error(t, setupLogging(cfg))
}

func TestGetAppFromContext(t *testing.T) {
	_, err := GetAppFromContext(context.Background())
	assert.Error(t, err)

	a := &app.App{}
	got, err := GetAppFromContext(context.WithValue(context.Background(), appKey, a))
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestStatusColor(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = noColor }()

	assert.Equal(t, color.GreenString("scored"), statusColor("scored"))
	assert.Equal(t, color.RedString("archived"), statusColor("archived"))
	assert.Equal(t, "unknown", statusColor("unknown"))
}
