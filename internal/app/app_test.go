// Package app_test contains unit tests for the app package.
package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pagespeedlab/sitespeed-runner/internal/app"
	"github.com/pagespeedlab/sitespeed-runner/internal/config"
)

func baseConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Server:  config.ServerConfig{Port: 5001},
		Reports: config.ReportsConfig{Dir: filepath.Join(t.TempDir(), "reports")},
		Sitespeed: config.SitespeedConfig{
			Image:          "sitespeedio/sitespeed.io:38.6.0-plus1",
			Locale:         "fr",
			TimeoutSeconds: 600,
		},
		Notify: config.NotifyConfig{Provider: "noop"},
	}
}

func TestNewBuildsServices(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	a, err := app.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Handler())
	assert.NotNil(t, a.Manager())
	// The reports directory is created eagerly so the first scan can mount it.
	assert.DirExists(t, cfg.Reports.Dir)
}

func TestNewRejectsUnknownNotifyProvider(t *testing.T) {
	t.Parallel()

	cfg := baseConfig(t)
	cfg.Notify.Provider = "carrier-pigeon"
	_, err := app.New(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown notify provider")
}
