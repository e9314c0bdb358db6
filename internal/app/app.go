// Package app initializes and holds long-lived application services,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pagespeedlab/sitespeed-runner/internal/api"
	"github.com/pagespeedlab/sitespeed-runner/internal/clock/system"
	"github.com/pagespeedlab/sitespeed-runner/internal/config"
	"github.com/pagespeedlab/sitespeed-runner/internal/id/uuid"
	"github.com/pagespeedlab/sitespeed-runner/internal/launcher"
	"github.com/pagespeedlab/sitespeed-runner/internal/manager"
	"github.com/pagespeedlab/sitespeed-runner/internal/metrics"
	"github.com/pagespeedlab/sitespeed-runner/internal/notify"
	"github.com/pagespeedlab/sitespeed-runner/internal/registry"
	"github.com/pagespeedlab/sitespeed-runner/internal/report"
)

// App holds the shared, long-lived services for the scan service. It is
// initialized once at startup and passed to the components that need it.
type App struct {
	logger   *zap.Logger
	manager  *manager.Manager
	notifier notify.Provider
	server   *api.Server
}

// New creates and initializes an App from configuration. It is the central
// point for service initialization and fails fast if any critical service
// cannot be built.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	metrics.Init()

	if err := os.MkdirAll(cfg.Reports.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}

	notifier, err := buildNotifier(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	hostScripts := cfg.Scripts.HostDir
	if hostScripts == "" {
		hostScripts = filepath.Join(cfg.HostReportsDir(), "_scripts")
	}

	dockerLauncher := launcher.NewDocker(launcher.Config{
		Image:          cfg.Sitespeed.Image,
		HostReportsDir: cfg.HostReportsDir(),
		HostScriptsDir: hostScripts,
		Locale:         cfg.Sitespeed.Locale,
	}, logger.Named("launcher"))

	mgr := manager.New(
		registry.New(),
		dockerLauncher,
		system.New(),
		uuid.New(),
		notifier,
		manager.Config{
			ReportsDir:    cfg.Reports.Dir,
			Timeout:       cfg.ScanTimeout(),
			MaxConcurrent: cfg.Scans.MaxConcurrent,
		},
		logger.Named("manager"),
	)

	locator := report.NewLocator(cfg.Reports.Dir)
	server := api.NewServer(mgr, locator, cfg.Reports.Dir, logger.Named("api"))

	return &App{
		logger:   logger,
		manager:  mgr,
		notifier: notifier,
		server:   server,
	}, nil
}

func buildNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Provider, error) {
	switch cfg.Notify.Provider {
	case "pubsub":
		logger.Info("using pubsub notify provider",
			zap.String("project", cfg.Notify.ProjectID),
			zap.String("topic", cfg.Notify.TopicID),
		)
		provider, err := notify.NewPubSubProvider(ctx, cfg.Notify.ProjectID, cfg.Notify.TopicID, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize notify provider: %w", err)
		}
		return provider, nil
	case "", "noop":
		logger.Info("using no-op notify provider; completion events will be discarded")
		return &notify.NoOpProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown notify provider: %s", cfg.Notify.Provider)
	}
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Manager exposes the scan manager, mainly so shutdown can drain it.
func (a *App) Manager() *manager.Manager {
	return a.manager
}

// Close gracefully shuts down all services in the App container.
func (a *App) Close() {
	a.logger.Info("shutting down application services")
	if err := a.notifier.Close(); err != nil {
		a.logger.Warn("error closing notify provider", zap.Error(err))
	}
	// Flushing the logger buffer is best-effort; logging itself may be
	// the thing that is failing.
	_ = a.logger.Sync()
}
