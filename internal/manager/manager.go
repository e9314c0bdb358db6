// Package manager implements the scan job lifecycle: submission,
// background execution, and status queries.
package manager

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pagespeedlab/sitespeed-runner/internal/metrics"
	"github.com/pagespeedlab/sitespeed-runner/internal/notify"
	"github.com/pagespeedlab/sitespeed-runner/internal/scan"
	"github.com/pagespeedlab/sitespeed-runner/internal/script"
)

// containerReportsDir is where the launcher mounts the reports volume
// inside the container. Script targets are addressed relative to it.
const containerReportsDir = "/sitespeed.io"

// Config controls Manager behavior.
type Config struct {
	// ReportsDir is the local directory the container writes reports into.
	ReportsDir string
	// Timeout bounds one scan's wall-clock execution.
	Timeout time.Duration
	// MaxConcurrent caps simultaneously executing scans. Zero means
	// unbounded; submissions beyond the cap wait in the queued state.
	MaxConcurrent int
}

// Manager owns scan jobs from submission to terminal state. Each accepted
// submission gets exactly one goroutine which drives the job to completed
// or failed; records are never retried or revived.
type Manager struct {
	registry scan.Registry
	launcher scan.Launcher
	clock    scan.Clock
	ids      scan.IDGenerator
	notifier notify.Provider
	cfg      Config
	logger   *zap.Logger

	sem chan struct{}
	wg  sync.WaitGroup
}

// New constructs a Manager.
func New(
	registry scan.Registry,
	launcher scan.Launcher,
	clock scan.Clock,
	ids scan.IDGenerator,
	notifier notify.Provider,
	cfg Config,
	logger *zap.Logger,
) *Manager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 600 * time.Second
	}
	m := &Manager{
		registry: registry,
		launcher: launcher,
		clock:    clock,
		ids:      ids,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
	if cfg.MaxConcurrent > 0 {
		m.sem = make(chan struct{}, cfg.MaxConcurrent)
	}
	return m
}

// Submit validates the request, records a queued job, and starts its
// execution in the background. It returns the queued record immediately.
func (m *Manager) Submit(_ context.Context, req scan.SubmitRequest) (scan.Job, error) {
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		return scan.Job{}, fmt.Errorf("%w: url must start with http:// or https://", scan.ErrInvalidInput)
	}

	id, err := m.ids.NewID()
	if err != nil {
		return scan.Job{}, fmt.Errorf("allocate scan id: %w", err)
	}

	job := scan.Job{
		ID:        id,
		URL:       req.URL,
		Status:    scan.StatusQueued,
		StartedAt: m.clock.Now(),
	}
	if err := m.registry.Create(job); err != nil {
		return scan.Job{}, fmt.Errorf("record scan job: %w", err)
	}

	m.logger.Info("scan accepted",
		zap.String("scan_id", id),
		zap.String("url", req.URL),
		zap.Bool("remove_age_gate", req.RemoveAgeGate),
	)

	m.wg.Add(1)
	go m.execute(job, req)

	return job, nil
}

// GetStatus fetches one job record.
func (m *Manager) GetStatus(id string) (scan.Job, error) {
	return m.registry.Get(id)
}

// List returns every known job, oldest submission first.
func (m *Manager) List() []scan.Job {
	jobs := m.registry.List()
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].StartedAt.Equal(jobs[j].StartedAt) {
			return jobs[i].StartedAt.Before(jobs[j].StartedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
	return jobs
}

// Wait blocks until every in-flight scan has reached a terminal state.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) execute(job scan.Job, req scan.SubmitRequest) {
	defer m.wg.Done()

	if m.sem != nil {
		m.sem <- struct{}{}
		defer func() { <-m.sem }()
	}

	metrics.IncActiveScans()
	defer metrics.DecActiveScans()

	if err := m.registry.MarkRunning(job.ID); err != nil {
		m.logger.Error("mark running failed", zap.String("scan_id", job.ID), zap.Error(err))
		return
	}

	spec := scan.LaunchSpec{
		Target:       req.URL,
		OutputFolder: job.ID,
		ExtraArgs:    req.Options,
	}
	if req.RemoveAgeGate {
		scriptName := fmt.Sprintf("scan_%s.cjs", job.ID)
		hostPath := filepath.Join(m.cfg.ReportsDir, "_scripts", scriptName)
		if err := m.writeScript(hostPath, req.URL); err != nil {
			m.fail(job, fmt.Sprintf("write scan script: %v", err))
			return
		}
		defer m.removeScript(job.ID, hostPath)
		spec.Target = path.Join(containerReportsDir, "_scripts", scriptName)
		spec.Multi = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
	defer cancel()

	result, err := m.launcher.Launch(ctx, spec)
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		m.fail(job, fmt.Sprintf("scan timeout (%d seconds exceeded)", int(m.cfg.Timeout.Seconds())))
	case err != nil:
		m.fail(job, err.Error())
	case result.ExitCode != 0:
		m.fail(job, failureText(result))
	default:
		m.complete(job, result.Stdout)
	}
}

func (m *Manager) writeScript(hostPath, url string) error {
	if err := os.MkdirAll(filepath.Dir(hostPath), 0o755); err != nil {
		return fmt.Errorf("create scripts dir: %w", err)
	}
	if err := os.WriteFile(hostPath, []byte(script.AgeGate(url)), 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}

func (m *Manager) removeScript(scanID, hostPath string) {
	if err := os.Remove(hostPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.logger.Warn("could not remove scan script",
			zap.String("scan_id", scanID),
			zap.String("path", hostPath),
			zap.Error(err),
		)
	}
}

func (m *Manager) complete(job scan.Job, output string) {
	now := m.clock.Now()
	if err := m.registry.Complete(job.ID, now, output); err != nil {
		m.logger.Error("complete transition failed", zap.String("scan_id", job.ID), zap.Error(err))
		return
	}
	m.logger.Info("scan completed",
		zap.String("scan_id", job.ID),
		zap.Duration("duration", now.Sub(job.StartedAt)),
	)
	m.finish(job, scan.StatusCompleted, now)
}

func (m *Manager) fail(job scan.Job, errText string) {
	now := m.clock.Now()
	if err := m.registry.Fail(job.ID, now, errText); err != nil {
		m.logger.Error("fail transition failed", zap.String("scan_id", job.ID), zap.Error(err))
		return
	}
	m.logger.Warn("scan failed",
		zap.String("scan_id", job.ID),
		zap.String("error", errText),
	)
	m.finish(job, scan.StatusFailed, now)
}

func (m *Manager) finish(job scan.Job, status scan.Status, completedAt time.Time) {
	metrics.ObserveScan(string(status), completedAt.Sub(job.StartedAt))

	ev := notify.Event{
		ScanID:      job.ID,
		URL:         job.URL,
		Status:      string(status),
		CompletedAt: scan.FormatTimestamp(completedAt),
	}
	if err := m.notifier.Publish(context.Background(), ev); err != nil {
		m.logger.Warn("completion event publish failed", zap.String("scan_id", job.ID), zap.Error(err))
	}
}

func failureText(result scan.LaunchResult) string {
	if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
		return stderr
	}
	return fmt.Sprintf("sitespeed.io exited with code %d", result.ExitCode)
}
