package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pagespeedlab/sitespeed-runner/internal/metrics"
	"github.com/pagespeedlab/sitespeed-runner/internal/notify"
	"github.com/pagespeedlab/sitespeed-runner/internal/registry"
	"github.com/pagespeedlab/sitespeed-runner/internal/scan"
)

type fakeLauncher struct {
	mu    sync.Mutex
	specs []scan.LaunchSpec
	fn    func(ctx context.Context, spec scan.LaunchSpec) (scan.LaunchResult, error)
}

func (f *fakeLauncher) Launch(ctx context.Context, spec scan.LaunchSpec) (scan.LaunchResult, error) {
	f.mu.Lock()
	f.specs = append(f.specs, spec)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(ctx, spec)
	}
	return scan.LaunchResult{Stdout: "ok"}, nil
}

func (f *fakeLauncher) launched() []scan.LaunchSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]scan.LaunchSpec(nil), f.specs...)
}

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("scan-%d", s.n), nil
}

type captureNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *captureNotifier) Publish(_ context.Context, ev notify.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *captureNotifier) Close() error { return nil }

func (c *captureNotifier) published() []notify.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Event(nil), c.events...)
}

func newManager(t *testing.T, launcher *fakeLauncher, cfg Config) (*Manager, *registry.Registry, *captureNotifier) {
	t.Helper()
	metrics.Init()
	if cfg.ReportsDir == "" {
		cfg.ReportsDir = t.TempDir()
	}
	reg := registry.New()
	notifier := &captureNotifier{}
	m := New(reg, launcher, &stepClock{t: time.Unix(1700000000, 0)}, &seqIDs{}, notifier, cfg, zap.NewNop())
	return m, reg, notifier
}

func TestSubmitRejectsBadURL(t *testing.T) {
	launcher := &fakeLauncher{}
	m, _, _ := newManager(t, launcher, Config{})

	for _, url := range []string{"", "example.com", "ftp://example.com"} {
		_, err := m.Submit(context.Background(), scan.SubmitRequest{URL: url})
		assert.ErrorIs(t, err, scan.ErrInvalidInput, "url %q", url)
	}
	m.Wait()
	assert.Empty(t, launcher.launched())
}

func TestSubmitRunsToCompleted(t *testing.T) {
	launcher := &fakeLauncher{}
	m, reg, notifier := newManager(t, launcher, Config{})

	job, err := m.Submit(context.Background(), scan.SubmitRequest{
		URL:     "https://example.com",
		Options: []string{"-n", "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, scan.StatusQueued, job.Status)
	assert.False(t, job.StartedAt.IsZero())

	m.Wait()

	done, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, scan.StatusCompleted, done.Status)
	assert.Equal(t, "ok", done.Output)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.After(done.StartedAt))

	specs := launcher.launched()
	require.Len(t, specs, 1)
	assert.Equal(t, "https://example.com", specs[0].Target)
	assert.Equal(t, job.ID, specs[0].OutputFolder)
	assert.False(t, specs[0].Multi)
	assert.Equal(t, []string{"-n", "3"}, specs[0].ExtraArgs)

	events := notifier.published()
	require.Len(t, events, 1)
	assert.Equal(t, job.ID, events[0].ScanID)
	assert.Equal(t, "completed", events[0].Status)
	assert.NotEmpty(t, events[0].CompletedAt)
}

func TestScanFailureUsesStderr(t *testing.T) {
	launcher := &fakeLauncher{
		fn: func(_ context.Context, _ scan.LaunchSpec) (scan.LaunchResult, error) {
			return scan.LaunchResult{ExitCode: 2, Stderr: "browser crashed\n"}, nil
		},
	}
	m, reg, notifier := newManager(t, launcher, Config{})

	job, err := m.Submit(context.Background(), scan.SubmitRequest{URL: "https://example.com"})
	require.NoError(t, err)
	m.Wait()

	done, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, scan.StatusFailed, done.Status)
	assert.Equal(t, "browser crashed", done.Error)
	require.NotNil(t, done.CompletedAt)

	events := notifier.published()
	require.Len(t, events, 1)
	assert.Equal(t, "failed", events[0].Status)
}

func TestScanFailureFallsBackToExitCode(t *testing.T) {
	launcher := &fakeLauncher{
		fn: func(_ context.Context, _ scan.LaunchSpec) (scan.LaunchResult, error) {
			return scan.LaunchResult{ExitCode: 3}, nil
		},
	}
	m, reg, _ := newManager(t, launcher, Config{})

	job, err := m.Submit(context.Background(), scan.SubmitRequest{URL: "https://example.com"})
	require.NoError(t, err)
	m.Wait()

	done, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "sitespeed.io exited with code 3", done.Error)
}

func TestLaunchFaultFailsJob(t *testing.T) {
	launcher := &fakeLauncher{
		fn: func(_ context.Context, _ scan.LaunchSpec) (scan.LaunchResult, error) {
			return scan.LaunchResult{}, errors.New("docker not found")
		},
	}
	m, reg, _ := newManager(t, launcher, Config{})

	job, err := m.Submit(context.Background(), scan.SubmitRequest{URL: "https://example.com"})
	require.NoError(t, err)
	m.Wait()

	done, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, scan.StatusFailed, done.Status)
	assert.Equal(t, "docker not found", done.Error)
}

func TestScanTimeout(t *testing.T) {
	launcher := &fakeLauncher{
		fn: func(ctx context.Context, _ scan.LaunchSpec) (scan.LaunchResult, error) {
			<-ctx.Done()
			return scan.LaunchResult{}, ctx.Err()
		},
	}
	m, reg, _ := newManager(t, launcher, Config{Timeout: 50 * time.Millisecond})

	job, err := m.Submit(context.Background(), scan.SubmitRequest{URL: "https://example.com"})
	require.NoError(t, err)
	m.Wait()

	done, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, scan.StatusFailed, done.Status)
	assert.True(t, strings.HasPrefix(done.Error, "scan timeout ("), "got %q", done.Error)
}

func TestAgeGateScriptLifecycle(t *testing.T) {
	reportsDir := t.TempDir()
	var seenTarget string
	var seenContent []byte
	launcher := &fakeLauncher{}
	launcher.fn = func(_ context.Context, spec scan.LaunchSpec) (scan.LaunchResult, error) {
		seenTarget = spec.Target
		// The host-side script must exist for the duration of the launch.
		name := filepath.Base(spec.Target)
		data, err := os.ReadFile(filepath.Join(reportsDir, "_scripts", name))
		if err != nil {
			return scan.LaunchResult{}, err
		}
		seenContent = data
		return scan.LaunchResult{Stdout: "ok"}, nil
	}
	m, reg, _ := newManager(t, launcher, Config{ReportsDir: reportsDir})

	job, err := m.Submit(context.Background(), scan.SubmitRequest{
		URL:           "https://example.com",
		RemoveAgeGate: true,
	})
	require.NoError(t, err)
	m.Wait()

	done, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, scan.StatusCompleted, done.Status)

	specs := launcher.launched()
	require.Len(t, specs, 1)
	assert.True(t, specs[0].Multi)
	assert.Equal(t, "/sitespeed.io/_scripts/scan_"+job.ID+".cjs", seenTarget)
	assert.Contains(t, string(seenContent), "https://example.com")

	// Cleaned up after the scan finishes.
	_, err = os.Stat(filepath.Join(reportsDir, "_scripts", "scan_"+job.ID+".cjs"))
	assert.True(t, os.IsNotExist(err))
}

func TestMaxConcurrentGatesExecution(t *testing.T) {
	started := make(chan string, 2)
	release := make(chan struct{})
	launcher := &fakeLauncher{
		fn: func(_ context.Context, spec scan.LaunchSpec) (scan.LaunchResult, error) {
			started <- spec.OutputFolder
			<-release
			return scan.LaunchResult{Stdout: "ok"}, nil
		},
	}
	m, reg, _ := newManager(t, launcher, Config{MaxConcurrent: 1})

	first, err := m.Submit(context.Background(), scan.SubmitRequest{URL: "https://a.example"})
	require.NoError(t, err)
	second, err := m.Submit(context.Background(), scan.SubmitRequest{URL: "https://b.example"})
	require.NoError(t, err)

	runningID := <-started

	// The other job holds at queued until the slot frees.
	var queuedID string
	if runningID == first.ID {
		queuedID = second.ID
	} else {
		queuedID = first.ID
	}
	queued, err := reg.Get(queuedID)
	require.NoError(t, err)
	assert.Equal(t, scan.StatusQueued, queued.Status)

	close(release)
	m.Wait()

	for _, id := range []string{first.ID, second.ID} {
		done, err := reg.Get(id)
		require.NoError(t, err)
		assert.Equal(t, scan.StatusCompleted, done.Status)
	}
}

func TestListOrderedBySubmission(t *testing.T) {
	launcher := &fakeLauncher{}
	m, _, _ := newManager(t, launcher, Config{})

	var ids []string
	for i := 0; i < 3; i++ {
		job, err := m.Submit(context.Background(), scan.SubmitRequest{URL: "https://example.com"})
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}
	m.Wait()

	jobs := m.List()
	require.Len(t, jobs, 3)
	for i, job := range jobs {
		assert.Equal(t, ids[i], job.ID)
	}
}
