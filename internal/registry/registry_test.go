package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagespeedlab/sitespeed-runner/internal/scan"
)

func TestRegistryLifecycle(t *testing.T) {
	t.Parallel()

	reg := New()
	job := scan.Job{
		ID:        "scan-1",
		URL:       "https://example.com",
		Status:    scan.StatusQueued,
		StartedAt: time.Now().UTC(),
	}

	require.NoError(t, reg.Create(job))
	require.Error(t, reg.Create(job), "duplicate create must fail")

	require.NoError(t, reg.MarkRunning(job.ID))

	done := time.Now().UTC()
	require.NoError(t, reg.Complete(job.ID, done, "sitespeed output"))

	got, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, scan.StatusCompleted, got.Status)
	assert.Equal(t, "sitespeed output", got.Output)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, done, *got.CompletedAt)
}

func TestRegistryTerminalStatesAreFinal(t *testing.T) {
	t.Parallel()

	reg := New()
	job := scan.Job{ID: "scan-2", Status: scan.StatusQueued, StartedAt: time.Now().UTC()}
	require.NoError(t, reg.Create(job))
	require.NoError(t, reg.MarkRunning(job.ID))
	require.NoError(t, reg.Fail(job.ID, time.Now().UTC(), "boom"))

	assert.Error(t, reg.MarkRunning(job.ID))
	assert.Error(t, reg.Complete(job.ID, time.Now().UTC(), "late"))
	assert.Error(t, reg.Fail(job.ID, time.Now().UTC(), "again"))

	got, err := reg.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, scan.StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
}

func TestRegistryRunningRequiresQueued(t *testing.T) {
	t.Parallel()

	reg := New()
	require.NoError(t, reg.Create(scan.Job{ID: "scan-3", Status: scan.StatusQueued}))
	require.NoError(t, reg.MarkRunning("scan-3"))
	assert.Error(t, reg.MarkRunning("scan-3"), "running is not repeatable")
}

func TestRegistryGetUnknown(t *testing.T) {
	t.Parallel()

	reg := New()
	_, err := reg.Get("nope")
	assert.True(t, errors.Is(err, scan.ErrNotFound))
	assert.True(t, errors.Is(reg.MarkRunning("nope"), scan.ErrNotFound))
}

func TestRegistryList(t *testing.T) {
	t.Parallel()

	reg := New()
	require.NoError(t, reg.Create(scan.Job{ID: "a", Status: scan.StatusQueued}))
	require.NoError(t, reg.Create(scan.Job{ID: "b", Status: scan.StatusQueued}))
	assert.Len(t, reg.List(), 2)
}
