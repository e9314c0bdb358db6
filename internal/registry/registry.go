// Package registry provides the in-memory scan job registry.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pagespeedlab/sitespeed-runner/internal/scan"
)

// Registry is a mutex-guarded map of job records. It lives for the process
// lifetime and is never persisted; completed reports on disk are the only
// durable artifacts. Records are never evicted.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]scan.Job
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{jobs: make(map[string]scan.Job)}
}

// Create stores a new job record.
func (r *Registry) Create(job scan.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return errors.New("job already exists")
	}
	r.jobs[job.ID] = job
	return nil
}

// Get fetches a job by ID.
func (r *Registry) Get(id string) (scan.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return scan.Job{}, scan.ErrNotFound
	}
	return job, nil
}

// List returns a snapshot of every known job.
func (r *Registry) List() []scan.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]scan.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job)
	}
	return out
}

// MarkRunning transitions a queued job to running.
func (r *Registry) MarkRunning(id string) error {
	return r.transition(id, scan.StatusQueued, func(job *scan.Job) {
		job.Status = scan.StatusRunning
	})
}

// Complete transitions a running job to completed.
func (r *Registry) Complete(id string, completedAt time.Time, output string) error {
	return r.transition(id, scan.StatusRunning, func(job *scan.Job) {
		job.Status = scan.StatusCompleted
		job.CompletedAt = pointerTime(completedAt)
		job.Output = output
	})
}

// Fail transitions a running job to failed with a diagnostic message.
func (r *Registry) Fail(id string, completedAt time.Time, errText string) error {
	return r.transition(id, scan.StatusRunning, func(job *scan.Job) {
		job.Status = scan.StatusFailed
		job.CompletedAt = pointerTime(completedAt)
		job.Error = errText
	})
}

func (r *Registry) transition(id string, from scan.Status, apply func(*scan.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return scan.ErrNotFound
	}
	if job.Status != from {
		return fmt.Errorf("job %s is %s, not %s", id, job.Status, from)
	}
	apply(&job)
	r.jobs[id] = job
	return nil
}

func pointerTime(t time.Time) *time.Time {
	ts := t
	return &ts
}
