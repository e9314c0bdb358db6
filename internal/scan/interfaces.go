package scan

import (
	"context"
	"time"
)

// Registry holds job records and exposes only atomic operations; callers
// never see the underlying map.
type Registry interface {
	Create(job Job) error
	Get(id string) (Job, error)
	List() []Job
	// MarkRunning transitions a queued job to running.
	MarkRunning(id string) error
	// Complete transitions a running job to completed, recording the
	// completion time and captured stdout.
	Complete(id string, completedAt time.Time, output string) error
	// Fail transitions a running job to failed with a diagnostic message.
	Fail(id string, completedAt time.Time, errText string) error
}

// Launcher runs the external measurement tool to completion. A non-zero
// exit code is reported in the result; an error means the invocation itself
// faulted. Implementations must honor context cancellation.
type Launcher interface {
	Launch(ctx context.Context, spec LaunchSpec) (LaunchResult, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces scan IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
