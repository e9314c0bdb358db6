// Package scan defines core types shared across subsystems.
package scan

import "time"

// Status represents the lifecycle state of a scan job.
type Status string

// Status values held in the job registry.
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status is completed or failed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SubmitRequest captures everything a client supplies when starting a scan.
type SubmitRequest struct {
	URL           string   `json:"url"`
	Options       []string `json:"options,omitempty"`
	RemoveAgeGate bool     `json:"removeAgeGate,omitempty"`
}

// Job is the registry record for one submitted scan. The record is created
// at submission and kept for the life of the process; it is never deleted
// and never leaves a terminal state.
type Job struct {
	ID          string     `json:"scanId"`
	URL         string     `json:"url"`
	Status      Status     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Output      string     `json:"output,omitempty"`
}

// LaunchSpec describes one external sitespeed.io invocation.
type LaunchSpec struct {
	// Target is the URL to measure, or the container-side script path when
	// Multi is set.
	Target string
	// OutputFolder is the per-scan folder name under the report root.
	OutputFolder string
	// Multi enables sitespeed.io scripting mode.
	Multi bool
	// ExtraArgs are appended verbatim after the built-in arguments.
	ExtraArgs []string
}

// LaunchResult carries the captured outcome of an external invocation.
// A non-zero ExitCode is a normal result, not an error.
type LaunchResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// FormatTimestamp renders a time as UTC ISO-8601 with millisecond precision
// and a Z suffix, the format used for all job timestamps.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
