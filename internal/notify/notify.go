// Package notify defines the interface for publishing scan completion
// events. The abstraction keeps the service independent of a specific
// messaging backend (e.g. GCP Pub/Sub, RabbitMQ, Kafka).
package notify

import (
	"context"
)

// Event is the payload published when a scan reaches a terminal state.
type Event struct {
	ScanID      string `json:"scanId"`
	URL         string `json:"url"`
	Status      string `json:"status"`
	CompletedAt string `json:"completed_at"`
}

// Provider defines the common interface for a completion-event publisher.
type Provider interface {
	// Publish sends an event to the configured topic. This is often a
	// non-blocking, asynchronous operation.
	Publish(ctx context.Context, ev Event) error

	// Close cleans up any client connections and resources.
	Close() error
}

// NoOpProvider is a provider that performs no operations. It is useful
// for testing or running the service without a real messaging backend.
type NoOpProvider struct{}

// Publish for NoOpProvider does nothing and returns nil.
func (n *NoOpProvider) Publish(_ context.Context, _ Event) error { return nil }

// Close for NoOpProvider does nothing and returns nil.
func (n *NoOpProvider) Close() error { return nil }
