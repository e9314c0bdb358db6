// Package main hosts the sitespeed runner service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, scan submission
//     and report endpoints. Submissions are validated, recorded in the
//     in-memory registry, and handed to a per-job goroutine.
//   - Scan execution: internal/manager drives each job through
//     queued -> running -> completed/failed by shelling out to the
//     sitespeed.io container via internal/launcher. A wall-clock timeout
//     bounds every scan; age-gate removal scripts are generated per scan and
//     cleaned up on every exit path.
//   - Report engine: internal/report walks the sitespeed.io output tree on
//     demand. Per-page metrics, cross-page averages, and merged
//     coach/lighthouse recommendations are derived fresh per request; the
//     disk tree is the only durable state, so reports survive restarts even
//     though job records do not.
//   - Configuration & plumbing: Viper populates config from env/files
//     (SITESPEED_ prefix); zap provides structured logging; Prometheus
//     metrics are exported via the metrics middleware and /metrics handler;
//     completion events go to the configured notify provider (Pub/Sub or
//     no-op).
//
// Operational notes:
//   - Concurrency model: one goroutine per scan, optionally gated by
//     scans.max_concurrent. The registry is a mutex-guarded map; records are
//     never evicted for the life of the process.
//   - The docker socket runs containers on the host, so reports.host_dir and
//     scripts.host_dir must be host paths whenever the service itself runs
//     inside a container.
//
// Run locally: go run ./cmd/sitespeed-runner -config config.yaml (or rely
// solely on SITESPEED_* env overrides).
package main
