// Package api hosts the HTTP server, middleware, and REST handlers for the
// scan service. Notable routes:
//   - GET /health for liveness probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /run-sitespeed for scan submission; GET /status/{scanID} and
//     GET /scans for lifecycle queries.
//   - GET /report/{scanID}[/main|/aggregate|/recommendations] for parsed
//     report views, plus /reports/* for raw artifacts.
package api
