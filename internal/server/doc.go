// Package server exposes the reconciliation controller and the record catalog
// over HTTP.
//
// Routes live under /api: sync start/stop/status, a Server-Sent Events feed
// of the progress log, and record listing and creation. /metrics serves the
// Prometheus registry when one is configured. All error bodies are JSON
// objects with a single "error" field. When a bearer token is configured
// every route requires it.
package server
