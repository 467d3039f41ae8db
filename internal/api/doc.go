// Package api defines the JSON payloads exchanged between the animesync
// daemon and its clients, the converters from domain types, and the HTTP
// client the CLI uses to drive a running daemon.
//
// Field names are camelCase so browser dashboards can consume the same
// endpoints. Timestamps are RFC3339 with millisecond precision in UTC.
package api
