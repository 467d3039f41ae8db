// Package preflight provides readiness checks for the directories and
// external services animesync depends on.
//
// RunAll is used by `animesync doctor` to report whether the data and log
// directories are writable, the configured catalog store answers, and the
// Shikimori endpoint accepts the configured user agent. CheckDaemon reports
// whether a daemon is serving the HTTP API.
package preflight
