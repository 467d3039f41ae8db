// Package progress holds the in-memory event log of the current
// reconciliation run.
//
// The log is append-only while a run is active and is cleared only when the
// next run starts. Every entry carries a sequence number that keeps growing
// across resets, so a reader can hold a cursor and ask for "everything after
// N" without ever seeing a torn or reordered view.
package progress
