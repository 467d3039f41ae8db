// Command animesync runs the catalog reconciliation daemon and talks to it.
//
// `animesync serve` starts the daemon in the foreground. The sync commands
// start, stop and follow reconciliation runs over the daemon's HTTP API, and
// `sync run` performs a one-shot local run when no daemon is active. Record
// commands go through the daemon when it is reachable and fall back to the
// configured store otherwise.
package main
