// Package daemon coordinates the long-running animesync process.
//
// It ties the catalog store, the reconciliation controller and the HTTP
// control surface into a single lifecycle, with flock-based locking to
// prevent two daemons from reconciling the same catalog. Stopping the daemon
// asks any active run to stop at its next record boundary and waits for it
// before the store is closed.
//
// Keep orchestration logic here: reconciliation lives in the reconcile
// package and transport in server, while the daemon focuses on startup,
// shutdown and status.
package daemon
