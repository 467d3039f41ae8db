package preflight

import (
	"context"
	"fmt"

	"animesync/internal/api"
)

// CheckDaemon reports whether a daemon answers on the HTTP API.
func CheckDaemon(ctx context.Context, client *api.Client) Result {
	const name = "Daemon"

	if client == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	status, err := client.Status(ctx)
	if err != nil {
		if api.IsAPIUnavailable(err) {
			return Result{Name: name, Detail: "Not running"}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	if status.Running {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Running (sync %s in progress)", status.RunID)}
	}
	return Result{Name: name, Passed: true, Detail: "Running (idle)"}
}
