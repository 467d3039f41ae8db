package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"animesync/internal/catalog"
	"animesync/internal/config"
	"animesync/internal/shikimori"
)

// probeTitle is searched to confirm the remote service answers queries.
const probeTitle = "Cowboy Bebop"

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStore opens the configured catalog backend and pings it.
func CheckStore(ctx context.Context, cfg *config.Config) Result {
	name := "Catalog store (" + cfg.Store.Backend + ")"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := catalog.Open(checkCtx, cfg)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	defer store.Close()

	if err := store.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	records, err := store.List(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (%d records)", len(records))}
}

// CheckShikimori runs one uncached search against the endpoint.
func CheckShikimori(ctx context.Context, baseURL, userAgent string, timeout time.Duration) Result {
	const name = "Shikimori"

	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client, err := shikimori.New(baseURL, userAgent,
		shikimori.WithHTTPClient(&http.Client{Timeout: timeout}),
		shikimori.WithSearchLimit(1),
	)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := client.SearchAnimes(checkCtx, probeTitle); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// summarizeError produces a human-readable summary for check failures.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (service unreachable)"
	}
	return err.Error()
}
