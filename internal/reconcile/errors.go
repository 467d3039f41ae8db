package reconcile

import "errors"

var (
	// ErrAlreadyRunning rejects a start while another run holds the slot.
	ErrAlreadyRunning = errors.New("reconciliation already running")
	// ErrStoreUnreachable wraps a failure to enumerate the catalog.
	ErrStoreUnreachable = errors.New("catalog store unreachable")
	// ErrDetailUnavailable wraps both transport failures and empty detail responses.
	ErrDetailUnavailable = errors.New("anime detail unavailable")
)
