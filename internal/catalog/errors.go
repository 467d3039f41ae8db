package catalog

import "errors"

// ErrRecordNotFound is returned when a key does not identify a stored record.
var ErrRecordNotFound = errors.New("catalog record not found")
