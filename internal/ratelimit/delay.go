// Package ratelimit spaces outbound calls to the metadata service with two
// fixed intervals. There is no backoff and no jitter.
package ratelimit

import (
	"context"
	"time"
)

// Phase selects which interval a wait uses.
type Phase int

const (
	// PhaseTitle separates searches for different titles of one record.
	PhaseTitle Phase = iota
	// PhaseRecord separates consecutive records.
	PhaseRecord
)

func (p Phase) String() string {
	switch p {
	case PhaseTitle:
		return "title"
	case PhaseRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Delay waits a fixed interval per phase.
type Delay struct {
	Title  time.Duration
	Record time.Duration

	// After overrides time.After. Tests use it to observe waits.
	After func(time.Duration) <-chan time.Time
}

// New constructs a Delay with the given intervals.
func New(title, record time.Duration) *Delay {
	return &Delay{Title: title, Record: record}
}

// Interval returns the configured interval for phase.
func (d *Delay) Interval(phase Phase) time.Duration {
	if d == nil {
		return 0
	}
	switch phase {
	case PhaseTitle:
		return d.Title
	case PhaseRecord:
		return d.Record
	default:
		return 0
	}
}

// Wait suspends for the phase interval or until ctx ends. Non-positive
// intervals return immediately.
func (d *Delay) Wait(ctx context.Context, phase Phase) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	interval := d.Interval(phase)
	if interval <= 0 {
		return nil
	}
	after := time.After
	if d.After != nil {
		after = d.After
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-after(interval):
		return nil
	}
}
