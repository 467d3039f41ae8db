package reconcile

import (
	"fmt"
	"sync"
	"time"
)

// Outcome is the result of processing one record.
type Outcome string

const (
	OutcomeUpdated  Outcome = "updated"
	OutcomeFailed   Outcome = "failed"
	OutcomeNotFound Outcome = "not_found"
)

// Stats are the cumulative counters of one run.
type Stats struct {
	Total    int
	Updated  int
	Failed   int
	NotFound int
}

// Processed is the number of records that reached an outcome.
func (s Stats) Processed() int {
	return s.Updated + s.Failed + s.NotFound
}

// Report summarizes a finished run.
type Report struct {
	RunID    string
	Message  string
	Stats    Stats
	Stopped  bool
	Duration time.Duration
}

// Run is the mutable state of one reconciliation. It is created when the
// slot is acquired and finalized when the loop returns.
type Run struct {
	ID        string
	StartedAt time.Time

	mu            sync.Mutex
	finishedAt    time.Time
	stopRequested bool
	stats         Stats
	done          chan struct{}
}

func newRun(id string, started time.Time) *Run {
	return &Run{ID: id, StartedAt: started, done: make(chan struct{})}
}

func (r *Run) requestStop() {
	r.mu.Lock()
	r.stopRequested = true
	r.mu.Unlock()
}

func (r *Run) stopping() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopRequested
}

func (r *Run) setTotal(total int) {
	r.mu.Lock()
	r.stats.Total = total
	r.mu.Unlock()
}

func (r *Run) count(outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch outcome {
	case OutcomeUpdated:
		r.stats.Updated++
	case OutcomeFailed:
		r.stats.Failed++
	case OutcomeNotFound:
		r.stats.NotFound++
	}
}

func (r *Run) finish(at time.Time) {
	r.mu.Lock()
	r.finishedAt = at
	r.mu.Unlock()
	close(r.done)
}

func (r *Run) snapshot() (Stats, bool, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats, r.stopRequested, r.finishedAt
}

func summaryMessage(stats Stats, stopped bool) string {
	verb := "finished"
	if stopped {
		verb = "stopped"
	}
	return fmt.Sprintf("Sync %s: %d updated, %d failed, %d not found (%d of %d processed)",
		verb, stats.Updated, stats.Failed, stats.NotFound, stats.Processed(), stats.Total)
}
