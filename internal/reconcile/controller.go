package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"animesync/internal/catalog"
	"animesync/internal/logging"
	"animesync/internal/progress"
	"animesync/internal/ratelimit"
	"animesync/internal/shikimori"
)

// Recorder receives run and record outcomes, typically for metrics.
type Recorder interface {
	RunStarted()
	RecordProcessed(outcome Outcome, elapsed time.Duration)
	RunFinished(report Report, err error)
}

// Status is a point-in-time view of the controller.
type Status struct {
	RunID         string
	Running       bool
	StopRequested bool
	Stats         Stats
	StartedAt     time.Time
	FinishedAt    time.Time
	LastReport    *Report
	LastError     string
}

// Controller owns the single reconciliation slot.
type Controller struct {
	store     catalog.Store
	matcher   *Matcher
	fetcher   *Fetcher
	delay     *ratelimit.Delay
	progress  *progress.Log
	logger    *slog.Logger
	recorders []Recorder
	now       func() time.Time
	newID     func() string

	mu         sync.Mutex
	active     *Run
	last       *Run
	lastReport *Report
	lastErr    error
	wg         sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithDelay sets the pacing between remote calls.
func WithDelay(delay *ratelimit.Delay) Option {
	return func(c *Controller) {
		c.delay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProgress shares an existing progress log.
func WithProgress(log *progress.Log) Option {
	return func(c *Controller) {
		if log != nil {
			c.progress = log
		}
	}
}

// WithRecorder registers an outcome recorder. Recorders are called in
// registration order.
func WithRecorder(recorder Recorder) Option {
	return func(c *Controller) {
		if recorder != nil {
			c.recorders = append(c.recorders, recorder)
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a Controller over store using client for search and detail calls.
func New(store catalog.Store, searcher shikimori.Searcher, details shikimori.DetailGetter, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		progress: progress.New(),
		logger:   logging.NewNop(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "reconcile")
	c.matcher = NewMatcher(searcher, c.delay, c.progress, c.logger)
	c.fetcher = NewFetcher(details)
	return c
}

// Progress returns the log written by runs.
func (c *Controller) Progress() *progress.Log {
	return c.progress
}

// Start runs a full reconciliation and returns its report. It fails with
// ErrAlreadyRunning when another run holds the slot and with an error
// wrapping ErrStoreUnreachable when the catalog cannot be enumerated.
// Cancelling ctx ends the run at the next record boundary, like a stop.
func (c *Controller) Start(ctx context.Context) (Report, error) {
	run, err := c.acquire()
	if err != nil {
		return Report{}, err
	}
	c.wg.Add(1)
	defer c.wg.Done()
	return c.execute(ctx, run)
}

// StartAsync takes the slot and runs the loop in the background. The run is
// not tied to ctx cancellation; use RequestStop or Close to end it.
func (c *Controller) StartAsync(ctx context.Context) (string, error) {
	run, err := c.acquire()
	if err != nil {
		return "", err
	}
	runCtx := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, _ = c.execute(runCtx, run)
	}()
	return run.ID, nil
}

// RequestStop asks the active run to stop before its next record. It is a
// no-op when idle and safe to call repeatedly.
func (c *Controller) RequestStop() {
	c.mu.Lock()
	run := c.active
	c.mu.Unlock()
	if run == nil {
		return
	}
	if !run.stopping() {
		c.logger.Info("stop requested", logging.String(logging.FieldRunID, run.ID))
		c.progress.Append(progress.LevelInfo, "Stop requested; finishing current record", "")
	}
	run.requestStop()
}

// Wait blocks until no run is active or ctx ends.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	run := c.active
	c.mu.Unlock()
	if run == nil {
		return nil
	}
	select {
	case <-run.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops any active run and waits for background runs to return.
func (c *Controller) Close() {
	c.RequestStop()
	c.wg.Wait()
}

// Running reports whether a run holds the slot.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Status returns the active run's state, or the last finished run's.
func (c *Controller) Status() Status {
	c.mu.Lock()
	run := c.active
	running := run != nil
	if run == nil {
		run = c.last
	}
	status := Status{Running: running}
	if c.lastReport != nil {
		report := *c.lastReport
		status.LastReport = &report
	}
	if c.lastErr != nil {
		status.LastError = c.lastErr.Error()
	}
	c.mu.Unlock()

	if run == nil {
		return status
	}
	stats, stopRequested, finishedAt := run.snapshot()
	status.RunID = run.ID
	status.StartedAt = run.StartedAt
	status.Stats = stats
	status.StopRequested = stopRequested
	status.FinishedAt = finishedAt
	return status
}

func (c *Controller) acquire() (*Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return nil, ErrAlreadyRunning
	}
	run := newRun(c.newID(), c.now())
	c.active = run
	c.progress.Reset()
	return run, nil
}

func (c *Controller) release(run *Run, report *Report, err error) {
	run.finish(c.now())
	c.mu.Lock()
	c.active = nil
	c.last = run
	c.lastErr = err
	if err == nil {
		r := *report
		c.lastReport = &r
	} else {
		c.lastReport = nil
	}
	c.mu.Unlock()
	for _, recorder := range c.recorders {
		recorder.RunFinished(*report, err)
	}
}

func (c *Controller) execute(ctx context.Context, run *Run) (report Report, err error) {
	ctx = logging.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, c.logger)

	defer func() {
		c.release(run, &report, err)
	}()
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("reconcile run %s panicked: %v", run.ID, recovered)
			logging.ErrorWithContext(logger, "reconcile run panicked", "run_panic",
				logging.Any("panic", recovered),
				logging.String(logging.FieldErrorHint, "report this failure with the daemon log"),
			)
			c.progress.Append(progress.LevelError, "Sync aborted: internal error", "")
		}
	}()

	for _, recorder := range c.recorders {
		recorder.RunStarted()
	}
	logger.Info("reconcile run started")
	c.progress.Append(progress.LevelInfo, "Sync started", "")

	records, listErr := c.store.List(ctx)
	if listErr != nil {
		err = fmt.Errorf("%w: %w", ErrStoreUnreachable, listErr)
		logging.ErrorWithContext(logger, "catalog enumeration failed", "store_unreachable",
			logging.Error(listErr),
			logging.String(logging.FieldErrorHint, "check store backend connectivity and dsn"),
		)
		c.progress.Append(progress.LevelError, fmt.Sprintf("Sync aborted: %v", err), "")
		return Report{RunID: run.ID, Message: "Sync aborted: catalog store unreachable"}, err
	}

	total := len(records)
	run.setTotal(total)
	c.progress.Append(progress.LevelInfo, fmt.Sprintf("Found %d records", total), "")

	stopped := false
	for i, record := range records {
		if run.stopping() || ctx.Err() != nil {
			stopped = true
			break
		}

		started := time.Now()
		outcome, procErr := c.processRecord(ctx, logger, record, i, total)
		if procErr != nil {
			// Only context cancellation escapes processRecord.
			stopped = true
			break
		}
		run.count(outcome)
		elapsed := time.Since(started)
		for _, recorder := range c.recorders {
			recorder.RecordProcessed(outcome, elapsed)
		}

		if i < total-1 {
			if waitErr := c.delay.Wait(ctx, ratelimit.PhaseRecord); waitErr != nil {
				stopped = true
				break
			}
		}
	}

	stats, _, _ := run.snapshot()
	report = Report{
		RunID:    run.ID,
		Message:  summaryMessage(stats, stopped),
		Stats:    stats,
		Stopped:  stopped,
		Duration: c.now().Sub(run.StartedAt),
	}
	level := progress.LevelSuccess
	if stopped {
		level = progress.LevelWarn
	}
	c.progress.Append(level, report.Message, "")
	logger.Info("reconcile run finished",
		logging.Int("total", stats.Total),
		logging.Int("updated", stats.Updated),
		logging.Int("failed", stats.Failed),
		logging.Int("not_found", stats.NotFound),
		logging.Bool("stopped", stopped),
		logging.Duration("duration", report.Duration),
	)
	return report, nil
}

// processRecord returns an error only when ctx ended mid-record.
func (c *Controller) processRecord(ctx context.Context, logger *slog.Logger, record catalog.Record, index, total int) (Outcome, error) {
	logger = logger.With(logging.String(logging.FieldRecordKey, record.Key))
	prefix := fmt.Sprintf("[%d/%d]", index+1, total)

	titles := record.CandidateTitles()
	if len(titles) == 0 {
		logger.Info("record has no titles")
		c.progress.Append(progress.LevelWarn, fmt.Sprintf("%s Record %s has no titles, skipped", prefix, record.Key), record.Key)
		return OutcomeNotFound, nil
	}
	label := titles[0]

	resolution, err := c.matcher.Resolve(ctx, record.Key, titles)
	if err != nil {
		return "", err
	}
	if !resolution.Found {
		logger.Info("no match found", logging.Int("titles", len(titles)))
		c.progress.Append(progress.LevelWarn, fmt.Sprintf("%s %s: not found", prefix, label), record.Key)
		return OutcomeNotFound, nil
	}
	logger = logger.With(logging.String(logging.FieldRemoteID, resolution.ID))

	detail, err := c.fetcher.Fetch(ctx, resolution.ID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		logging.ErrorWithContext(logger, "detail fetch failed", "detail_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "record will be retried on the next run"),
		)
		c.progress.Append(progress.LevelError, fmt.Sprintf("%s %s: detail unavailable for %s", prefix, label, resolution.ID), record.Key)
		return OutcomeFailed, nil
	}

	if err := c.store.ApplyDetail(ctx, record.Key, detail); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		hint := "check store backend connectivity"
		if errors.Is(err, catalog.ErrRecordNotFound) {
			hint = "record was deleted during the run"
		}
		logging.ErrorWithContext(logger, "store update failed", "store_update_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
		)
		c.progress.Append(progress.LevelError, fmt.Sprintf("%s %s: update failed: %v", prefix, label, err), record.Key)
		return OutcomeFailed, nil
	}

	match := "exact"
	if !resolution.Exact {
		match = "best guess"
	}
	logger.Info("record updated",
		logging.String("matched_title", resolution.Title),
		logging.Bool("exact", resolution.Exact),
	)
	c.progress.Append(progress.LevelSuccess,
		fmt.Sprintf("%s %s: updated from %q (%s)", prefix, label, resolution.Name, match), record.Key)
	return OutcomeUpdated, nil
}
