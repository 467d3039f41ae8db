package notifications

import (
	"context"
	"log/slog"
	"time"

	"animesync/internal/logging"
	"animesync/internal/reconcile"
)

// Recorder publishes run start and completion through a Service.
type Recorder struct {
	svc     Service
	logger  *slog.Logger
	onStart bool
	timeout time.Duration
}

var _ reconcile.Recorder = (*Recorder)(nil)

// NewRecorder wraps svc. When onStart is false only run completion is sent.
func NewRecorder(svc Service, logger *slog.Logger, onStart bool) *Recorder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Recorder{
		svc:     svc,
		logger:  logging.NewComponentLogger(logger, "notifications"),
		onStart: onStart,
		timeout: 15 * time.Second,
	}
}

// RunStarted sends the start notification.
func (r *Recorder) RunStarted() {
	if !r.onStart {
		return
	}
	r.deliver("run_started", func(ctx context.Context) error {
		return r.svc.NotifyRunStarted(ctx)
	})
}

// RecordProcessed is a no-op; per-record notifications would flood the topic.
func (r *Recorder) RecordProcessed(reconcile.Outcome, time.Duration) {}

// RunFinished sends the report, or the failure that aborted the run.
func (r *Recorder) RunFinished(report reconcile.Report, err error) {
	if err != nil {
		r.deliver("run_failed", func(ctx context.Context) error {
			return r.svc.NotifyRunFailed(ctx, err)
		})
		return
	}
	r.deliver("run_finished", func(ctx context.Context) error {
		return r.svc.NotifyRunFinished(ctx, RunSummary{
			Message:  report.Message,
			Updated:  report.Stats.Updated,
			Failed:   report.Stats.Failed,
			NotFound: report.Stats.NotFound,
			Stopped:  report.Stopped,
			Duration: report.Duration,
		})
	})
}

func (r *Recorder) deliver(event string, send func(context.Context) error) {
	if r == nil || r.svc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := send(ctx); err != nil {
		logging.WarnWithContext(r.logger, "notification failed", "notification_failed",
			logging.String("notification", event),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
		)
	}
}
