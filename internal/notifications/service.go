package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"animesync/internal/config"
)

const userAgent = "animesync-notify/1"

// Service defines the notification surface used by the daemon.
type Service interface {
	NotifyRunStarted(ctx context.Context) error
	NotifyRunFinished(ctx context.Context, summary RunSummary) error
	NotifyRunFailed(ctx context.Context, err error) error
	TestNotification(ctx context.Context) error
}

// RunSummary is the notification view of a finished run.
type RunSummary struct {
	Message  string
	Updated  int
	Failed   int
	NotFound int
	Stopped  bool
	Duration time.Duration
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc delivers anything.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "animesync - Sync Started",
		message:  "Catalog reconciliation started",
		tags:     []string{"animesync", "sync", "started"},
		priority: "low",
	})
}

func (n *ntfyService) NotifyRunFinished(ctx context.Context, summary RunSummary) error {
	title := "animesync - Sync Complete"
	tags := []string{"animesync", "sync", "completed"}
	if summary.Stopped {
		title = "animesync - Sync Stopped"
		tags = []string{"animesync", "sync", "stopped"}
	}
	message := strings.TrimSpace(summary.Message)
	if message == "" {
		message = fmt.Sprintf("%d updated, %d failed, %d not found", summary.Updated, summary.Failed, summary.NotFound)
	}
	if summary.Duration > 0 {
		message += fmt.Sprintf("\nDuration: %s", summary.Duration.Round(time.Second))
	}
	priority := ""
	if summary.Failed > 0 {
		priority = "high"
	}
	return n.send(ctx, payload{title: title, message: message, tags: tags, priority: priority})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, err error) error {
	detail := "unknown error"
	if err != nil {
		detail = err.Error()
	}
	return n.send(ctx, payload{
		title:    "animesync - Sync Failed",
		message:  "Sync aborted: " + detail,
		tags:     []string{"animesync", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "animesync - Test",
		message:  "Notification system test",
		tags:     []string{"animesync", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context) error              { return nil }
func (noopService) NotifyRunFinished(context.Context, RunSummary) error { return nil }
func (noopService) NotifyRunFailed(context.Context, error) error        { return nil }
func (noopService) TestNotification(context.Context) error              { return nil }
