package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// ErrAPIUnavailable means no daemon answered at the configured address.
var ErrAPIUnavailable = errors.New("animesync API unavailable")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Code)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Code, e.Message)
}

// IsConflict reports whether err is a 409 from the daemon.
func IsConflict(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusConflict
}

// Client talks to a running daemon.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// NewClient builds a client for bind, which may omit the scheme.
func NewClient(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("api bind address required")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		token: strings.TrimSpace(token),
		// No timeout: a synchronous start and the log stream block until the run ends.
		http: &http.Client{},
	}, nil
}

// Start runs a reconciliation and waits for its report.
func (c *Client) Start(ctx context.Context) (Report, error) {
	var report Report
	err := c.do(ctx, http.MethodPost, "/api/sync/start", nil, nil, &report)
	return report, err
}

// StartAsync starts a run in the background and returns its id.
func (c *Client) StartAsync(ctx context.Context) (StartAsyncResponse, error) {
	var resp StartAsyncResponse
	err := c.do(ctx, http.MethodPost, "/api/sync/start", url.Values{"async": {"1"}}, nil, &resp)
	return resp, err
}

// Stop requests the active run to stop.
func (c *Client) Stop(ctx context.Context) (MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, http.MethodPost, "/api/sync/stop", nil, nil, &resp)
	return resp, err
}

// Status fetches the controller status.
func (c *Client) Status(ctx context.Context) (SyncStatus, error) {
	var status SyncStatus
	err := c.do(ctx, http.MethodGet, "/api/sync/status", nil, nil, &status)
	return status, err
}

// Records fetches the catalog listing.
func (c *Client) Records(ctx context.Context) ([]Record, error) {
	var resp RecordListResponse
	if err := c.do(ctx, http.MethodGet, "/api/records", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// AddRecord creates a record with titles.
func (c *Client) AddRecord(ctx context.Context, titles []string) (Record, error) {
	var record Record
	err := c.do(ctx, http.MethodPost, "/api/records", nil, AddRecordRequest{Titles: titles}, &record)
	return record, err
}

// StreamLogs follows the SSE log stream, calling fn for each frame until the
// daemon sends the done event, fn returns an error, or ctx ends.
func (c *Client) StreamLogs(ctx context.Context, fn func(event string, frame LogFrame) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/sync/logs", nil, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapUnavailable(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	return readEvents(resp.Body, func(event string, data []byte) error {
		var frame LogFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return fmt.Errorf("decode %s frame: %w", event, err)
		}
		if err := fn(event, frame); err != nil {
			return err
		}
		if event == EventDone {
			return io.EOF
		}
		return nil
	})
}

// readEvents parses a text/event-stream body. io.EOF from fn ends the read cleanly.
func readEvents(body io.Reader, fn func(event string, data []byte) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	event := ""
	var data bytes.Buffer
	dispatch := func() error {
		if data.Len() == 0 {
			event = ""
			return nil
		}
		name := event
		if name == "" {
			name = "message"
		}
		payload := bytes.TrimSuffix(data.Bytes(), []byte("\n"))
		err := fn(name, payload)
		event = ""
		data.Reset()
		return err
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := dispatch(); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			data.WriteByte('\n')
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	if err := dispatch(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	endpoint := c.base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return wrapUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(data, &payload); err != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(data))
	}
	return &StatusError{Code: resp.StatusCode, Message: payload.Error}
}

func wrapUnavailable(err error) error {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %w", ErrAPIUnavailable, err)
	}
	return err
}

// IsAPIUnavailable reports whether err means the daemon is not reachable.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
