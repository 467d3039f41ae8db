package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// SSE event names on the log stream.
const (
	EventSnapshot = "snapshot"
	EventEntries  = "entries"
	EventDone     = "done"
)

// Stats mirrors the counters of one run.
type Stats struct {
	Total    int `json:"total"`
	Updated  int `json:"updated"`
	Failed   int `json:"failed"`
	NotFound int `json:"notFound"`
}

// Report is the final summary of a run.
type Report struct {
	Message    string `json:"message"`
	Stats      Stats  `json:"stats"`
	Stopped    bool   `json:"stopped"`
	RunID      string `json:"runId,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

// StartAsyncResponse is returned when a run is started in the background.
type StartAsyncResponse struct {
	Message string `json:"message"`
	RunID   string `json:"runId"`
}

// MessageResponse carries a human-readable acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SyncStatus describes the controller state.
type SyncStatus struct {
	RunID         string  `json:"runId,omitempty"`
	Running       bool    `json:"running"`
	StopRequested bool    `json:"stopRequested"`
	Stats         Stats   `json:"stats"`
	StartedAt     string  `json:"startedAt,omitempty"`
	FinishedAt    string  `json:"finishedAt,omitempty"`
	LastReport    *Report `json:"lastReport,omitempty"`
	LastError     string  `json:"lastError,omitempty"`
}

// LogEntry is one progress log entry.
type LogEntry struct {
	Seq       uint64 `json:"seq"`
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	RecordKey string `json:"recordKey,omitempty"`
}

// LogFrame is the payload of one SSE event.
type LogFrame struct {
	Entries []LogEntry `json:"entries"`
	Next    uint64     `json:"next"`
	Running bool       `json:"running"`
	Report  *Report    `json:"report,omitempty"`
}

// Genre is a genre with its localized name.
type Genre struct {
	Name          string `json:"name"`
	LocalizedName string `json:"localizedName,omitempty"`
}

// Link is an external page for a record.
type Link struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// Record is a catalog record in transport form.
type Record struct {
	Key      string   `json:"key"`
	Titles   []string `json:"titles"`
	Score    *float64 `json:"score,omitempty"`
	Episodes *int     `json:"episodes,omitempty"`
	Status   string   `json:"status,omitempty"`
	URL      string   `json:"url,omitempty"`
	Genres   []Genre  `json:"genres,omitempty"`
	Studios  []string `json:"studios,omitempty"`
	Links    []Link   `json:"links,omitempty"`
	SyncedAt string   `json:"syncedAt,omitempty"`
}

// RecordListResponse wraps the catalog listing.
type RecordListResponse struct {
	Records []Record `json:"records"`
}

// AddRecordRequest creates a record from titles.
type AddRecordRequest struct {
	Titles []string `json:"titles"`
}
