package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"animesync/internal/api"
	"animesync/internal/logging"
)

// handleLogs streams the progress log as Server-Sent Events. The first frame
// is the whole log; later frames carry only entries past the cursor. The
// stream ends with a done event once no run is active.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	log := s.controller.Progress()

	// Running is sampled before reading entries so that entries appended by
	// a run that finishes in between still reach the done frame.
	running := s.controller.Running()
	entries, cursor := log.Snapshot()
	first := api.LogFrame{Entries: api.FromEntries(entries), Next: cursor, Running: running}
	if err := writeEvent(w, flusher, api.EventSnapshot, first); err != nil {
		return
	}
	if !running {
		done := api.LogFrame{Next: cursor}
		s.finishFrame(&done)
		_ = writeEvent(w, flusher, api.EventDone, done)
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		running = s.controller.Running()
		entries, cursor = log.Since(cursor)
		frame := api.LogFrame{Entries: api.FromEntries(entries), Next: cursor, Running: running}
		if !running {
			s.finishFrame(&frame)
			_ = writeEvent(w, flusher, api.EventDone, frame)
			return
		}
		if len(entries) == 0 {
			continue
		}
		if err := writeEvent(w, flusher, api.EventEntries, frame); err != nil {
			s.requestLogger(r).Debug("log stream closed", logging.Error(err))
			return
		}
	}
}

func (s *Server) finishFrame(frame *api.LogFrame) {
	status := s.controller.Status()
	if status.LastReport != nil {
		report := api.FromReport(*status.LastReport)
		frame.Report = &report
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, frame api.LogFrame) error {
	if frame.Entries == nil {
		frame.Entries = []api.LogEntry{}
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
