package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"animesync/internal/api"
)

func TestClientStartAsyncSendsTokenAndQuery(t *testing.T) {
	var gotAuth, gotQuery, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		gotMethod = r.Method
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(api.StartAsyncResponse{Message: "started", RunID: "run-7"})
	}))
	defer srv.Close()

	client, err := api.NewClient(strings.TrimPrefix(srv.URL, "http://"), "secret")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	resp, err := client.StartAsync(context.Background())
	if err != nil {
		t.Fatalf("StartAsync: %v", err)
	}
	if resp.RunID != "run-7" {
		t.Fatalf("unexpected run id %q", resp.RunID)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
	if gotQuery != "async=1" || gotMethod != http.MethodPost {
		t.Fatalf("unexpected request %s ?%s", gotMethod, gotQuery)
	}
}

func TestClientMapsConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "synchronization already running"})
	}))
	defer srv.Close()

	client, err := api.NewClient(srv.URL, "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Start(context.Background())
	if !api.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	var statusErr *api.StatusError
	if !errors.As(err, &statusErr) || statusErr.Message != "synchronization already running" {
		t.Fatalf("expected decoded message, got %v", err)
	}
}

func TestClientAddRecordPostsTitles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.AddRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.Record{Key: "1", Titles: req.Titles})
	}))
	defer srv.Close()

	client, _ := api.NewClient(srv.URL, "")
	record, err := client.AddRecord(context.Background(), []string{"Cowboy Bebop"})
	if err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if record.Key != "1" || len(record.Titles) != 1 || record.Titles[0] != "Cowboy Bebop" {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestClientStreamLogsStopsAtDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		frames := []struct {
			event string
			frame api.LogFrame
		}{
			{api.EventSnapshot, api.LogFrame{Entries: []api.LogEntry{{Seq: 1, Message: "started"}}, Next: 1, Running: true}},
			{api.EventEntries, api.LogFrame{Entries: []api.LogEntry{{Seq: 2, Message: "record 1"}}, Next: 2, Running: true}},
			{api.EventDone, api.LogFrame{Next: 2, Report: &api.Report{Message: "done"}}},
			{api.EventEntries, api.LogFrame{Next: 3}},
		}
		fmt.Fprint(w, ": keepalive\n\n")
		for _, f := range frames {
			data, _ := json.Marshal(f.frame)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.event, data)
		}
	}))
	defer srv.Close()

	client, _ := api.NewClient(srv.URL, "")
	var events []string
	var messages []string
	err := client.StreamLogs(context.Background(), func(event string, frame api.LogFrame) error {
		events = append(events, event)
		for _, entry := range frame.Entries {
			messages = append(messages, entry.Message)
		}
		if event == api.EventDone && (frame.Report == nil || frame.Report.Message != "done") {
			t.Errorf("expected report on done frame, got %+v", frame)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("StreamLogs: %v", err)
	}
	if strings.Join(events, ",") != "snapshot,entries,done" {
		t.Fatalf("unexpected events %v", events)
	}
	if strings.Join(messages, "|") != "started|record 1" {
		t.Fatalf("unexpected messages %v", messages)
	}
}

func TestClientReportsUnavailable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	client, _ := api.NewClient(addr, "")
	_, err = client.Status(context.Background())
	if !api.IsAPIUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if !errors.Is(err, api.ErrAPIUnavailable) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
}

func TestNewClientRequiresBind(t *testing.T) {
	if _, err := api.NewClient("  ", ""); err == nil {
		t.Fatal("expected error for empty bind")
	}
}
