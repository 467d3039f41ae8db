package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"animesync/internal/api"
	"animesync/internal/logging"
	"animesync/internal/reconcile"
	"animesync/internal/textutil"
)

const maxRequestBody = 64 * 1024

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost, http.MethodGet) {
		return
	}
	if isTruthy(r.URL.Query().Get("async")) {
		runID, err := s.controller.StartAsync(r.Context())
		if err != nil {
			s.writeStartError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, api.StartAsyncResponse{Message: "Sync started", RunID: runID})
		return
	}

	report, err := s.controller.Start(r.Context())
	if err != nil {
		s.writeStartError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromReport(report))
}

func (s *Server) writeStartError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, reconcile.ErrAlreadyRunning) {
		writeError(w, http.StatusConflict, "Sync already running")
		return
	}
	s.requestLogger(r).Error("sync start failed", logging.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost, http.MethodGet) {
		return
	}
	s.controller.RequestStop()
	writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Stop requested"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, api.FromStatus(s.controller.Status()))
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	if r.Method == http.MethodPost {
		s.addRecord(w, r)
		return
	}
	records, err := s.store.List(r.Context())
	if err != nil {
		s.requestLogger(r).Warn("record listing failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, api.RecordListResponse{Records: api.FromRecords(records)})
}

func (s *Server) addRecord(w http.ResponseWriter, r *http.Request) {
	var req api.AddRecordRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(textutil.UniqueTitles(req.Titles)) == 0 {
		writeError(w, http.StatusBadRequest, "at least one title is required")
		return
	}
	record, err := s.store.Add(r.Context(), req.Titles...)
	if err != nil {
		s.requestLogger(r).Warn("record insert failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.requestLogger(r).Info("record added", logging.String(logging.FieldRecordKey, record.Key))
	writeJSON(w, http.StatusCreated, api.FromRecord(record))
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
