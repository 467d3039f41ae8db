package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"animesync/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware tags each request with a correlation id, reusing the
// caller's X-Request-ID when it sends one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// requestLogger returns the server logger annotated with the request's
// correlation id.
func (s *Server) requestLogger(r *http.Request) *slog.Logger {
	return logging.WithContext(r.Context(), s.logger)
}
