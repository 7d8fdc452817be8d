// Package httpapi exposes the on-demand dispatch trigger plus health and
// metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	cerrors "notification-dispatcher/internal/common/errors"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/dispatch"
	"notification-dispatcher/internal/store"
)

type dispatchRequest struct {
	UserID         int64 `json:"userId"`
	NotificationID int64 `json:"notificationId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server hosts the HTTP surface of the dispatcher.
type Server struct {
	dispatcher *dispatch.Dispatcher
	store      store.NotificationStore
	logger     logger.Logger
	httpServer *http.Server
}

func NewServer(addr string, d *dispatch.Dispatcher, st store.NotificationStore, log logger.Logger) *Server {
	s := &Server{
		dispatcher: d,
		store:      st,
		logger:     log.WithFields(map[string]interface{}{"component": "httpapi"}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/notifications/dispatch", s.handleDispatch)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routing for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleDispatch triggers a single dispatch for the given pair. The outcome
// body is the same for committed and skipped; failures map onto HTTP status
// by error class.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.UserID <= 0 || req.NotificationID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "userId and notificationId must be positive"})
		return
	}

	outcome := s.dispatcher.Dispatch(r.Context(), req.UserID, req.NotificationID)
	writeJSON(w, statusForOutcome(outcome), outcome)
}

func statusForOutcome(outcome dispatch.Outcome) int {
	if outcome.Status != dispatch.StatusFailed {
		return http.StatusOK
	}
	if outcome.Err == nil {
		return http.StatusInternalServerError
	}
	switch outcome.Err.Code {
	case cerrors.ErrCodeUserNotFound, cerrors.ErrCodeTemplateNotFound, cerrors.ErrCodeNotificationNotFound:
		return http.StatusNotFound
	case cerrors.ErrCodeDeliveryRejected, cerrors.ErrCodeDeliveryTimeout:
		return http.StatusBadGateway
	case cerrors.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady probes the store so a broken database connection takes the
// instance out of rotation.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if _, err := s.store.ListUnsent(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
