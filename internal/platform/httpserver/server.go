package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	electionledger "election/contexts/election/election-ledger"
	domainerrors "election/contexts/election/election-ledger/domain/errors"
	electionhttp "election/contexts/election/election-ledger/transport/http"

	_ "election/internal/platform/httpserver/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	callerHeader         = "X-Caller-Address"
	idempotencyHeader    = "Idempotency-Key"
	lastEventIDHeader    = "Last-Event-ID"
	streamKeepAlive      = 15 * time.Second
	shutdownGracePeriod  = 10 * time.Second
	readHeaderTimeout    = 5 * time.Second
	maxRequestBodyLength = 1 << 20
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	election electionledger.Module
}

func New(election electionledger.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		election: election,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled, then drains in-flight requests.
// Open event streams end when their request context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("http server stopped",
		"event", "http_server_stopped",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /v1/election/candidates", s.handleAddCandidate)
	s.mux.HandleFunc("PATCH /v1/election/candidates/{candidate_id}", s.handleUpdateCandidate)
	s.mux.HandleFunc("DELETE /v1/election/candidates/{candidate_id}", s.handleRemoveCandidate)
	s.mux.HandleFunc("POST /v1/election/sessions", s.handleStartSession)
	s.mux.HandleFunc("POST /v1/election/votes", s.handleVote)

	s.mux.HandleFunc("GET /v1/election/session", s.handleCurrentSession)
	s.mux.HandleFunc("GET /v1/election/candidates", s.handleListCandidates)
	s.mux.HandleFunc("GET /v1/election/candidates/count", s.handleCandidatesCount)
	s.mux.HandleFunc("GET /v1/election/candidates/{candidate_id}", s.handleGetCandidate)
	s.mux.HandleFunc("GET /v1/election/results", s.handleResults)
	s.mux.HandleFunc("GET /v1/election/voters/{address}", s.handleHasVoted)
	s.mux.HandleFunc("GET /v1/election/events", s.handleListEvents)
	s.mux.HandleFunc("GET /v1/election/events/stream", s.handleStreamEvents)
}

// handleHealth godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAddCandidate(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.AddCandidateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.election.Handler.AddCandidateHandler(r.Context(), callerOf(r), idempotencyKeyOf(r), req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := candidateIDOf(w, r)
	if !ok {
		return
	}
	var req electionhttp.UpdateCandidateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.election.Handler.UpdateCandidateHandler(r.Context(), callerOf(r), idempotencyKeyOf(r), candidateID, req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := candidateIDOf(w, r)
	if !ok {
		return
	}
	resp, err := s.election.Handler.RemoveCandidateHandler(r.Context(), callerOf(r), idempotencyKeyOf(r), candidateID)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.StartSessionHandler(r.Context(), callerOf(r), idempotencyKeyOf(r))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.VoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := s.election.Handler.VoteHandler(r.Context(), callerOf(r), idempotencyKeyOf(r), req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.CurrentSessionHandler(r.Context())
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCandidatesCount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.CandidatesCountHandler(r.Context())
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := candidateIDOf(w, r)
	if !ok {
		return
	}
	resp, err := s.election.Handler.CandidateHandler(r.Context(), candidateID)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := strings.TrimSpace(r.URL.Query().Get("active")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			writeElectionError(w, http.StatusBadRequest, "invalid_active_filter", "active must be a boolean")
			return
		}
		activeOnly = value
	}
	resp, err := s.election.Handler.ListCandidatesHandler(r.Context(), activeOnly)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.ResultsHandler(r.Context())
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHasVoted(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.HasVotedHandler(r.Context(), r.PathValue("address"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	after, ok := int64Param(w, query.Get("after"), "invalid_after", "after must be a non-negative integer")
	if !ok {
		return
	}
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			writeElectionError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = value
	}
	resp, err := s.election.Handler.ListEventsHandler(r.Context(), after, limit)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStreamEvents serves the ledger feed as server-sent events. The SSE id
// is the event position, so a reconnecting client resumes through
// Last-Event-ID without gaps or duplicates.
func (s *Server) handleStreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeElectionError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming is not supported")
		return
	}

	cursor := r.URL.Query().Get("after")
	if lastID := strings.TrimSpace(r.Header.Get(lastEventIDHeader)); lastID != "" {
		cursor = lastID
	}
	after, ok := int64Param(w, cursor, "invalid_after", "after must be a non-negative integer")
	if !ok {
		return
	}

	stream, err := s.election.Handler.StreamEventsHandler(r.Context(), after)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.logger.Info("event stream opened",
		"event", "election_event_stream_opened",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"after", after,
	)

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event, open := <-stream:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				s.logger.Error("event stream encode failed",
					"event", "election_event_stream_encode_failed",
					"module", "internal/platform/httpserver",
					"layer", "platform",
					"position", event.Position,
					"error", err.Error(),
				)
				return
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.Position, event.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func callerOf(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(callerHeader))
}

func idempotencyKeyOf(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(idempotencyHeader))
}

func candidateIDOf(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.PathValue("candidate_id"))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_candidate_id", "candidate_id must be an integer")
		return 0, false
	}
	return value, true
}

func int64Param(w http.ResponseWriter, raw string, code string, message string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		writeElectionError(w, http.StatusBadRequest, code, message)
		return 0, false
	}
	return value, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyLength)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func writeElectionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrInvalidAddress):
		writeElectionError(w, http.StatusBadRequest, "invalid_address", err.Error())
	case errors.Is(err, domainerrors.ErrIdempotencyConflict):
		writeElectionError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, domainerrors.ErrCandidateNotFound):
		writeElectionError(w, http.StatusNotFound, "candidate_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyVoted):
		writeElectionError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, domainerrors.ErrUnauthorized):
		writeElectionError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, domainerrors.ErrStorageExhausted):
		writeElectionError(w, http.StatusInsufficientStorage, "storage_exhausted", err.Error())
	case domainerrors.KindOf(err) == domainerrors.KindInvalidInput:
		writeElectionError(w, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		writeElectionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeElectionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, electionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
