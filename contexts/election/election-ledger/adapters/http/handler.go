package httpadapter

import (
	"context"
	"log/slog"

	"election/contexts/election/election-ledger/application/commands"
	"election/contexts/election/election-ledger/application/queries"
	"election/contexts/election/election-ledger/domain/entities"
	httptransport "election/contexts/election/election-ledger/transport/http"
)

type Handler struct {
	Ledger  commands.LedgerUseCase
	Queries queries.LedgerQueries
	Feed    queries.EventFeed
	Logger  *slog.Logger
}

// AddCandidateHandler godoc
// @Summary Add a candidate
// @Description Admin only. Assigns the next candidate id and appends candidateAdded.
// @Tags election-ledger
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "Caller address"
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body httptransport.AddCandidateRequest true "Candidate name"
// @Success 201 {object} httptransport.CandidateMutationResponse
// @Success 200 {object} httptransport.CandidateMutationResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Failure 507 {object} httptransport.ErrorResponse
// @Router /v1/election/candidates [post]
func (h Handler) AddCandidateHandler(
	ctx context.Context,
	caller string,
	idempotencyKey string,
	req httptransport.AddCandidateRequest,
) (httptransport.CandidateMutationResponse, error) {
	result, err := h.Ledger.AddCandidate(ctx, commands.AddCandidateCommand{
		Caller:         caller,
		Name:           req.Name,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.CandidateMutationResponse{}, err
	}
	return httptransport.CandidateMutationResponse{
		Candidate:     mapCandidate(result.Candidate),
		EventPosition: result.Event.Position,
		Replayed:      result.Replayed,
	}, nil
}

// UpdateCandidateHandler godoc
// @Summary Rename a candidate
// @Description Admin only. Appends candidateUpdated.
// @Tags election-ledger
// @Accept json
// @Produce json
// @Param candidate_id path int true "Candidate id"
// @Param X-Caller-Address header string true "Caller address"
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body httptransport.UpdateCandidateRequest true "New candidate name"
// @Success 200 {object} httptransport.CandidateMutationResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/election/candidates/{candidate_id} [patch]
func (h Handler) UpdateCandidateHandler(
	ctx context.Context,
	caller string,
	idempotencyKey string,
	candidateID int64,
	req httptransport.UpdateCandidateRequest,
) (httptransport.CandidateMutationResponse, error) {
	result, err := h.Ledger.UpdateCandidateName(ctx, commands.UpdateCandidateNameCommand{
		Caller:         caller,
		CandidateID:    candidateID,
		Name:           req.Name,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.CandidateMutationResponse{}, err
	}
	return httptransport.CandidateMutationResponse{
		Candidate:     mapCandidate(result.Candidate),
		EventPosition: result.Event.Position,
		Replayed:      result.Replayed,
	}, nil
}

// RemoveCandidateHandler godoc
// @Summary Remove a candidate
// @Description Admin only. Clears the exists flag and appends candidateRemoved.
// @Tags election-ledger
// @Produce json
// @Param candidate_id path int true "Candidate id"
// @Param X-Caller-Address header string true "Caller address"
// @Param Idempotency-Key header string false "Idempotency key"
// @Success 200 {object} httptransport.CandidateMutationResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/election/candidates/{candidate_id} [delete]
func (h Handler) RemoveCandidateHandler(
	ctx context.Context,
	caller string,
	idempotencyKey string,
	candidateID int64,
) (httptransport.CandidateMutationResponse, error) {
	result, err := h.Ledger.RemoveCandidate(ctx, commands.RemoveCandidateCommand{
		Caller:         caller,
		CandidateID:    candidateID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.CandidateMutationResponse{}, err
	}
	return httptransport.CandidateMutationResponse{
		Candidate:     mapCandidate(result.Candidate),
		EventPosition: result.Event.Position,
		Replayed:      result.Replayed,
	}, nil
}

// StartSessionHandler godoc
// @Summary Start a new voting session
// @Description Admin only. Increments the session id so every address may vote again.
// @Tags election-ledger
// @Produce json
// @Param X-Caller-Address header string true "Caller address"
// @Param Idempotency-Key header string false "Idempotency key"
// @Success 201 {object} httptransport.StartSessionResponse
// @Success 200 {object} httptransport.StartSessionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/election/sessions [post]
func (h Handler) StartSessionHandler(
	ctx context.Context,
	caller string,
	idempotencyKey string,
) (httptransport.StartSessionResponse, error) {
	result, err := h.Ledger.StartNewSession(ctx, commands.StartNewSessionCommand{
		Caller:         caller,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.StartSessionResponse{}, err
	}
	return httptransport.StartSessionResponse{
		SessionID:     result.SessionID,
		EventPosition: result.Event.Position,
		Replayed:      result.Replayed,
	}, nil
}

// VoteHandler godoc
// @Summary Cast a vote in the current session
// @Description One vote per address per session. Appends votedEvent.
// @Tags election-ledger
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "Caller address"
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body httptransport.VoteRequest true "Candidate to vote for"
// @Success 201 {object} httptransport.VoteResponse
// @Success 200 {object} httptransport.VoteResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Failure 507 {object} httptransport.ErrorResponse
// @Router /v1/election/votes [post]
func (h Handler) VoteHandler(
	ctx context.Context,
	caller string,
	idempotencyKey string,
	req httptransport.VoteRequest,
) (httptransport.VoteResponse, error) {
	result, err := h.Ledger.Vote(ctx, commands.VoteCommand{
		Caller:         caller,
		CandidateID:    req.CandidateID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		CandidateID:   result.Candidate.ID,
		VoteCount:     result.Candidate.VoteCount,
		SessionID:     result.SessionID,
		Voter:         result.Voter,
		EventPosition: result.Event.Position,
		Replayed:      result.Replayed,
	}, nil
}

// CurrentSessionHandler godoc
// @Summary Current session id
// @Tags election-ledger
// @Produce json
// @Success 200 {object} httptransport.SessionResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/election/session [get]
func (h Handler) CurrentSessionHandler(ctx context.Context) (httptransport.SessionResponse, error) {
	sessionID, err := h.Queries.CurrentSession(ctx)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return httptransport.SessionResponse{SessionID: sessionID}, nil
}

// CandidatesCountHandler godoc
// @Summary Number of candidate ids ever assigned
// @Description Removed candidates are still counted.
// @Tags election-ledger
// @Produce json
// @Success 200 {object} httptransport.CandidatesCountResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/election/candidates/count [get]
func (h Handler) CandidatesCountHandler(ctx context.Context) (httptransport.CandidatesCountResponse, error) {
	count, err := h.Queries.CandidatesCount(ctx)
	if err != nil {
		return httptransport.CandidatesCountResponse{}, err
	}
	return httptransport.CandidatesCountResponse{Count: count}, nil
}

// CandidateHandler godoc
// @Summary Get a candidate
// @Tags election-ledger
// @Produce json
// @Param candidate_id path int true "Candidate id"
// @Success 200 {object} httptransport.CandidateResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/election/candidates/{candidate_id} [get]
func (h Handler) CandidateHandler(ctx context.Context, candidateID int64) (httptransport.CandidateResponse, error) {
	candidate, err := h.Queries.Candidate(ctx, candidateID)
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return mapCandidate(candidate), nil
}

// ListCandidatesHandler godoc
// @Summary List candidates in id order
// @Tags election-ledger
// @Produce json
// @Param active query bool false "Only candidates that still exist"
// @Success 200 {object} httptransport.CandidateListResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/election/candidates [get]
func (h Handler) ListCandidatesHandler(ctx context.Context, activeOnly bool) (httptransport.CandidateListResponse, error) {
	items, err := h.Queries.ListCandidates(ctx, activeOnly)
	if err != nil {
		return httptransport.CandidateListResponse{}, err
	}
	return httptransport.CandidateListResponse{Items: mapCandidates(items)}, nil
}

// ResultsHandler godoc
// @Summary Tally of all candidates
// @Tags election-ledger
// @Produce json
// @Success 200 {object} httptransport.ResultsResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/election/results [get]
func (h Handler) ResultsHandler(ctx context.Context) (httptransport.ResultsResponse, error) {
	results, err := h.Queries.Results(ctx)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	return httptransport.ResultsResponse{
		SessionID:        results.SessionID,
		CandidatesCount:  results.CandidatesCount,
		ActiveCandidates: results.ActiveCandidates,
		TotalVotes:       results.TotalVotes,
		Items:            mapCandidates(results.Candidates),
	}, nil
}

// HasVotedHandler godoc
// @Summary Whether an address voted in the current session
// @Description The session id and the flag are read from the same snapshot.
// @Tags election-ledger
// @Produce json
// @Param address path string true "Voter address"
// @Success 200 {object} httptransport.HasVotedResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/election/voters/{address} [get]
func (h Handler) HasVotedHandler(ctx context.Context, address string) (httptransport.HasVotedResponse, error) {
	sessionID, voted, err := h.Queries.VoterStatus(ctx, address)
	if err != nil {
		return httptransport.HasVotedResponse{}, err
	}
	return httptransport.HasVotedResponse{
		Address:   address,
		SessionID: sessionID,
		HasVoted:  voted,
	}, nil
}

// ListEventsHandler godoc
// @Summary Replay ledger events after a position
// @Tags election-ledger
// @Produce json
// @Param after query int false "Return events with a larger position"
// @Param limit query int false "Page size"
// @Success 200 {object} httptransport.EventListResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/election/events [get]
func (h Handler) ListEventsHandler(ctx context.Context, after int64, limit int) (httptransport.EventListResponse, error) {
	items, err := h.Feed.EventsSince(ctx, after, limit)
	if err != nil {
		return httptransport.EventListResponse{}, err
	}
	last, err := h.Feed.LastPosition(ctx)
	if err != nil {
		return httptransport.EventListResponse{}, err
	}
	resp := httptransport.EventListResponse{
		Items:        make([]httptransport.EventResponse, 0, len(items)),
		LastPosition: last,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, MapEvent(item))
	}
	return resp, nil
}

// StreamEventsHandler godoc
// @Summary Follow ledger events as server-sent events
// @Description The SSE id is the event position. Last-Event-ID overrides after.
// @Tags election-ledger
// @Produce text/event-stream
// @Param after query int false "Resume after this position"
// @Param Last-Event-ID header string false "Last position seen by the client"
// @Success 200 {string} string "event stream"
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/election/events/stream [get]
func (h Handler) StreamEventsHandler(ctx context.Context, after int64) (<-chan httptransport.EventResponse, error) {
	events, err := h.Feed.Subscribe(ctx, after)
	if err != nil {
		return nil, err
	}
	out := make(chan httptransport.EventResponse)
	go func() {
		defer close(out)
		for event := range events {
			select {
			case out <- MapEvent(event):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func MapEvent(event entities.LedgerEvent) httptransport.EventResponse {
	return httptransport.EventResponse{
		Position:   event.Position,
		EventID:    event.EventID,
		Type:       string(event.Kind),
		SessionID:  event.SessionID,
		OccurredAt: event.OccurredAt.UTC(),
		Data:       event.Payload(),
	}
}

func mapCandidate(candidate entities.Candidate) httptransport.CandidateResponse {
	return httptransport.CandidateResponse{
		ID:        candidate.ID,
		Name:      candidate.Name,
		VoteCount: candidate.VoteCount,
		Exists:    candidate.Exists,
		CreatedAt: candidate.CreatedAt.UTC(),
		UpdatedAt: candidate.UpdatedAt.UTC(),
	}
}

func mapCandidates(items []entities.Candidate) []httptransport.CandidateResponse {
	out := make([]httptransport.CandidateResponse, 0, len(items))
	for _, item := range items {
		out = append(out, mapCandidate(item))
	}
	return out
}
