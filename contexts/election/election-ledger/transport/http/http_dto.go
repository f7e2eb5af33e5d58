package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AddCandidateRequest struct {
	Name string `json:"name"`
}

type UpdateCandidateRequest struct {
	Name string `json:"name"`
}

type VoteRequest struct {
	CandidateID int64 `json:"candidate_id"`
}

type CandidateResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	VoteCount int64     `json:"vote_count"`
	Exists    bool      `json:"exists"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CandidateMutationResponse struct {
	Candidate     CandidateResponse `json:"candidate"`
	EventPosition int64             `json:"event_position"`
	Replayed      bool              `json:"replayed"`
}

type SessionResponse struct {
	SessionID int64 `json:"session_id"`
}

type StartSessionResponse struct {
	SessionID     int64 `json:"session_id"`
	EventPosition int64 `json:"event_position"`
	Replayed      bool  `json:"replayed"`
}

type VoteResponse struct {
	CandidateID   int64  `json:"candidate_id"`
	VoteCount     int64  `json:"vote_count"`
	SessionID     int64  `json:"session_id"`
	Voter         string `json:"voter"`
	EventPosition int64  `json:"event_position"`
	Replayed      bool   `json:"replayed"`
}

type CandidatesCountResponse struct {
	Count int64 `json:"count"`
}

type CandidateListResponse struct {
	Items []CandidateResponse `json:"items"`
}

type ResultsResponse struct {
	SessionID        int64               `json:"session_id"`
	CandidatesCount  int64               `json:"candidates_count"`
	ActiveCandidates int64               `json:"active_candidates"`
	TotalVotes       int64               `json:"total_votes"`
	Items            []CandidateResponse `json:"items"`
}

type HasVotedResponse struct {
	Address   string `json:"address"`
	SessionID int64  `json:"session_id"`
	HasVoted  bool   `json:"has_voted"`
}

type EventResponse struct {
	Position   int64          `json:"position"`
	EventID    string         `json:"event_id"`
	Type       string         `json:"type"`
	SessionID  int64          `json:"session_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

type EventListResponse struct {
	Items        []EventResponse `json:"items"`
	LastPosition int64           `json:"last_position"`
}
