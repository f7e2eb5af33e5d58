package entities

import "time"

type EventKind string

const (
	EventCandidateAdded   EventKind = "candidateAdded"
	EventCandidateUpdated EventKind = "candidateUpdated"
	EventCandidateRemoved EventKind = "candidateRemoved"
	EventSessionChanged   EventKind = "sessionChanged"
	EventVoted            EventKind = "votedEvent"
)

// LedgerEvent is one committed mutation. Position is assigned by the store on
// append and is strictly increasing without gaps, starting at 1.
type LedgerEvent struct {
	Position      int64
	EventID       string
	Kind          EventKind
	SessionID     int64
	CandidateID   int64
	CandidateName string
	Voter         string
	NewSessionID  int64
	OccurredAt    time.Time
}

// Payload returns the kind-specific fields exposed to feed consumers.
func (e LedgerEvent) Payload() map[string]any {
	switch e.Kind {
	case EventCandidateAdded, EventCandidateUpdated:
		return map[string]any{
			"id":   e.CandidateID,
			"name": e.CandidateName,
		}
	case EventCandidateRemoved:
		return map[string]any{
			"id": e.CandidateID,
		}
	case EventSessionChanged:
		return map[string]any{
			"newSessionId": e.NewSessionID,
		}
	case EventVoted:
		return map[string]any{
			"candidateId": e.CandidateID,
			"voter":       e.Voter,
		}
	default:
		return map[string]any{}
	}
}
