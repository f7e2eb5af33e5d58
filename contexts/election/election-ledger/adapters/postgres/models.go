package postgresadapter

import (
	"strings"
	"time"

	"election/contexts/election/election-ledger/domain/entities"
	"election/contexts/election/election-ledger/ports"
)

type stateModel struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement:false"`
	SessionID         int64     `gorm:"column:session_id;not null"`
	CandidatesCount   int64     `gorm:"column:candidates_count;not null;default:0"`
	LastEventPosition int64     `gorm:"column:last_event_position;not null;default:0"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (stateModel) TableName() string {
	return "election_state"
}

type candidateModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name      string    `gorm:"column:name;not null"`
	VoteCount int64     `gorm:"column:vote_count;not null;default:0"`
	Active    bool      `gorm:"column:active;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (candidateModel) TableName() string {
	return "election_candidates"
}

func (m candidateModel) toEntity() entities.Candidate {
	return entities.Candidate{
		ID:        m.ID,
		Name:      m.Name,
		VoteCount: m.VoteCount,
		Exists:    m.Active,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

// voterModel's composite key enforces one vote per address per session.
type voterModel struct {
	AddressKey  string    `gorm:"column:address_key;primaryKey"`
	SessionID   int64     `gorm:"column:session_id;primaryKey;autoIncrement:false"`
	Address     string    `gorm:"column:address;not null"`
	CandidateID int64     `gorm:"column:candidate_id;not null;index"`
	VotedAt     time.Time `gorm:"column:voted_at"`
}

func (voterModel) TableName() string {
	return "election_voters"
}

type eventModel struct {
	Position      int64     `gorm:"column:position;primaryKey;autoIncrement:false"`
	EventID       string    `gorm:"column:event_id;uniqueIndex;not null"`
	Kind          string    `gorm:"column:kind;not null"`
	SessionID     int64     `gorm:"column:session_id"`
	CandidateID   int64     `gorm:"column:candidate_id"`
	CandidateName string    `gorm:"column:candidate_name"`
	Voter         string    `gorm:"column:voter"`
	NewSessionID  int64     `gorm:"column:new_session_id"`
	OccurredAt    time.Time `gorm:"column:occurred_at"`
}

func (eventModel) TableName() string {
	return "election_events"
}

func eventModelFromEntity(event entities.LedgerEvent) eventModel {
	return eventModel{
		Position:      event.Position,
		EventID:       strings.TrimSpace(event.EventID),
		Kind:          string(event.Kind),
		SessionID:     event.SessionID,
		CandidateID:   event.CandidateID,
		CandidateName: event.CandidateName,
		Voter:         strings.TrimSpace(event.Voter),
		NewSessionID:  event.NewSessionID,
		OccurredAt:    event.OccurredAt.UTC(),
	}
}

func (m eventModel) toEntity() entities.LedgerEvent {
	return entities.LedgerEvent{
		Position:      m.Position,
		EventID:       m.EventID,
		Kind:          entities.EventKind(m.Kind),
		SessionID:     m.SessionID,
		CandidateID:   m.CandidateID,
		CandidateName: m.CandidateName,
		Voter:         m.Voter,
		NewSessionID:  m.NewSessionID,
		OccurredAt:    m.OccurredAt.UTC(),
	}
}

type idempotencyModel struct {
	Key           string    `gorm:"column:key;primaryKey"`
	RequestHash   string    `gorm:"column:request_hash;not null"`
	Operation     string    `gorm:"column:operation;not null"`
	ResultID      int64     `gorm:"column:result_id"`
	EventPosition int64     `gorm:"column:event_position"`
	ExpiresAt     time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "election_idempotency"
}

func (m idempotencyModel) toRecord() ports.IdempotencyRecord {
	return ports.IdempotencyRecord{
		Key:           m.Key,
		RequestHash:   m.RequestHash,
		Operation:     m.Operation,
		ResultID:      m.ResultID,
		EventPosition: m.EventPosition,
		ExpiresAt:     m.ExpiresAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	Sequence     int64      `gorm:"column:sequence;index"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "election_outbox"
}
