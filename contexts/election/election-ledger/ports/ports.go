package ports

import (
	"context"
	"time"

	"election/contexts/election/election-ledger/domain/entities"
	contractsv1 "election/contracts/gen/events/v1"
)

// CandidateStore is the candidate half of the entity store. It carries no
// business rules; callers check existence before mutating.
type CandidateStore interface {
	CreateCandidate(ctx context.Context, name string, createdAt time.Time) (int64, error)
	GetCandidate(ctx context.Context, candidateID int64) (entities.Candidate, error)
	SetCandidateName(ctx context.Context, candidateID int64, name string, updatedAt time.Time) error
	SoftRemove(ctx context.Context, candidateID int64, updatedAt time.Time) error
	IncrementVotes(ctx context.Context, candidateID int64, updatedAt time.Time) error
	// CountCandidates is the id high-water mark, removed candidates included.
	CountCandidates(ctx context.Context) (int64, error)
	ListCandidates(ctx context.Context) ([]entities.Candidate, error)
}

// VoterStore tracks (address, session) participation.
type VoterStore interface {
	HasVoted(ctx context.Context, address string, sessionID int64) (bool, error)
	// VoterStatus reads the current session and the voted flag of address in
	// that session from one snapshot.
	VoterStatus(ctx context.Context, address string) (sessionID int64, voted bool, err error)
	MarkVoted(ctx context.Context, record entities.VoterRecord) error
}

type SessionStore interface {
	CurrentSession(ctx context.Context) (int64, error)
	SetCurrentSession(ctx context.Context, sessionID int64) error
}

// EventLog is the append-only ledger event feed.
type EventLog interface {
	AppendEvent(ctx context.Context, event entities.LedgerEvent) (entities.LedgerEvent, error)
	ListEvents(ctx context.Context, afterPosition int64, limit int) ([]entities.LedgerEvent, error)
	LastEventPosition(ctx context.Context) (int64, error)
}

type IdempotencyRecord struct {
	Key           string
	RequestHash   string
	Operation     string
	ResultID      int64
	EventPosition int64
	ExpiresAt     time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// LedgerState is everything a single committed operation may touch.
type LedgerState interface {
	CandidateStore
	VoterStore
	SessionStore
	EventLog
	IdempotencyStore
	OutboxWriter
}

// LedgerRepository reads committed state directly and applies mutations
// through Atomically. fn either commits in full or leaves no trace; writers
// are serialized against each other.
type LedgerRepository interface {
	LedgerState
	Atomically(ctx context.Context, fn func(ctx context.Context, state LedgerState) error) error
}

// EventNotifier wakes feed subscribers after a commit. Delivery is a hint;
// subscribers still read positions from the EventLog.
type EventNotifier interface {
	Notify()
	Wait() <-chan struct{}
}

// AddressNormalizer validates caller identities and returns their canonical
// form.
type AddressNormalizer interface {
	Normalize(raw string) (string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
