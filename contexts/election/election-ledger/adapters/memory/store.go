package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"time"

	"election/contexts/election/election-ledger/domain/entities"
	domainerrors "election/contexts/election/election-ledger/domain/errors"
	"election/contexts/election/election-ledger/ports"

	"github.com/google/uuid"
)

type voterKey struct {
	address   string
	sessionID int64
}

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type ledgerData struct {
	// candidates[i] holds id i+1.
	candidates  []entities.Candidate
	voters      map[voterKey]entities.VoterRecord
	session     int64
	events      []entities.LedgerEvent
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
	outboxOrder []string
}

// Store is the in-process entity store. Reads take the read lock; Atomically
// holds the write lock for the whole operation and rolls back on error.
type Store struct {
	mu       sync.RWMutex
	data     ledgerData
	capacity int64
}

func NewStore(baselineSession int64) *Store {
	return &Store{
		data: ledgerData{
			voters:      make(map[voterKey]entities.VoterRecord),
			session:     baselineSession,
			idempotency: make(map[string]ports.IdempotencyRecord),
			outbox:      make(map[string]outboxRecord),
		},
	}
}

// SetCandidateCapacity bounds how many candidates may ever be created.
// Zero means unbounded.
func (s *Store) SetCandidateCapacity(capacity int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capacity = capacity
}

func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, state ports.LedgerState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &view{data: &s.data, capacity: s.capacity, journal: make([]func(), 0, 8)}
	if err := fn(ctx, tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *Store) read() *view {
	return &view{data: &s.data, capacity: s.capacity}
}

func (s *Store) CreateCandidate(ctx context.Context, name string, createdAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().CreateCandidate(ctx, name, createdAt)
}

func (s *Store) GetCandidate(ctx context.Context, candidateID int64) (entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetCandidate(ctx, candidateID)
}

func (s *Store) SetCandidateName(ctx context.Context, candidateID int64, name string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().SetCandidateName(ctx, candidateID, name, updatedAt)
}

func (s *Store) SoftRemove(ctx context.Context, candidateID int64, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().SoftRemove(ctx, candidateID, updatedAt)
}

func (s *Store) IncrementVotes(ctx context.Context, candidateID int64, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().IncrementVotes(ctx, candidateID, updatedAt)
}

func (s *Store) CountCandidates(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().CountCandidates(ctx)
}

func (s *Store) ListCandidates(ctx context.Context) ([]entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListCandidates(ctx)
}

func (s *Store) HasVoted(ctx context.Context, address string, sessionID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().HasVoted(ctx, address, sessionID)
}

func (s *Store) VoterStatus(ctx context.Context, address string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().VoterStatus(ctx, address)
}

func (s *Store) MarkVoted(ctx context.Context, record entities.VoterRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().MarkVoted(ctx, record)
}

func (s *Store) CurrentSession(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().CurrentSession(ctx)
}

func (s *Store) SetCurrentSession(ctx context.Context, sessionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().SetCurrentSession(ctx, sessionID)
}

func (s *Store) AppendEvent(ctx context.Context, event entities.LedgerEvent) (entities.LedgerEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().AppendEvent(ctx, event)
}

func (s *Store) ListEvents(ctx context.Context, afterPosition int64, limit int) ([]entities.LedgerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListEvents(ctx, afterPosition, limit)
}

func (s *Store) LastEventPosition(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().LastEventPosition(ctx)
}

func (s *Store) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	// Expired records are evicted on read, so this needs the write lock.
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().Get(ctx, key, now)
}

func (s *Store) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().Put(ctx, record)
}

func (s *Store) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().AppendOutbox(ctx, envelope)
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, limit)
	for _, outboxID := range s.data.outboxOrder {
		row := s.data.outbox[outboxID]
		if row.published {
			continue
		}
		items = append(items, row.message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	outboxID = strings.TrimSpace(outboxID)
	row, ok := s.data.outbox[outboxID]
	if !ok {
		return domainerrors.ErrInvalidInput
	}
	row.published = true
	s.data.outbox[outboxID] = row

	// Drop the published prefix so pending scans start at the oldest
	// unpublished row. Published rows stay in the map for duplicate appends.
	head := 0
	for head < len(s.data.outboxOrder) && s.data.outbox[s.data.outboxOrder[head]].published {
		head++
	}
	s.data.outboxOrder = s.data.outboxOrder[head:]
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// view applies operations to ledgerData. When journal is non-nil every
// mutation records its inverse so a failed operation can be rolled back.
type view struct {
	data     *ledgerData
	capacity int64
	journal  []func()
}

func (v *view) record(undo func()) {
	if v.journal != nil {
		v.journal = append(v.journal, undo)
	}
}

func (v *view) rollback() {
	for i := len(v.journal) - 1; i >= 0; i-- {
		v.journal[i]()
	}
	v.journal = v.journal[:0]
}

func (v *view) CreateCandidate(_ context.Context, name string, createdAt time.Time) (int64, error) {
	count := int64(len(v.data.candidates))
	if count == math.MaxInt64 || (v.capacity > 0 && count >= v.capacity) {
		return 0, domainerrors.ErrStorageExhausted
	}
	id := count + 1
	v.data.candidates = append(v.data.candidates, entities.Candidate{
		ID:        id,
		Name:      name,
		VoteCount: 0,
		Exists:    true,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	})
	v.record(func() {
		v.data.candidates = v.data.candidates[:count]
	})
	return id, nil
}

func (v *view) candidateIndex(candidateID int64) (int, bool) {
	if candidateID < 1 || candidateID > int64(len(v.data.candidates)) {
		return 0, false
	}
	return int(candidateID - 1), true
}

func (v *view) GetCandidate(_ context.Context, candidateID int64) (entities.Candidate, error) {
	idx, ok := v.candidateIndex(candidateID)
	if !ok {
		return entities.Candidate{}, domainerrors.ErrCandidateNotFound
	}
	return v.data.candidates[idx], nil
}

func (v *view) update(candidateID int64, mutate func(*entities.Candidate)) error {
	idx, ok := v.candidateIndex(candidateID)
	if !ok {
		return domainerrors.ErrCandidateNotFound
	}
	previous := v.data.candidates[idx]
	mutate(&v.data.candidates[idx])
	v.record(func() {
		v.data.candidates[idx] = previous
	})
	return nil
}

func (v *view) SetCandidateName(_ context.Context, candidateID int64, name string, updatedAt time.Time) error {
	return v.update(candidateID, func(c *entities.Candidate) {
		c.Name = name
		c.UpdatedAt = updatedAt.UTC()
	})
}

func (v *view) SoftRemove(_ context.Context, candidateID int64, updatedAt time.Time) error {
	return v.update(candidateID, func(c *entities.Candidate) {
		c.Exists = false
		c.UpdatedAt = updatedAt.UTC()
	})
}

func (v *view) IncrementVotes(_ context.Context, candidateID int64, updatedAt time.Time) error {
	idx, ok := v.candidateIndex(candidateID)
	if !ok {
		return domainerrors.ErrCandidateNotFound
	}
	if v.data.candidates[idx].VoteCount == math.MaxInt64 {
		return domainerrors.ErrStorageExhausted
	}
	return v.update(candidateID, func(c *entities.Candidate) {
		c.VoteCount++
		c.UpdatedAt = updatedAt.UTC()
	})
}

func (v *view) CountCandidates(_ context.Context) (int64, error) {
	return int64(len(v.data.candidates)), nil
}

func (v *view) ListCandidates(_ context.Context) ([]entities.Candidate, error) {
	items := make([]entities.Candidate, len(v.data.candidates))
	copy(items, v.data.candidates)
	return items, nil
}

func (v *view) HasVoted(_ context.Context, address string, sessionID int64) (bool, error) {
	_, ok := v.data.voters[voterKey{address: normalizeKey(address), sessionID: sessionID}]
	return ok, nil
}

func (v *view) VoterStatus(_ context.Context, address string) (int64, bool, error) {
	sessionID := v.data.session
	_, ok := v.data.voters[voterKey{address: normalizeKey(address), sessionID: sessionID}]
	return sessionID, ok, nil
}

func (v *view) MarkVoted(_ context.Context, record entities.VoterRecord) error {
	key := voterKey{address: normalizeKey(record.Address), sessionID: record.SessionID}
	if _, exists := v.data.voters[key]; exists {
		return domainerrors.ErrAlreadyVoted
	}
	record.VotedAt = record.VotedAt.UTC()
	v.data.voters[key] = record
	v.record(func() {
		delete(v.data.voters, key)
	})
	return nil
}

func (v *view) CurrentSession(_ context.Context) (int64, error) {
	return v.data.session, nil
}

func (v *view) SetCurrentSession(_ context.Context, sessionID int64) error {
	previous := v.data.session
	v.data.session = sessionID
	v.record(func() {
		v.data.session = previous
	})
	return nil
}

func (v *view) AppendEvent(_ context.Context, event entities.LedgerEvent) (entities.LedgerEvent, error) {
	count := len(v.data.events)
	event.Position = int64(count) + 1
	event.OccurredAt = event.OccurredAt.UTC()
	if strings.TrimSpace(event.EventID) == "" {
		event.EventID = uuid.NewString()
	}
	v.data.events = append(v.data.events, event)
	v.record(func() {
		v.data.events = v.data.events[:count]
	})
	return event, nil
}

func (v *view) ListEvents(_ context.Context, afterPosition int64, limit int) ([]entities.LedgerEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	if afterPosition < 0 {
		afterPosition = 0
	}
	total := int64(len(v.data.events))
	if afterPosition >= total {
		return []entities.LedgerEvent{}, nil
	}
	end := afterPosition + int64(limit)
	if end > total {
		end = total
	}
	items := make([]entities.LedgerEvent, end-afterPosition)
	copy(items, v.data.events[afterPosition:end])
	return items, nil
}

func (v *view) LastEventPosition(_ context.Context) (int64, error) {
	return int64(len(v.data.events)), nil
}

func (v *view) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	key = strings.TrimSpace(key)
	record, exists := v.data.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(v.data.idempotency, key)
		v.record(func() {
			v.data.idempotency[key] = record
		})
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (v *view) Put(_ context.Context, record ports.IdempotencyRecord) error {
	key := strings.TrimSpace(record.Key)
	if existing, exists := v.data.idempotency[key]; exists {
		if existing.RequestHash != record.RequestHash || existing.ResultID != record.ResultID {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	record.Key = key
	record.ExpiresAt = record.ExpiresAt.UTC()
	v.data.idempotency[key] = record
	v.record(func() {
		delete(v.data.idempotency, key)
	})
	return nil
}

func (v *view) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := v.data.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	v.data.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	order := len(v.data.outboxOrder)
	v.data.outboxOrder = append(v.data.outboxOrder, outboxID)
	v.record(func() {
		delete(v.data.outbox, outboxID)
		v.data.outboxOrder = v.data.outboxOrder[:order]
	})
	return nil
}

func normalizeKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

var _ ports.LedgerRepository = (*Store)(nil)
var _ ports.LedgerState = (*view)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
