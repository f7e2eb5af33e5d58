package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	application "election/contexts/election/election-ledger/application"
	"election/contexts/election/election-ledger/domain/entities"
	"election/contexts/election/election-ledger/ports"
)

const defaultTallyConsumerGroup = "election-vote-tally-cg"

// VoteTally consumes votedEvent from the bus and keeps per-session vote
// counts. Delivery is at least once, so events at or below the highest
// sequence already applied are skipped.
type VoteTally struct {
	Subscriber    ports.EventSubscriber
	TopicPrefix   string
	ConsumerGroup string
	Logger        *slog.Logger

	mu           sync.RWMutex
	lastSequence int64
	counts       map[int64]map[int64]int64
}

func (t *VoteTally) Start(ctx context.Context) error {
	logger := application.ResolveLogger(t.Logger)
	group := strings.TrimSpace(t.ConsumerGroup)
	if group == "" {
		group = defaultTallyConsumerGroup
	}
	prefix := t.TopicPrefix
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	topic := prefix + string(entities.EventVoted)
	if err := t.Subscriber.Subscribe(ctx, topic, group, t.handleVoted); err != nil {
		logger.Error("vote tally subscribe failed",
			"event", "election_vote_tally_subscribe_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"topic", topic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("vote tally subscription active",
		"event", "election_vote_tally_started",
		"module", application.ModuleName,
		"layer", "worker",
		"topic", topic,
		"consumer_group", group,
	)
	return nil
}

func (t *VoteTally) handleVoted(_ context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(t.Logger)
	var payload struct {
		CandidateID int64  `json:"candidateId"`
		Voter       string `json:"voter"`
		SessionID   int64  `json:"session_id"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("votedEvent payload decode failed",
			"event", "election_vote_tally_decode_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"sequence", event.Sequence,
			"error", err.Error(),
		)
		return err
	}

	t.mu.Lock()
	if event.Sequence <= t.lastSequence {
		t.mu.Unlock()
		logger.Debug("votedEvent replay skipped",
			"event", "election_vote_tally_replayed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"sequence", event.Sequence,
		)
		return nil
	}
	t.lastSequence = event.Sequence
	if t.counts == nil {
		t.counts = make(map[int64]map[int64]int64)
	}
	session := t.counts[payload.SessionID]
	if session == nil {
		session = make(map[int64]int64)
		t.counts[payload.SessionID] = session
	}
	session[payload.CandidateID]++
	total := session[payload.CandidateID]
	t.mu.Unlock()

	logger.Info("votedEvent tallied",
		"event", "election_vote_tally_applied",
		"module", application.ModuleName,
		"layer", "worker",
		"event_id", event.EventID,
		"sequence", event.Sequence,
		"session_id", payload.SessionID,
		"candidate_id", payload.CandidateID,
		"voter", payload.Voter,
		"session_votes", total,
	)
	return nil
}

// SessionVotes returns a copy of the counts seen for sessionID, keyed by
// candidate id.
func (t *VoteTally) SessionVotes(sessionID int64) map[int64]int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[int64]int64, len(t.counts[sessionID]))
	for candidateID, votes := range t.counts[sessionID] {
		out[candidateID] = votes
	}
	return out
}

func (t *VoteTally) LastSequence() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastSequence
}
