package workers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"election/contexts/election/election-ledger/adapters/ethereum"
	"election/contexts/election/election-ledger/adapters/memory"
	"election/contexts/election/election-ledger/application/commands"
	"election/contexts/election/election-ledger/application/workers"
	"election/contexts/election/election-ledger/domain/services"
	"election/contexts/election/election-ledger/ports"
)

const (
	deployer = "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"
	voterA   = "0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2"
	voterB   = "0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db"
)

// syncBus delivers each published event to its topic handlers before
// Publish returns.
type syncBus struct {
	handlers map[string][]func(context.Context, ports.EventEnvelope) error
}

func (b *syncBus) Subscribe(
	_ context.Context,
	topic string,
	_ string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	if b.handlers == nil {
		b.handlers = make(map[string][]func(context.Context, ports.EventEnvelope) error)
	}
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

func (b *syncBus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	for _, handler := range b.handlers[topic] {
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func TestVoteTallyCountsRelayedVotesPerSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(1)
	ledger := commands.LedgerUseCase{
		Ledger:         store,
		Identities:     ethereum.AddressNormalizer{},
		Policy:         services.AdminPolicy{Mode: services.AdminModeOwner, Deployer: deployer},
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: time.Hour,
	}

	bus := &syncBus{}
	tally := &workers.VoteTally{Subscriber: bus}
	if err := tally.Start(ctx); err != nil {
		t.Fatalf("start tally failed: %v", err)
	}
	relay := workers.OutboxRelay{Outbox: store, Publisher: bus, Clock: store}

	for _, name := range []string{"A", "B"} {
		if _, err := ledger.AddCandidate(ctx, commands.AddCandidateCommand{Caller: deployer, Name: name}); err != nil {
			t.Fatalf("add candidate %s failed: %v", name, err)
		}
	}
	if _, err := ledger.Vote(ctx, commands.VoteCommand{Caller: voterA, CandidateID: 1}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if _, err := ledger.Vote(ctx, commands.VoteCommand{Caller: voterB, CandidateID: 1}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if _, err := ledger.StartNewSession(ctx, commands.StartNewSessionCommand{Caller: deployer}); err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	if _, err := ledger.Vote(ctx, commands.VoteCommand{Caller: voterA, CandidateID: 2}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	published, err := relay.RunOnce(ctx)
	if err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	if published != 6 {
		t.Fatalf("expected 6 relayed events, got %d", published)
	}

	first := tally.SessionVotes(1)
	if len(first) != 1 || first[1] != 2 {
		t.Fatalf("expected session 1 to count 2 votes for candidate 1, got %v", first)
	}
	second := tally.SessionVotes(2)
	if len(second) != 1 || second[2] != 1 {
		t.Fatalf("expected session 2 to count 1 vote for candidate 2, got %v", second)
	}
	if tally.LastSequence() != 6 {
		t.Fatalf("expected last sequence 6, got %d", tally.LastSequence())
	}
}

func TestVoteTallySkipsRedeliveredEvents(t *testing.T) {
	ctx := context.Background()
	bus := &syncBus{}
	tally := &workers.VoteTally{Subscriber: bus, TopicPrefix: "test."}
	if err := tally.Start(ctx); err != nil {
		t.Fatalf("start tally failed: %v", err)
	}

	event := ports.EventEnvelope{
		EventID:   "evt-1",
		EventType: "votedEvent",
		Sequence:  3,
		Data:      []byte(`{"candidateId":4,"voter":"0xabc","session_id":1}`),
	}
	for i := 0; i < 2; i++ {
		if err := bus.Publish(ctx, "test.votedEvent", event); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}
	if got := tally.SessionVotes(1)[4]; got != 1 {
		t.Fatalf("expected redelivery to count once, got %d", got)
	}

	bad := ports.EventEnvelope{EventID: "evt-2", Sequence: 4, Data: []byte(`{`)}
	if err := bus.Publish(ctx, "test.votedEvent", bad); err == nil {
		t.Fatalf("expected decode failure for malformed payload")
	}
	if tally.LastSequence() != 3 {
		t.Fatalf("expected malformed event not to advance the sequence, got %d", tally.LastSequence())
	}
}

type failingSubscriber struct{}

func (failingSubscriber) Subscribe(context.Context, string, string, func(context.Context, ports.EventEnvelope) error) error {
	return errors.New("broker unreachable")
}

func TestVoteTallyStartReportsSubscribeFailure(t *testing.T) {
	tally := &workers.VoteTally{Subscriber: failingSubscriber{}}
	if err := tally.Start(context.Background()); err == nil {
		t.Fatalf("expected subscribe failure")
	}
}
