package workers_test

import (
	"context"
	"errors"
	"testing"

	"election/contexts/election/election-ledger/adapters/memory"
	"election/contexts/election/election-ledger/application/workers"
	"election/contexts/election/election-ledger/ports"
)

type recordingPublisher struct {
	topics    []string
	sequences []int64
	failOn    int64
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.failOn != 0 && event.Sequence == p.failOn {
		return errors.New("bus unavailable")
	}
	p.topics = append(p.topics, topic)
	p.sequences = append(p.sequences, event.Sequence)
	return nil
}

func seedOutbox(t *testing.T, store *memory.Store) {
	t.Helper()
	types := []string{"candidateAdded", "votedEvent", "sessionChanged"}
	for i, eventType := range types {
		if err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
			EventID:   eventType,
			EventType: eventType,
			Sequence:  int64(i + 1),
		}); err != nil {
			t.Fatalf("append outbox failed: %v", err)
		}
	}
}

func TestOutboxRelayPublishesInCommitOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(1)
	seedOutbox(t, store)

	publisher := &recordingPublisher{}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}

	published, err := relay.RunOnce(ctx)
	if err != nil {
		t.Fatalf("run once failed: %v", err)
	}
	if published != 3 {
		t.Fatalf("expected 3 published rows, got %d", published)
	}
	for i, seq := range publisher.sequences {
		if seq != int64(i+1) {
			t.Fatalf("expected sequence %d at %d, got %d", i+1, i, seq)
		}
	}
	if publisher.topics[1] != "election.ledger.votedEvent" {
		t.Fatalf("unexpected topic %q", publisher.topics[1])
	}

	again, err := relay.RunOnce(ctx)
	if err != nil || again != 0 {
		t.Fatalf("expected drained outbox, got %d err=%v", again, err)
	}
}

func TestOutboxRelayStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(1)
	seedOutbox(t, store)

	publisher := &recordingPublisher{failOn: 2}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, TopicPrefix: "test."}

	published, err := relay.RunOnce(ctx)
	if err == nil {
		t.Fatalf("expected publish failure")
	}
	if published != 1 {
		t.Fatalf("expected 1 row published before failure, got %d", published)
	}
	if len(publisher.sequences) != 1 || publisher.topics[0] != "test.candidateAdded" {
		t.Fatalf("expected only the first event delivered, got %v %v", publisher.sequences, publisher.topics)
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 || pending[0].OutboxID != "votedEvent" {
		t.Fatalf("expected failed and later rows to stay pending, got %+v", pending)
	}

	publisher.failOn = 0
	published, err = relay.RunOnce(ctx)
	if err != nil || published != 2 {
		t.Fatalf("expected retry to publish 2 rows, got %d err=%v", published, err)
	}
	if publisher.sequences[1] != 2 || publisher.sequences[2] != 3 {
		t.Fatalf("expected retry to keep order, got %v", publisher.sequences)
	}
}
