package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"election/contexts/election/election-ledger/adapters/memory"
	"election/contexts/election/election-ledger/application/queries"
	"election/contexts/election/election-ledger/domain/entities"
	domainerrors "election/contexts/election/election-ledger/domain/errors"
)

func appendEvents(t *testing.T, store *memory.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := store.AppendEvent(context.Background(), entities.LedgerEvent{
			Kind:        entities.EventCandidateAdded,
			CandidateID: int64(i + 1),
		}); err != nil {
			t.Fatalf("append event failed: %v", err)
		}
	}
}

func receive(t *testing.T, events <-chan entities.LedgerEvent) entities.LedgerEvent {
	t.Helper()
	select {
	case event, ok := <-events:
		if !ok {
			t.Fatalf("feed closed unexpectedly")
		}
		return event
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for feed event")
	}
	return entities.LedgerEvent{}
}

func TestEventsSinceValidatesCursorAndClampsLimit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(1)
	appendEvents(t, store, 3)
	feed := queries.EventFeed{Events: store}

	if _, err := feed.EventsSince(ctx, -1, 10); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative cursor, got %v", err)
	}
	items, err := feed.EventsSince(ctx, 1, 0)
	if err != nil {
		t.Fatalf("events since failed: %v", err)
	}
	if len(items) != 2 || items[0].Position != 2 || items[1].Position != 3 {
		t.Fatalf("unexpected events: %+v", items)
	}
	last, err := feed.LastPosition(ctx)
	if err != nil || last != 3 {
		t.Fatalf("expected last position 3, got %d err=%v", last, err)
	}
}

func TestSubscribeDeliversBacklogThenLiveEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewStore(1)
	notifier := memory.NewNotifier()
	appendEvents(t, store, 2)

	// Long poll interval so the live event arrives through the notifier.
	feed := queries.EventFeed{Events: store, Notifier: notifier, PollInterval: time.Minute}
	events, err := feed.Subscribe(ctx, 0)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	for want := int64(1); want <= 2; want++ {
		if got := receive(t, events).Position; got != want {
			t.Fatalf("expected backlog position %d, got %d", want, got)
		}
	}

	if _, err := store.AppendEvent(ctx, entities.LedgerEvent{Kind: entities.EventVoted, CandidateID: 1}); err != nil {
		t.Fatalf("append live event failed: %v", err)
	}
	notifier.Notify()
	live := receive(t, events)
	if live.Position != 3 || live.Kind != entities.EventVoted {
		t.Fatalf("unexpected live event: %+v", live)
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("expected no further events after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected feed channel to close after cancel")
	}
}

func TestSubscribeResumesFromCursorWithoutNotifier(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewStore(1)
	appendEvents(t, store, 4)

	feed := queries.EventFeed{Events: store, PollInterval: 10 * time.Millisecond, BatchSize: 1}
	events, err := feed.Subscribe(ctx, 2)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if got := receive(t, events).Position; got != 3 {
		t.Fatalf("expected resume at position 3, got %d", got)
	}
	if got := receive(t, events).Position; got != 4 {
		t.Fatalf("expected position 4, got %d", got)
	}

	appendEvents(t, store, 1)
	if got := receive(t, events).Position; got != 5 {
		t.Fatalf("expected polled position 5, got %d", got)
	}

	if _, err := feed.Subscribe(ctx, -5); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative cursor, got %v", err)
	}
}
