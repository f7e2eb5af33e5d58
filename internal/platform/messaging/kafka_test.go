package messaging

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	contractsv1 "election/contracts/gen/events/v1"

	"github.com/stretchr/testify/require"
)

func TestKafkaDeliversInPublishOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := NewKafka(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	received := make(chan int64, 8)
	require.NoError(t, bus.Subscribe(ctx, "election.ledger.votedEvent", "tally", func(_ context.Context, event contractsv1.Envelope) error {
		received <- event.Sequence
		return nil
	}))

	for seq := int64(1); seq <= 3; seq++ {
		require.NoError(t, bus.Publish(ctx, "election.ledger.votedEvent", contractsv1.Envelope{EventID: "e", Sequence: seq}))
	}
	require.NoError(t, bus.Publish(ctx, "election.ledger.sessionChanged", contractsv1.Envelope{Sequence: 99}))

	for want := int64(1); want <= 3; want++ {
		select {
		case got := <-received:
			require.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for sequence %d", want)
		}
	}
	select {
	case got := <-received:
		t.Fatalf("unexpected delivery from another topic: %d", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestKafkaRemovesSubscriberOnCancel(t *testing.T) {
	bus, err := NewKafka([]string{"localhost:9092"}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"localhost:9092"}, bus.Brokers())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Subscribe(ctx, "topic", "group", func(context.Context, contractsv1.Envelope) error {
		return nil
	}))
	cancel()

	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		_, ok := bus.subscribers["topic"]
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	require.ErrorIs(t, bus.Publish(cancelled, "topic", contractsv1.Envelope{}), context.Canceled)
}
