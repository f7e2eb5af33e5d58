package queries

import (
	"context"
	"log/slog"
	"time"

	application "election/contexts/election/election-ledger/application"
	"election/contexts/election/election-ledger/domain/entities"
	domainerrors "election/contexts/election/election-ledger/domain/errors"
	"election/contexts/election/election-ledger/ports"
)

const (
	defaultFeedLimit        = 100
	maxFeedLimit            = 500
	defaultFeedPollInterval = 500 * time.Millisecond
)

// EventFeed exposes the ledger event log to consumers. Positions start at 1,
// so after=0 replays from the beginning.
type EventFeed struct {
	Events       ports.EventLog
	Notifier     ports.EventNotifier
	PollInterval time.Duration
	BatchSize    int
	Logger       *slog.Logger
}

// EventsSince returns up to limit events with Position > after.
func (f EventFeed) EventsSince(ctx context.Context, after int64, limit int) ([]entities.LedgerEvent, error) {
	if after < 0 {
		return nil, domainerrors.ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	return f.Events.ListEvents(ctx, after, limit)
}

func (f EventFeed) LastPosition(ctx context.Context) (int64, error) {
	return f.Events.LastEventPosition(ctx)
}

// Subscribe streams every event after the given position in order and then
// follows new commits until ctx is done. The channel is closed on exit.
func (f EventFeed) Subscribe(ctx context.Context, after int64) (<-chan entities.LedgerEvent, error) {
	if after < 0 {
		return nil, domainerrors.ErrInvalidInput
	}
	out := make(chan entities.LedgerEvent)
	go f.follow(ctx, after, out)
	return out, nil
}

func (f EventFeed) follow(ctx context.Context, cursor int64, out chan<- entities.LedgerEvent) {
	defer close(out)
	logger := application.ResolveLogger(f.Logger)

	interval := f.PollInterval
	if interval <= 0 {
		interval = defaultFeedPollInterval
	}
	batch := f.BatchSize
	if batch <= 0 {
		batch = defaultFeedLimit
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// Grab the wake channel before reading so a commit landing between
		// the read and the wait is not missed.
		var wake <-chan struct{}
		if f.Notifier != nil {
			wake = f.Notifier.Wait()
		}

		items, err := f.Events.ListEvents(ctx, cursor, batch)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("event feed read failed",
				"event", "election_event_feed_read_failed",
				"module", application.ModuleName,
				"layer", "application",
				"after", cursor,
				"error", err.Error(),
			)
			items = nil
		}
		for _, item := range items {
			select {
			case out <- item:
				cursor = item.Position
			case <-ctx.Done():
				return
			}
		}
		if len(items) == batch {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-wake:
		case <-ticker.C:
		}
	}
}
