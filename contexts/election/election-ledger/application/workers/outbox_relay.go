package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "election/contexts/election/election-ledger/application"
	"election/contexts/election/election-ledger/ports"
)

// DefaultTopicPrefix namespaces ledger events on the bus, e.g.
// "election.ledger.votedEvent".
const DefaultTopicPrefix = "election.ledger."

// OutboxRelay forwards committed ledger events from the outbox to the bus.
type OutboxRelay struct {
	Outbox      ports.OutboxRepository
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	BatchSize   int
	TopicPrefix string
	Logger      *slog.Logger
}

// RunOnce relays one batch in commit order. A row is marked published only
// after the bus accepted it, and the batch stops at the first failure so
// later events are never delivered ahead of an earlier one.
func (r OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("ledger outbox list failed",
			"event", "election_outbox_list_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	if len(pending) == 0 {
		logger.Debug("ledger outbox relay found no pending rows",
			"event", "election_outbox_relay_noop",
			"module", application.ModuleName,
			"layer", "worker",
		)
		return 0, nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	published := 0
	for _, row := range pending {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &envelope); err != nil {
			logger.Error("ledger outbox decode failed",
				"event", "election_outbox_decode_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		topic := r.topicFor(envelope, row)
		if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
			logger.Error("ledger outbox publish failed",
				"event", "election_outbox_publish_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"topic", topic,
				"sequence", envelope.Sequence,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("ledger outbox mark published failed",
				"event", "election_outbox_mark_published_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		published++
	}

	logger.Info("ledger outbox relay cycle completed",
		"event", "election_outbox_relay_completed",
		"module", application.ModuleName,
		"layer", "worker",
		"published_count", published,
	)
	return published, nil
}

func (r OutboxRelay) topicFor(envelope ports.EventEnvelope, row ports.OutboxMessage) string {
	prefix := r.TopicPrefix
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	eventType := strings.TrimSpace(envelope.EventType)
	if eventType == "" {
		eventType = row.EventType
	}
	return prefix + eventType
}
