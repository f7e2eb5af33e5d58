package commands

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"election/contexts/election/election-ledger/domain/entities"
	"election/contexts/election/election-ledger/ports"
)

const (
	ledgerPartitionKeyPath = "ledger"
	ledgerPartitionKey     = "election-ledger"
)

func newLedgerEnvelope(event entities.LedgerEvent) (ports.EventEnvelope, error) {
	// All ledger events share one partition so bus consumers observe commit
	// order.
	data := event.Payload()
	data["session_id"] = event.SessionID
	data["position"] = event.Position
	data["occurred_at"] = event.OccurredAt.Format(time.RFC3339Nano)
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        string(event.Kind),
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    "election-ledger",
		TraceID:          event.EventID,
		SchemaVersion:    1,
		Sequence:         event.Position,
		PartitionKeyPath: ledgerPartitionKeyPath,
		PartitionKey:     ledgerPartitionKey,
		Data:             payload,
	}, nil
}

func hashCommand(operation string, payload map[string]any) string {
	payload["op"] = operation
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
