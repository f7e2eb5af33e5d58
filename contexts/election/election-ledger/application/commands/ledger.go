package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "election/contexts/election/election-ledger/application"
	"election/contexts/election/election-ledger/domain/entities"
	domainerrors "election/contexts/election/election-ledger/domain/errors"
	"election/contexts/election/election-ledger/domain/services"
	"election/contexts/election/election-ledger/ports"
)

// LedgerUseCase is the write side of the election ledger. Every operation
// validates, mutates, and appends exactly one event inside a single
// Atomically call; a failed operation leaves no state and no event behind.
type LedgerUseCase struct {
	Ledger         ports.LedgerRepository
	Identities     ports.AddressNormalizer
	Policy         services.AdminPolicy
	Notifier       ports.EventNotifier
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (uc LedgerUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc LedgerUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func (uc LedgerUseCase) normalizeCaller(raw string) (string, error) {
	if uc.Identities == nil {
		caller := strings.TrimSpace(raw)
		if caller == "" {
			return "", domainerrors.ErrInvalidAddress
		}
		return caller, nil
	}
	return uc.Identities.Normalize(raw)
}

// authorizeAdmin resolves the caller identity and applies the admin policy.
func (uc LedgerUseCase) authorizeAdmin(operation string, rawCaller string) (string, error) {
	logger := application.ResolveLogger(uc.Logger)
	caller, err := uc.normalizeCaller(rawCaller)
	if err != nil {
		logger.Warn("ledger caller address rejected",
			"event", "election_caller_invalid",
			"module", application.ModuleName,
			"layer", "application",
			"operation", operation,
			"caller", strings.TrimSpace(rawCaller),
		)
		return "", err
	}
	if err := uc.Policy.Authorize(caller); err != nil {
		logger.Warn("ledger admin operation denied",
			"event", "election_admin_denied",
			"module", application.ModuleName,
			"layer", "application",
			"operation", operation,
			"caller", caller,
			"policy", string(uc.Policy.Mode),
		)
		return "", err
	}
	return caller, nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", domainerrors.ErrInvalidInput
	}
	return name, nil
}

// lookupReplay returns the stored record when key was already used for an
// identical request. A reused key with a different request is a conflict.
func (uc LedgerUseCase) lookupReplay(
	ctx context.Context,
	state ports.LedgerState,
	key string,
	operation string,
	requestHash string,
	now time.Time,
) (ports.IdempotencyRecord, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return ports.IdempotencyRecord{}, false, nil
	}
	record, found, err := state.Get(ctx, key, now)
	if err != nil || !found {
		return ports.IdempotencyRecord{}, false, err
	}
	if record.Operation != operation || record.RequestHash != requestHash {
		return ports.IdempotencyRecord{}, false, domainerrors.ErrIdempotencyConflict
	}
	return record, true, nil
}

func (uc LedgerUseCase) remember(
	ctx context.Context,
	state ports.LedgerState,
	key string,
	operation string,
	requestHash string,
	resultID int64,
	event entities.LedgerEvent,
	now time.Time,
) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	return state.Put(ctx, ports.IdempotencyRecord{
		Key:           key,
		RequestHash:   requestHash,
		Operation:     operation,
		ResultID:      resultID,
		EventPosition: event.Position,
		ExpiresAt:     now.Add(uc.resolveIdempotencyTTL()),
	})
}

// replayedEvent loads the event a replayed request originally produced.
func replayedEvent(ctx context.Context, state ports.LedgerState, position int64) (entities.LedgerEvent, error) {
	if position <= 0 {
		return entities.LedgerEvent{}, nil
	}
	items, err := state.ListEvents(ctx, position-1, 1)
	if err != nil {
		return entities.LedgerEvent{}, err
	}
	if len(items) == 0 {
		return entities.LedgerEvent{}, nil
	}
	return items[0], nil
}

// emit appends event to the ledger log and mirrors it into the outbox in the
// same commit.
func (uc LedgerUseCase) emit(
	ctx context.Context,
	state ports.LedgerState,
	event entities.LedgerEvent,
	now time.Time,
) (entities.LedgerEvent, error) {
	if uc.IDGen != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.LedgerEvent{}, err
		}
		event.EventID = eventID
	}
	event.OccurredAt = now
	stored, err := state.AppendEvent(ctx, event)
	if err != nil {
		return entities.LedgerEvent{}, err
	}
	envelope, err := newLedgerEnvelope(stored)
	if err != nil {
		return entities.LedgerEvent{}, err
	}
	if err := state.AppendOutbox(ctx, envelope); err != nil {
		return entities.LedgerEvent{}, err
	}
	return stored, nil
}

func (uc LedgerUseCase) notify() {
	if uc.Notifier != nil {
		uc.Notifier.Notify()
	}
}

func (uc LedgerUseCase) logFailure(operation string, err error, attrs ...any) {
	logger := application.ResolveLogger(uc.Logger)
	fields := make([]any, 0, len(attrs)+10)
	fields = append(fields,
		"event", "election_"+operation+"_failed",
		"module", application.ModuleName,
		"layer", "application",
		"kind", string(domainerrors.KindOf(err)),
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	if domainerrors.KindOf(err) == domainerrors.KindInternal {
		logger.Error("ledger operation failed", fields...)
		return
	}
	logger.Warn("ledger operation rejected", fields...)
}
