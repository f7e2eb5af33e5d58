package commands

import (
	"context"
	"math"
	"strings"

	application "election/contexts/election/election-ledger/application"
	"election/contexts/election/election-ledger/domain/entities"
	domainerrors "election/contexts/election/election-ledger/domain/errors"
	"election/contexts/election/election-ledger/ports"
)

const operationStartSession = "start_session"

type StartNewSessionCommand struct {
	Caller         string
	IdempotencyKey string
}

type StartNewSessionResult struct {
	SessionID int64
	Event     entities.LedgerEvent
	Replayed  bool
}

// StartNewSession advances the session counter by one. Vote counts carry over;
// only the already-voted flags are scoped to the old session.
func (uc LedgerUseCase) StartNewSession(ctx context.Context, cmd StartNewSessionCommand) (StartNewSessionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("start session processing started",
		"event", "election_start_session_started",
		"module", application.ModuleName,
		"layer", "application",
		"caller", strings.TrimSpace(cmd.Caller),
	)

	caller, err := uc.authorizeAdmin(operationStartSession, cmd.Caller)
	if err != nil {
		return StartNewSessionResult{}, err
	}

	now := uc.now()
	requestHash := hashCommand(operationStartSession, map[string]any{
		"caller": caller,
	})

	var result StartNewSessionResult
	err = uc.Ledger.Atomically(ctx, func(ctx context.Context, state ports.LedgerState) error {
		record, found, err := uc.lookupReplay(ctx, state, cmd.IdempotencyKey, operationStartSession, requestHash, now)
		if err != nil {
			return err
		}
		if found {
			event, err := replayedEvent(ctx, state, record.EventPosition)
			if err != nil {
				return err
			}
			result = StartNewSessionResult{SessionID: record.ResultID, Event: event, Replayed: true}
			return nil
		}

		current, err := state.CurrentSession(ctx)
		if err != nil {
			return err
		}
		if current == math.MaxInt64 {
			return domainerrors.ErrStorageExhausted
		}
		next := current + 1
		if err := state.SetCurrentSession(ctx, next); err != nil {
			return err
		}
		event, err := uc.emit(ctx, state, entities.LedgerEvent{
			Kind:         entities.EventSessionChanged,
			SessionID:    next,
			NewSessionID: next,
		}, now)
		if err != nil {
			return err
		}
		if err := uc.remember(ctx, state, cmd.IdempotencyKey, operationStartSession, requestHash, next, event, now); err != nil {
			return err
		}
		result = StartNewSessionResult{SessionID: next, Event: event}
		return nil
	})
	if err != nil {
		uc.logFailure(operationStartSession, err, "caller", caller)
		return StartNewSessionResult{}, err
	}

	if !result.Replayed {
		uc.notify()
	}
	logger.Info("session started",
		"event", "election_session_changed",
		"module", application.ModuleName,
		"layer", "application",
		"caller", caller,
		"session_id", result.SessionID,
		"replayed", result.Replayed,
	)
	return result, nil
}
