package commands

import (
	"context"
	"strings"

	application "election/contexts/election/election-ledger/application"
	"election/contexts/election/election-ledger/domain/entities"
	domainerrors "election/contexts/election/election-ledger/domain/errors"
	"election/contexts/election/election-ledger/ports"
)

const operationRemoveCandidate = "remove_candidate"

type RemoveCandidateCommand struct {
	Caller         string
	CandidateID    int64
	IdempotencyKey string
}

type RemoveCandidateResult struct {
	Candidate entities.Candidate
	Event     entities.LedgerEvent
	Replayed  bool
}

// RemoveCandidate soft-deletes a candidate. The id stays counted and its
// votes are kept.
func (uc LedgerUseCase) RemoveCandidate(ctx context.Context, cmd RemoveCandidateCommand) (RemoveCandidateResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("remove candidate processing started",
		"event", "election_remove_candidate_started",
		"module", application.ModuleName,
		"layer", "application",
		"caller", strings.TrimSpace(cmd.Caller),
		"candidate_id", cmd.CandidateID,
	)

	caller, err := uc.authorizeAdmin(operationRemoveCandidate, cmd.Caller)
	if err != nil {
		return RemoveCandidateResult{}, err
	}

	now := uc.now()
	requestHash := hashCommand(operationRemoveCandidate, map[string]any{
		"caller":       caller,
		"candidate_id": cmd.CandidateID,
	})

	var result RemoveCandidateResult
	err = uc.Ledger.Atomically(ctx, func(ctx context.Context, state ports.LedgerState) error {
		record, found, err := uc.lookupReplay(ctx, state, cmd.IdempotencyKey, operationRemoveCandidate, requestHash, now)
		if err != nil {
			return err
		}
		if found {
			candidate, err := state.GetCandidate(ctx, record.ResultID)
			if err != nil {
				return err
			}
			event, err := replayedEvent(ctx, state, record.EventPosition)
			if err != nil {
				return err
			}
			result = RemoveCandidateResult{Candidate: candidate, Event: event, Replayed: true}
			return nil
		}

		candidate, err := state.GetCandidate(ctx, cmd.CandidateID)
		if err != nil {
			return err
		}
		if !candidate.Exists {
			return domainerrors.ErrCandidateNotFound
		}
		sessionID, err := state.CurrentSession(ctx)
		if err != nil {
			return err
		}
		if err := state.SoftRemove(ctx, candidate.ID, now); err != nil {
			return err
		}
		event, err := uc.emit(ctx, state, entities.LedgerEvent{
			Kind:        entities.EventCandidateRemoved,
			SessionID:   sessionID,
			CandidateID: candidate.ID,
		}, now)
		if err != nil {
			return err
		}
		if err := uc.remember(ctx, state, cmd.IdempotencyKey, operationRemoveCandidate, requestHash, candidate.ID, event, now); err != nil {
			return err
		}
		candidate.Exists = false
		candidate.UpdatedAt = now
		result = RemoveCandidateResult{Candidate: candidate, Event: event}
		return nil
	})
	if err != nil {
		uc.logFailure(operationRemoveCandidate, err, "caller", caller, "candidate_id", cmd.CandidateID)
		return RemoveCandidateResult{}, err
	}

	if !result.Replayed {
		uc.notify()
	}
	logger.Info("candidate removed",
		"event", "election_candidate_removed",
		"module", application.ModuleName,
		"layer", "application",
		"caller", caller,
		"candidate_id", result.Candidate.ID,
		"replayed", result.Replayed,
	)
	return result, nil
}
