package commands

import (
	"context"
	"strings"

	application "election/contexts/election/election-ledger/application"
	"election/contexts/election/election-ledger/domain/entities"
	domainerrors "election/contexts/election/election-ledger/domain/errors"
	"election/contexts/election/election-ledger/ports"
)

const operationUpdateCandidate = "update_candidate"

type UpdateCandidateNameCommand struct {
	Caller         string
	CandidateID    int64
	Name           string
	IdempotencyKey string
}

type UpdateCandidateNameResult struct {
	Candidate entities.Candidate
	Event     entities.LedgerEvent
	Replayed  bool
}

// UpdateCandidateName renames a candidate that has not been removed.
func (uc LedgerUseCase) UpdateCandidateName(
	ctx context.Context,
	cmd UpdateCandidateNameCommand,
) (UpdateCandidateNameResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("update candidate processing started",
		"event", "election_update_candidate_started",
		"module", application.ModuleName,
		"layer", "application",
		"caller", strings.TrimSpace(cmd.Caller),
		"candidate_id", cmd.CandidateID,
	)

	caller, err := uc.authorizeAdmin(operationUpdateCandidate, cmd.Caller)
	if err != nil {
		return UpdateCandidateNameResult{}, err
	}
	name, err := validateName(cmd.Name)
	if err != nil {
		uc.logFailure(operationUpdateCandidate, err, "caller", caller, "candidate_id", cmd.CandidateID)
		return UpdateCandidateNameResult{}, err
	}

	now := uc.now()
	requestHash := hashCommand(operationUpdateCandidate, map[string]any{
		"caller":       caller,
		"candidate_id": cmd.CandidateID,
		"name":         name,
	})

	var result UpdateCandidateNameResult
	err = uc.Ledger.Atomically(ctx, func(ctx context.Context, state ports.LedgerState) error {
		record, found, err := uc.lookupReplay(ctx, state, cmd.IdempotencyKey, operationUpdateCandidate, requestHash, now)
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
			result = UpdateCandidateNameResult{Candidate: candidate, Event: event, Replayed: true}
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
		if err := state.SetCandidateName(ctx, candidate.ID, name, now); err != nil {
			return err
		}
		event, err := uc.emit(ctx, state, entities.LedgerEvent{
			Kind:          entities.EventCandidateUpdated,
			SessionID:     sessionID,
			CandidateID:   candidate.ID,
			CandidateName: name,
		}, now)
		if err != nil {
			return err
		}
		if err := uc.remember(ctx, state, cmd.IdempotencyKey, operationUpdateCandidate, requestHash, candidate.ID, event, now); err != nil {
			return err
		}
		candidate.Name = name
		candidate.UpdatedAt = now
		result = UpdateCandidateNameResult{Candidate: candidate, Event: event}
		return nil
	})
	if err != nil {
		uc.logFailure(operationUpdateCandidate, err, "caller", caller, "candidate_id", cmd.CandidateID)
		return UpdateCandidateNameResult{}, err
	}

	if !result.Replayed {
		uc.notify()
	}
	logger.Info("candidate renamed",
		"event", "election_candidate_updated",
		"module", application.ModuleName,
		"layer", "application",
		"caller", caller,
		"candidate_id", result.Candidate.ID,
		"replayed", result.Replayed,
	)
	return result, nil
}
