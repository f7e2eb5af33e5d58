package commands

import (
	"context"
	"strings"

	application "election/contexts/election/election-ledger/application"
	"election/contexts/election/election-ledger/domain/entities"
	"election/contexts/election/election-ledger/ports"
)

const operationAddCandidate = "add_candidate"

type AddCandidateCommand struct {
	Caller         string
	Name           string
	IdempotencyKey string
}

type AddCandidateResult struct {
	Candidate entities.Candidate
	Event     entities.LedgerEvent
	Replayed  bool
}

// AddCandidate registers a new candidate under the next sequential id.
func (uc LedgerUseCase) AddCandidate(ctx context.Context, cmd AddCandidateCommand) (AddCandidateResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("add candidate processing started",
		"event", "election_add_candidate_started",
		"module", application.ModuleName,
		"layer", "application",
		"caller", strings.TrimSpace(cmd.Caller),
	)

	caller, err := uc.authorizeAdmin(operationAddCandidate, cmd.Caller)
	if err != nil {
		return AddCandidateResult{}, err
	}
	name, err := validateName(cmd.Name)
	if err != nil {
		uc.logFailure(operationAddCandidate, err, "caller", caller)
		return AddCandidateResult{}, err
	}

	now := uc.now()
	requestHash := hashCommand(operationAddCandidate, map[string]any{
		"caller": caller,
		"name":   name,
	})

	var result AddCandidateResult
	err = uc.Ledger.Atomically(ctx, func(ctx context.Context, state ports.LedgerState) error {
		record, found, err := uc.lookupReplay(ctx, state, cmd.IdempotencyKey, operationAddCandidate, requestHash, now)
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
			result = AddCandidateResult{Candidate: candidate, Event: event, Replayed: true}
			return nil
		}

		sessionID, err := state.CurrentSession(ctx)
		if err != nil {
			return err
		}
		candidateID, err := state.CreateCandidate(ctx, name, now)
		if err != nil {
			return err
		}
		event, err := uc.emit(ctx, state, entities.LedgerEvent{
			Kind:          entities.EventCandidateAdded,
			SessionID:     sessionID,
			CandidateID:   candidateID,
			CandidateName: name,
		}, now)
		if err != nil {
			return err
		}
		if err := uc.remember(ctx, state, cmd.IdempotencyKey, operationAddCandidate, requestHash, candidateID, event, now); err != nil {
			return err
		}
		result = AddCandidateResult{
			Candidate: entities.Candidate{
				ID:        candidateID,
				Name:      name,
				VoteCount: 0,
				Exists:    true,
				CreatedAt: now,
				UpdatedAt: now,
			},
			Event: event,
		}
		return nil
	})
	if err != nil {
		uc.logFailure(operationAddCandidate, err, "caller", caller)
		return AddCandidateResult{}, err
	}

	if !result.Replayed {
		uc.notify()
	}
	logger.Info("candidate added",
		"event", "election_candidate_added",
		"module", application.ModuleName,
		"layer", "application",
		"caller", caller,
		"candidate_id", result.Candidate.ID,
		"replayed", result.Replayed,
	)
	return result, nil
}
