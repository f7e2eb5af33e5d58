package commands

import (
	"context"
	"strings"

	application "election/contexts/election/election-ledger/application"
	"election/contexts/election/election-ledger/domain/entities"
	domainerrors "election/contexts/election/election-ledger/domain/errors"
	"election/contexts/election/election-ledger/ports"
)

const operationVote = "vote"

// VoteCommand casts Caller's vote for CandidateID in the current session.
type VoteCommand struct {
	Caller         string
	CandidateID    int64
	IdempotencyKey string
}

type VoteResult struct {
	Candidate entities.Candidate
	SessionID int64
	Voter     string
	Event     entities.LedgerEvent
	Replayed  bool
}

// Vote checks candidate existence before the already-voted flag, so an
// unknown id reports ErrCandidateNotFound even for a voter who already voted.
func (uc LedgerUseCase) Vote(ctx context.Context, cmd VoteCommand) (VoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	logger.Info("vote processing started",
		"event", "election_vote_started",
		"module", application.ModuleName,
		"layer", "application",
		"caller", strings.TrimSpace(cmd.Caller),
		"candidate_id", cmd.CandidateID,
	)

	voter, err := uc.normalizeCaller(cmd.Caller)
	if err != nil {
		uc.logFailure(operationVote, err, "caller", strings.TrimSpace(cmd.Caller))
		return VoteResult{}, err
	}

	now := uc.now()

	var result VoteResult
	err = uc.Ledger.Atomically(ctx, func(ctx context.Context, state ports.LedgerState) error {
		sessionID, err := state.CurrentSession(ctx)
		if err != nil {
			return err
		}
		// A vote is bound to its session: reusing a key after StartNewSession
		// is a different request, not a replay.
		requestHash := hashCommand(operationVote, map[string]any{
			"caller":       voter,
			"candidate_id": cmd.CandidateID,
			"session_id":   sessionID,
		})
		record, found, err := uc.lookupReplay(ctx, state, cmd.IdempotencyKey, operationVote, requestHash, now)
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
			result = VoteResult{
				Candidate: candidate,
				SessionID: event.SessionID,
				Voter:     voter,
				Event:     event,
				Replayed:  true,
			}
			return nil
		}

		candidate, err := state.GetCandidate(ctx, cmd.CandidateID)
		if err != nil {
			return err
		}
		if !candidate.Votable() {
			return domainerrors.ErrCandidateNotFound
		}
		voted, err := state.HasVoted(ctx, voter, sessionID)
		if err != nil {
			return err
		}
		if voted {
			return domainerrors.ErrAlreadyVoted
		}

		if err := state.IncrementVotes(ctx, candidate.ID, now); err != nil {
			return err
		}
		if err := state.MarkVoted(ctx, entities.VoterRecord{
			Address:     voter,
			SessionID:   sessionID,
			CandidateID: candidate.ID,
			VotedAt:     now,
		}); err != nil {
			return err
		}
		event, err := uc.emit(ctx, state, entities.LedgerEvent{
			Kind:        entities.EventVoted,
			SessionID:   sessionID,
			CandidateID: candidate.ID,
			Voter:       voter,
		}, now)
		if err != nil {
			return err
		}
		if err := uc.remember(ctx, state, cmd.IdempotencyKey, operationVote, requestHash, candidate.ID, event, now); err != nil {
			return err
		}

		candidate.VoteCount++
		candidate.UpdatedAt = now
		result = VoteResult{
			Candidate: candidate,
			SessionID: sessionID,
			Voter:     voter,
			Event:     event,
		}
		return nil
	})
	if err != nil {
		uc.logFailure(operationVote, err,
			"caller", voter,
			"candidate_id", cmd.CandidateID,
		)
		return VoteResult{}, err
	}

	if result.Replayed {
		logger.Info("vote replayed",
			"event", "election_vote_replayed",
			"module", application.ModuleName,
			"layer", "application",
			"caller", voter,
			"candidate_id", result.Candidate.ID,
		)
		return result, nil
	}
	uc.notify()
	logger.Info("vote recorded",
		"event", "election_vote_recorded",
		"module", application.ModuleName,
		"layer", "application",
		"caller", voter,
		"candidate_id", result.Candidate.ID,
		"session_id", result.SessionID,
		"vote_count", result.Candidate.VoteCount,
		"position", result.Event.Position,
	)
	return result, nil
}
