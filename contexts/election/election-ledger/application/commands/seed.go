package commands

import (
	"context"

	application "election/contexts/election/election-ledger/application"
	"election/contexts/election/election-ledger/domain/entities"
	"election/contexts/election/election-ledger/ports"
)

// Seed registers the initial candidates on an empty ledger, the way a fresh
// deployment starts with its constructor-provided slate. It runs without a
// caller and is a no-op once any candidate exists. Blank names are rejected
// before anything is written.
func (uc LedgerUseCase) Seed(ctx context.Context, names []string) ([]entities.Candidate, error) {
	if len(names) == 0 {
		return nil, nil
	}
	cleaned := make([]string, 0, len(names))
	for _, raw := range names {
		name, err := validateName(raw)
		if err != nil {
			return nil, err
		}
		cleaned = append(cleaned, name)
	}

	now := uc.now()
	var created []entities.Candidate
	err := uc.Ledger.Atomically(ctx, func(ctx context.Context, state ports.LedgerState) error {
		count, err := state.CountCandidates(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		sessionID, err := state.CurrentSession(ctx)
		if err != nil {
			return err
		}
		for _, name := range cleaned {
			candidateID, err := state.CreateCandidate(ctx, name, now)
			if err != nil {
				return err
			}
			if _, err := uc.emit(ctx, state, entities.LedgerEvent{
				Kind:          entities.EventCandidateAdded,
				SessionID:     sessionID,
				CandidateID:   candidateID,
				CandidateName: name,
			}, now); err != nil {
				return err
			}
			created = append(created, entities.Candidate{
				ID:        candidateID,
				Name:      name,
				Exists:    true,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		return nil
	})
	if err != nil {
		uc.logFailure("seed", err, "candidates", len(cleaned))
		return nil, err
	}

	if len(created) > 0 {
		uc.notify()
	}
	application.ResolveLogger(uc.Logger).Info("ledger seed applied",
		"event", "election_seed_applied",
		"module", application.ModuleName,
		"layer", "application",
		"created", len(created),
	)
	return created, nil
}
