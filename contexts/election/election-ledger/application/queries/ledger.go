package queries

import (
	"context"
	"log/slog"
	"strings"

	application "election/contexts/election/election-ledger/application"
	"election/contexts/election/election-ledger/domain/entities"
	domainerrors "election/contexts/election/election-ledger/domain/errors"
	"election/contexts/election/election-ledger/ports"
)

// LedgerQueries is the read side of the ledger. None of its methods emit
// events or mutate state.
type LedgerQueries struct {
	Store      ports.LedgerState
	Identities ports.AddressNormalizer
	Logger     *slog.Logger
}

func (q LedgerQueries) CurrentSession(ctx context.Context) (int64, error) {
	return q.Store.CurrentSession(ctx)
}

func (q LedgerQueries) CandidatesCount(ctx context.Context) (int64, error) {
	return q.Store.CountCandidates(ctx)
}

// Candidate returns the record for any id ever assigned, removed ones
// included. Ids never assigned are ErrCandidateNotFound.
func (q LedgerQueries) Candidate(ctx context.Context, candidateID int64) (entities.Candidate, error) {
	if candidateID < 1 {
		return entities.Candidate{}, domainerrors.ErrCandidateNotFound
	}
	return q.Store.GetCandidate(ctx, candidateID)
}

// HasVoted reports participation of address in the current session.
func (q LedgerQueries) HasVoted(ctx context.Context, address string) (bool, error) {
	_, voted, err := q.VoterStatus(ctx, address)
	return voted, err
}

// VoterStatus returns the current session together with whether address voted
// in it. Both values come from the same snapshot.
func (q LedgerQueries) VoterStatus(ctx context.Context, address string) (int64, bool, error) {
	normalized := strings.TrimSpace(address)
	if q.Identities != nil {
		var err error
		normalized, err = q.Identities.Normalize(address)
		if err != nil {
			application.ResolveLogger(q.Logger).Warn("has voted lookup rejected",
				"event", "election_has_voted_invalid_address",
				"module", application.ModuleName,
				"layer", "application",
				"address", strings.TrimSpace(address),
			)
			return 0, false, err
		}
	}
	if normalized == "" {
		return 0, false, domainerrors.ErrInvalidAddress
	}
	return q.Store.VoterStatus(ctx, normalized)
}

// ListCandidates returns candidates in id order. With activeOnly, removed
// candidates are skipped.
func (q LedgerQueries) ListCandidates(ctx context.Context, activeOnly bool) ([]entities.Candidate, error) {
	items, err := q.Store.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return items, nil
	}
	active := make([]entities.Candidate, 0, len(items))
	for _, item := range items {
		if item.Exists {
			active = append(active, item)
		}
	}
	return active, nil
}

func (q LedgerQueries) Results(ctx context.Context) (entities.Results, error) {
	sessionID, err := q.Store.CurrentSession(ctx)
	if err != nil {
		return entities.Results{}, err
	}
	items, err := q.Store.ListCandidates(ctx)
	if err != nil {
		return entities.Results{}, err
	}
	results := entities.Results{
		SessionID:       sessionID,
		CandidatesCount: int64(len(items)),
		Candidates:      items,
	}
	for _, item := range items {
		results.TotalVotes += item.VoteCount
		if item.Exists {
			results.ActiveCandidates++
		}
	}
	return results, nil
}
