package httpadapter_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"election/contexts/election/election-ledger/adapters/ethereum"
	httpadapter "election/contexts/election/election-ledger/adapters/http"
	"election/contexts/election/election-ledger/adapters/memory"
	"election/contexts/election/election-ledger/application/commands"
	"election/contexts/election/election-ledger/application/queries"
	"election/contexts/election/election-ledger/domain/services"
)

const (
	deployer = "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"
	voterA   = "0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2"
)

// sessionAdvancingStore starts a new session right after every
// CurrentSession read, as a concurrent StartNewSession would.
type sessionAdvancingStore struct {
	*memory.Store
}

func (s sessionAdvancingStore) CurrentSession(ctx context.Context) (int64, error) {
	current, err := s.Store.CurrentSession(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.Store.SetCurrentSession(ctx, current+1); err != nil {
		return 0, err
	}
	return current, nil
}

func newLedger(store *memory.Store) commands.LedgerUseCase {
	return commands.LedgerUseCase{
		Ledger:         store,
		Identities:     ethereum.AddressNormalizer{},
		Policy:         services.AdminPolicy{Mode: services.AdminModeOwner, Deployer: deployer},
		Notifier:       memory.NewNotifier(),
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: time.Hour,
	}
}

func TestHasVotedHandlerReadsOneSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(1)
	ledger := newLedger(store)

	if _, err := ledger.AddCandidate(ctx, commands.AddCandidateCommand{Caller: deployer, Name: "Alice"}); err != nil {
		t.Fatalf("add candidate failed: %v", err)
	}
	if _, err := ledger.Vote(ctx, commands.VoteCommand{Caller: voterA, CandidateID: 1}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	handler := httpadapter.Handler{
		Queries: queries.LedgerQueries{
			Store:      sessionAdvancingStore{Store: store},
			Identities: ethereum.AddressNormalizer{},
		},
	}
	resp, err := handler.HasVotedHandler(ctx, voterA)
	if err != nil {
		t.Fatalf("has voted failed: %v", err)
	}
	if resp.SessionID != 1 || !resp.HasVoted {
		t.Fatalf("expected session 1 with has_voted=true, got session_id=%d has_voted=%v", resp.SessionID, resp.HasVoted)
	}
	if !strings.EqualFold(resp.Address, voterA) {
		t.Fatalf("expected address %s, got %s", voterA, resp.Address)
	}
}

func TestHasVotedHandlerFollowsNewSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(1)
	ledger := newLedger(store)

	if _, err := ledger.AddCandidate(ctx, commands.AddCandidateCommand{Caller: deployer, Name: "Alice"}); err != nil {
		t.Fatalf("add candidate failed: %v", err)
	}
	if _, err := ledger.Vote(ctx, commands.VoteCommand{Caller: voterA, CandidateID: 1}); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if _, err := ledger.StartNewSession(ctx, commands.StartNewSessionCommand{Caller: deployer}); err != nil {
		t.Fatalf("start session failed: %v", err)
	}

	handler := httpadapter.Handler{
		Queries: queries.LedgerQueries{Store: store, Identities: ethereum.AddressNormalizer{}},
	}
	resp, err := handler.HasVotedHandler(ctx, voterA)
	if err != nil {
		t.Fatalf("has voted failed: %v", err)
	}
	if resp.SessionID != 2 || resp.HasVoted {
		t.Fatalf("expected session 2 with has_voted=false, got session_id=%d has_voted=%v", resp.SessionID, resp.HasVoted)
	}
}
