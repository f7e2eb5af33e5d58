package electionledger

import (
	"log/slog"
	"time"

	"election/contexts/election/election-ledger/adapters/ethereum"
	httpadapter "election/contexts/election/election-ledger/adapters/http"
	"election/contexts/election/election-ledger/adapters/memory"
	"election/contexts/election/election-ledger/application/commands"
	"election/contexts/election/election-ledger/application/queries"
	"election/contexts/election/election-ledger/application/workers"
	"election/contexts/election/election-ledger/domain/services"
	"election/contexts/election/election-ledger/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Commands commands.LedgerUseCase
	Queries  queries.LedgerQueries
	Feed     queries.EventFeed
	Relay    workers.OutboxRelay
	Store    *memory.Store
}

type Dependencies struct {
	Ledger           ports.LedgerRepository
	Outbox           ports.OutboxRepository
	Publisher        ports.EventPublisher
	Identities       ports.AddressNormalizer
	Policy           services.AdminPolicy
	Notifier         ports.EventNotifier
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	IdempotencyTTL   time.Duration
	FeedPollInterval time.Duration
	Logger           *slog.Logger
}

func NewModule(deps Dependencies) Module {
	identities := deps.Identities
	if identities == nil {
		identities = ethereum.AddressNormalizer{}
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = memory.NewNotifier()
	}

	ledger := commands.LedgerUseCase{
		Ledger:         deps.Ledger,
		Identities:     identities,
		Policy:         deps.Policy,
		Notifier:       notifier,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	reads := queries.LedgerQueries{
		Store:      deps.Ledger,
		Identities: identities,
		Logger:     deps.Logger,
	}
	feed := queries.EventFeed{
		Events:       deps.Ledger,
		Notifier:     notifier,
		PollInterval: deps.FeedPollInterval,
		Logger:       deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Ledger:  ledger,
			Queries: reads,
			Feed:    feed,
			Logger:  deps.Logger,
		},
		Commands: ledger,
		Queries:  reads,
		Feed:     feed,
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module to a fresh in-process store. publisher
// may be nil when the outbox relay is not run.
func NewInMemoryModule(
	policy services.AdminPolicy,
	baselineSession int64,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(baselineSession)
	module := NewModule(Dependencies{
		Ledger:         store,
		Outbox:         store,
		Publisher:      publisher,
		Policy:         policy,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
