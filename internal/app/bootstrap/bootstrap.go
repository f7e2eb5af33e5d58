package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	electionledger "election/contexts/election/election-ledger"
	"election/contexts/election/election-ledger/adapters/ethereum"
	"election/contexts/election/election-ledger/adapters/memory"
	postgresadapter "election/contexts/election/election-ledger/adapters/postgres"
	"election/contexts/election/election-ledger/application/workers"
	"election/contexts/election/election-ledger/domain/services"
	"election/internal/platform/config"
	"election/internal/platform/db"
	"election/internal/platform/httpserver"
	"election/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server       *httpserver.Server
	postgres     *db.Postgres
	relay        *workers.OutboxRelay
	tally        *workers.VoteTally
	pollInterval time.Duration
	logger       *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workers.OutboxRelay
	tally        *workers.VoteTally
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, "api")

	policy, err := buildAdminPolicy(cfg)
	if err != nil {
		return nil, err
	}
	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	var (
		module electionledger.Module
		pg     *db.Postgres
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pg, err = db.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		repo := postgresadapter.NewRepository(pg.DB, logger)
		if err := repo.Migrate(ctx, cfg.SessionBaseline); err != nil {
			_ = pg.Close()
			return nil, err
		}
		module = electionledger.NewModule(electionledger.Dependencies{
			Ledger:           repo,
			Outbox:           repo,
			Publisher:        kafka,
			Identities:       ethereum.AddressNormalizer{},
			Policy:           policy,
			Notifier:         memory.NewNotifier(),
			Clock:            postgresadapter.SystemClock{},
			IDGen:            postgresadapter.UUIDGenerator{},
			IdempotencyTTL:   cfg.IdempotencyTTL,
			FeedPollInterval: cfg.FeedPollInterval,
			Logger:           logger,
		})
	default:
		store := memory.NewStore(cfg.SessionBaseline)
		module = electionledger.NewModule(electionledger.Dependencies{
			Ledger:           store,
			Outbox:           store,
			Publisher:        kafka,
			Identities:       ethereum.AddressNormalizer{},
			Policy:           policy,
			Notifier:         memory.NewNotifier(),
			Clock:            store,
			IDGen:            store,
			IdempotencyTTL:   cfg.IdempotencyTTL,
			FeedPollInterval: cfg.FeedPollInterval,
			Logger:           logger,
		})
		module.Store = store
	}

	if _, err := module.Commands.Seed(ctx, cfg.SeedCandidates); err != nil {
		if pg != nil {
			_ = pg.Close()
		}
		return nil, fmt.Errorf("seed candidates: %w", err)
	}

	app := &APIApp{
		server:       httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort)),
		postgres:     pg,
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}
	// With postgres the worker process owns relaying; the in-memory outbox is
	// only reachable from this process.
	if cfg.StorageDriver == config.StorageMemory && cfg.EnableOutboxRelay {
		relay := module.Relay
		app.relay = &relay
		app.tally = &workers.VoteTally{Subscriber: kafka, Logger: logger}
	}
	return app, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, "worker")

	if cfg.StorageDriver != config.StoragePostgres {
		return nil, errors.New("worker requires STORAGE_DRIVER=postgres")
	}

	pg, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	if err := repo.Migrate(ctx, cfg.SessionBaseline); err != nil {
		_ = pg.Close()
		return nil, err
	}
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workers.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		tally:        &workers.VoteTally{Subscriber: kafka, Logger: logger},
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"outbox_relay", a.relay != nil,
	)
	if a.tally != nil {
		if err := a.tally.Start(ctx); err != nil {
			return err
		}
	}
	if a.relay != nil {
		go func() {
			if err := runRelayLoop(ctx, *a.relay, a.pollInterval, a.logger); err != nil {
				a.logger.Error("in-process outbox relay stopped",
					"event", "bootstrap_api_relay_stopped",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}()
	}
	return a.server.Run(ctx)
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)
	if err := w.tally.Start(ctx); err != nil {
		return err
	}
	return runRelayLoop(ctx, w.outboxRelay, w.pollInterval, w.logger)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// runRelayLoop drains the outbox every interval. A failed cycle is logged and
// retried on the next tick; rows stay pending until published.
func runRelayLoop(ctx context.Context, relay workers.OutboxRelay, interval time.Duration, logger *slog.Logger) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := relay.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("outbox relay cycle failed",
				"event", "bootstrap_relay_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func newLogger(cfg config.Config, process string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(handler).With("service", cfg.ServiceName, "process", process)
	slog.SetDefault(logger)
	return logger
}

func buildAdminPolicy(cfg config.Config) (services.AdminPolicy, error) {
	mode, err := services.ParseAdminMode(cfg.AdminPolicy)
	if err != nil {
		return services.AdminPolicy{}, fmt.Errorf("invalid ADMIN_POLICY %q: %w", cfg.AdminPolicy, err)
	}
	normalizer := ethereum.AddressNormalizer{}
	policy := services.AdminPolicy{Mode: mode}
	if strings.TrimSpace(cfg.DeployerAddress) != "" {
		deployer, err := normalizer.Normalize(cfg.DeployerAddress)
		if err != nil {
			return services.AdminPolicy{}, fmt.Errorf("invalid DEPLOYER_ADDRESS: %w", err)
		}
		policy.Deployer = deployer
	}
	admins, err := normalizer.NormalizeAll(cfg.AdminAddresses)
	if err != nil {
		return services.AdminPolicy{}, fmt.Errorf("invalid ADMIN_ADDRESSES: %w", err)
	}
	policy.Admins = admins
	if err := policy.Validate(); err != nil {
		return services.AdminPolicy{}, fmt.Errorf("admin policy %q is missing its addresses: %w", mode, err)
	}
	return policy, nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
