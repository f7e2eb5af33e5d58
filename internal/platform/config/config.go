package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName   string
	HTTPPort      string
	LogLevel      slog.Level
	StorageDriver string
	PostgresDSN   string
	KafkaBrokers  []string

	AdminPolicy     string
	DeployerAddress string
	AdminAddresses  []string
	SessionBaseline int64
	SeedCandidates  []string

	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	FeedPollInterval   time.Duration
	EnableOutboxRelay  bool
}

// Load reads the process environment. Variables from ENV_FILE (default .env)
// are applied first without overriding values already set; a missing file is
// ignored.
func Load() (Config, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "election"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	brokers := envList("KAFKA_BROKERS")
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	level, err := parseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return Config{}, err
	}

	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_DRIVER")))
	if driver == "" {
		driver = StorageMemory
		if dsn != "" {
			driver = StoragePostgres
		}
	}
	switch driver {
	case StorageMemory:
	case StoragePostgres:
		if dsn == "" {
			return Config{}, errors.New("POSTGRES_DSN is required when STORAGE_DRIVER=postgres")
		}
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", driver)
	}

	baseline, err := envInt64("SESSION_BASELINE", 1)
	if err != nil {
		return Config{}, err
	}
	idempotencyTTL, err := envDuration("IDEMPOTENCY_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	outboxPoll, err := envDuration("OUTBOX_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	feedPoll, err := envDuration("FEED_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}

	policy := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_POLICY")))
	if policy == "" {
		policy = "owner"
	}

	return Config{
		ServiceName:   service,
		HTTPPort:      port,
		LogLevel:      level,
		StorageDriver: driver,
		PostgresDSN:   dsn,
		KafkaBrokers:  brokers,

		AdminPolicy:     policy,
		DeployerAddress: strings.TrimSpace(os.Getenv("DEPLOYER_ADDRESS")),
		AdminAddresses:  envList("ADMIN_ADDRESSES"),
		SessionBaseline: baseline,
		SeedCandidates:  envList("SEED_CANDIDATES"),

		IdempotencyTTL:     idempotencyTTL,
		OutboxPollInterval: outboxPoll,
		FeedPollInterval:   feedPoll,
		EnableOutboxRelay:  envBool("ENABLE_OUTBOX_RELAY", true),
	}, nil
}

func parseLevel(raw string) (slog.Level, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
	}
	return level, nil
}

func envList(name string) []string {
	var items []string
	for _, value := range strings.Split(os.Getenv(name), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}

func envInt64(name string, fallback int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return value, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, raw)
	}
	return value, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
