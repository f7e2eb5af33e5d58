package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configVars = []string{
	"SERVICE_NAME", "HTTP_PORT", "LOG_LEVEL", "STORAGE_DRIVER", "POSTGRES_DSN",
	"KAFKA_BROKERS", "ADMIN_POLICY", "DEPLOYER_ADDRESS", "ADMIN_ADDRESSES",
	"SESSION_BASELINE", "SEED_CANDIDATES", "IDEMPOTENCY_TTL",
	"OUTBOX_POLL_INTERVAL", "FEED_POLL_INTERVAL", "ENABLE_OUTBOX_RELAY",
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, name := range configVars {
		t.Setenv(name, "")
	}
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "election", cfg.ServiceName)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "owner", cfg.AdminPolicy)
	assert.Equal(t, int64(1), cfg.SessionBaseline)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.FeedPollInterval)
	assert.True(t, cfg.EnableOutboxRelay)
	assert.Empty(t, cfg.SeedCandidates)
}

func TestLoadPostgresInferredFromDSN(t *testing.T) {
	isolateEnv(t)
	t.Setenv("POSTGRES_DSN", "postgres://election@localhost/election")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
}

func TestLoadRejectsPostgresWithoutDSN(t *testing.T) {
	isolateEnv(t)
	t.Setenv("STORAGE_DRIVER", "postgres")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	isolateEnv(t)
	t.Setenv("STORAGE_DRIVER", "leveldb")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadParsesListsAndDurations(t *testing.T) {
	isolateEnv(t)
	t.Setenv("ADMIN_ADDRESSES", " 0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2 , ,0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db")
	t.Setenv("SEED_CANDIDATES", "Candidate 1,Candidate 2")
	t.Setenv("SESSION_BASELINE", "0")
	t.Setenv("IDEMPOTENCY_TTL", "90m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENABLE_OUTBOX_RELAY", "off")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Len(t, cfg.AdminAddresses, 2)
	assert.Equal(t, []string{"Candidate 1", "Candidate 2"}, cfg.SeedCandidates)
	assert.Equal(t, int64(0), cfg.SessionBaseline)
	assert.Equal(t, 90*time.Minute, cfg.IdempotencyTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.False(t, cfg.EnableOutboxRelay)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		"SESSION_BASELINE":   "one",
		"IDEMPOTENCY_TTL":    "forever",
		"FEED_POLL_INTERVAL": "-1s",
		"LOG_LEVEL":          "chatty",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			isolateEnv(t)
			t.Setenv(name, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadReadsEnvFileWithoutOverriding(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "election.env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_PORT=9090\nDEPLOYER_ADDRESS=0x5B38Da6a701c568545dCfcB03FcB875f56beddC4\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	os.Unsetenv("HTTP_PORT")
	os.Unsetenv("DEPLOYER_ADDRESS")
	t.Setenv("SERVICE_NAME", "ledger-test")

	cfg, err := Load()
	require.NoError(t, err)
	t.Cleanup(func() {
		os.Unsetenv("HTTP_PORT")
		os.Unsetenv("DEPLOYER_ADDRESS")
	})

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4", cfg.DeployerAddress)
	assert.Equal(t, "ledger-test", cfg.ServiceName)
}
