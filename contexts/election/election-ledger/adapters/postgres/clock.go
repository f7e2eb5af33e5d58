package postgresadapter

import (
	"context"
	"time"

	"election/contexts/election/election-ledger/ports"

	"github.com/google/uuid"
)

// SystemClock is the runtime clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator issues random UUIDv4 event ids.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.Clock = SystemClock{}
var _ ports.IDGenerator = UUIDGenerator{}
