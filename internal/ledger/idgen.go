package ledger

import (
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces unique opaque identifiers for users and
// transactions.
type IDGenerator interface {
	Next() string
}

// Clock supplies creation timestamps. Injected so tests can control
// ordering.
type Clock interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Next() string { return uuid.NewString() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
