package ports

import (
	"context"
	"errors"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
)

// ErrStoreUnavailable indicates the backing store could not be read or
// written in time. A ledger whose persist failed is not durable.
var ErrStoreUnavailable = errors.New("store unavailable")

// LedgerRepository is the physical persistence backend for ledgers.
// Load returns domain.ErrNotFound when nothing is stored for the user and
// domain.ErrMalformedLedger when stored data does not decode.
type LedgerRepository interface {
	Load(ctx context.Context, userID string) (domain.Ledger, error)
	Save(ctx context.Context, userID string, ledger domain.Ledger) error
	Close() error
}

// LedgerCounter is implemented by backends that can count stored ledgers.
type LedgerCounter interface {
	Count(ctx context.Context) (int, error)
}

// RetryQueue accepts users whose ledger failed to persist.
type RetryQueue interface {
	Submit(userID string)
}

// LedgerFlusher writes a user's cached ledger to the backing store.
type LedgerFlusher interface {
	FlushUser(ctx context.Context, userID string) error
}
