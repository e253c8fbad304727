// Package badgerstore provides a BadgerDB-backed implementation of the ledger repository port.
package badgerstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
	"github.com/ewilliams-labs/moodqueue/backend/internal/core/ports"
)

const ledgerKeyPrefix = "ledger:"

var (
	_ ports.LedgerRepository = (*Adapter)(nil)
	_ ports.LedgerCounter    = (*Adapter)(nil)
)

// Adapter stores each user's ledger under "ledger:<user_id>".
type Adapter struct {
	db *badger.DB
}

// NewAdapter opens a BadgerDB at dir. An empty dir opens an in-memory database.
func NewAdapter(dir string) (*Adapter, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &Adapter{db: db}, nil
}

// Close closes the database.
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Load reads the user's ledger.
func (a *Adapter) Load(ctx context.Context, userID string) (domain.Ledger, error) {
	var raw []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(ledgerKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get ledger: %w", err)
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	ledger, err := domain.DecodeLedger(raw)
	if err != nil {
		return nil, fmt.Errorf("badger: user %q: %w", userID, err)
	}
	return ledger, nil
}

// Save overwrites the user's ledger.
func (a *Adapter) Save(ctx context.Context, userID string, ledger domain.Ledger) error {
	data, err := domain.EncodeLedger(ledger)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	return a.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(ledgerKey(userID), data); err != nil {
			return fmt.Errorf("set ledger: %w", err)
		}
		return nil
	})
}

// Count returns the number of stored ledgers.
func (a *Adapter) Count(ctx context.Context) (int, error) {
	n := 0
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(ledgerKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count ledgers: %w", err)
	}
	return n, nil
}

func ledgerKey(userID string) []byte {
	return []byte(ledgerKeyPrefix + userID)
}
