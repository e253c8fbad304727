// Package sqlite provides a SQLite-backed implementation of the ledger repository port.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
	"github.com/ewilliams-labs/moodqueue/backend/internal/core/ports"
)

var (
	_ ports.LedgerRepository = (*Adapter)(nil)
	_ ports.LedgerCounter    = (*Adapter)(nil)
)

// Adapter implements the ledger repository port for SQLite.
// Each user's ledger is stored as one JSON document.
type Adapter struct {
	db *sql.DB
}

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// SQLite serializes writers; one connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}
	if err := adapter.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

// Load reads the user's ledger.
func (a *Adapter) Load(ctx context.Context, userID string) (domain.Ledger, error) {
	var raw string
	row := a.db.QueryRowContext(ctx, "SELECT history FROM ledgers WHERE user_id = ?", userID)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	ledger, err := domain.DecodeLedger([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("sqlite: user %q: %w", userID, err)
	}
	return ledger, nil
}

// Save upserts the user's ledger.
func (a *Adapter) Save(ctx context.Context, userID string, ledger domain.Ledger) error {
	raw, err := domain.EncodeLedger(ledger)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	query := `
		INSERT INTO ledgers (user_id, history, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			history=excluded.history,
			updated_at=excluded.updated_at;
	`
	if _, err := tx.ExecContext(ctx, query, userID, string(raw), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Count returns the number of stored ledgers.
func (a *Adapter) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ledgers").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ledgers: %w", err)
	}
	return n, nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS ledgers (
		user_id TEXT PRIMARY KEY,
		history TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`
	_, err := a.db.Exec(query)
	return err
}
