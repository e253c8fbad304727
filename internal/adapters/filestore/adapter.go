// Package filestore stores one JSON ledger document per user in a directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
	"github.com/ewilliams-labs/moodqueue/backend/internal/core/ports"
)

const ledgerExt = ".json"

var (
	_ ports.LedgerRepository = (*Adapter)(nil)
	_ ports.LedgerCounter    = (*Adapter)(nil)
)

// Adapter implements the ledger repository port on the local filesystem.
type Adapter struct {
	dir string
}

// NewAdapter creates dir if needed.
func NewAdapter(dir string) (*Adapter, error) {
	if dir == "" {
		return nil, errors.New("filestore: directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("filestore: create %s: %w", dir, err)
	}
	return &Adapter{dir: dir}, nil
}

// Close is a no-op; every Save is already on disk.
func (a *Adapter) Close() error { return nil }

// Load reads the user's ledger file.
func (a *Adapter) Load(ctx context.Context, userID string) (domain.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(a.path(userID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("filestore: read ledger: %w", err)
	}

	ledger, err := domain.DecodeLedger(raw)
	if err != nil {
		return nil, fmt.Errorf("filestore: user %q: %w", userID, err)
	}
	return ledger, nil
}

// Save writes the ledger to a temp file and renames it into place so readers
// never observe a partial document.
func (a *Adapter) Save(ctx context.Context, userID string, ledger domain.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := domain.EncodeLedger(ledger)
	if err != nil {
		return fmt.Errorf("filestore: encode ledger: %w", err)
	}

	tmp, err := os.CreateTemp(a.dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("filestore: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after rename

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, a.path(userID)); err != nil {
		return fmt.Errorf("filestore: rename ledger: %w", err)
	}
	return nil
}

// Count returns the number of ledger files.
func (a *Adapter) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return 0, fmt.Errorf("filestore: count: %w", err)
	}

	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ledgerExt) {
			n++
		}
	}
	return n, nil
}

// path escapes userID so arbitrary ids cannot traverse out of dir.
func (a *Adapter) path(userID string) string {
	name := url.PathEscape(userID)
	if name == "." || name == ".." {
		name = strings.ReplaceAll(name, ".", "%2E")
	}
	return filepath.Join(a.dir, name+ledgerExt)
}
