package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
)

func TestAdapter_LoadSave(t *testing.T) {
	a, err := NewAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	ctx := context.Background()

	if _, err := a.Load(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Load() error = %v, want ErrNotFound", err)
	}

	l := domain.NewLedger()
	l.RecordSkip(domain.MoodPeaceful, "s1")
	l.SetLiked(domain.MoodPeaceful, "s2", true)
	if err := a.Save(ctx, "u1", l); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := a.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	h := got[domain.MoodPeaceful]
	if h.Skipped["s1"] != 1 || !h.Liked["s2"] {
		t.Errorf("history = %+v", h)
	}
}

func TestAdapter_Malformed(t *testing.T) {
	dir := t.TempDir()
	a, _ := NewAdapter(dir)
	if err := os.WriteFile(filepath.Join(dir, "u1.json"), []byte("[]"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := a.Load(context.Background(), "u1"); !errors.Is(err, domain.ErrMalformedLedger) {
		t.Errorf("Load() error = %v, want ErrMalformedLedger", err)
	}
}

func TestAdapter_EscapesUserIDs(t *testing.T) {
	dir := t.TempDir()
	a, _ := NewAdapter(dir)
	ctx := context.Background()

	ids := []string{"../escape", "a/b", "..", "user one"}
	for _, id := range ids {
		if err := a.Save(ctx, id, domain.NewLedger()); err != nil {
			t.Fatalf("Save(%q) error = %v", id, err)
		}
		if _, err := a.Load(ctx, id); err != nil {
			t.Errorf("Load(%q) error = %v", id, err)
		}
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.json")); err == nil {
		t.Error("user id escaped the store directory")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != len(ids) {
		t.Errorf("files = %d, want %d", len(entries), len(ids))
	}
}

func TestAdapter_Count(t *testing.T) {
	dir := t.TempDir()
	a, _ := NewAdapter(dir)
	ctx := context.Background()

	for _, id := range []string{"b", "a/x", "b"} {
		if err := a.Save(ctx, id, domain.NewLedger()); err != nil {
			t.Fatalf("Save(%q) error = %v", id, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	n, err := a.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestNewAdapter_RequiresDir(t *testing.T) {
	if _, err := NewAdapter(""); err == nil {
		t.Error("NewAdapter(\"\") expected error")
	}
}
