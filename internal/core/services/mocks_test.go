package services

import (
	"context"
	"errors"
	"sync"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
)

var errBackendDown = errors.New("backend down")

// mockRepo is an in-memory LedgerRepository that stores encoded ledgers.
type mockRepo struct {
	mu      sync.Mutex
	data    map[string][]byte
	loadErr error
	saveErr error
	loads   int
	saves   int
	closed  bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{data: make(map[string][]byte)}
}

func (m *mockRepo) Load(_ context.Context, userID string) (domain.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	raw, ok := m.data[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return domain.DecodeLedger(raw)
}

func (m *mockRepo) Save(_ context.Context, userID string, ledger domain.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	raw, err := domain.EncodeLedger(ledger)
	if err != nil {
		return err
	}
	m.data[userID] = raw
	return nil
}

func (m *mockRepo) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data), nil
}

func (m *mockRepo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockRepo) setSaveErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func (m *mockRepo) stored(userID string) (domain.Ledger, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[userID]
	if !ok {
		return nil, false
	}
	l, err := domain.DecodeLedger(raw)
	if err != nil {
		return nil, false
	}
	return l, true
}

// mockQueue records submitted users.
type mockQueue struct {
	mu    sync.Mutex
	users []string
}

func (q *mockQueue) Submit(userID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.users = append(q.users, userID)
}

func (q *mockQueue) submitted() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.users...)
}

// mockCatalog returns canned songs.
type mockCatalog struct {
	songs    []domain.Song
	err      error
	gotMood  domain.Mood
	gotLimit int
}

func (c *mockCatalog) Search(_ context.Context, _ string, mood domain.Mood, limit int) ([]domain.Song, error) {
	c.gotMood, c.gotLimit = mood, limit
	return c.songs, c.err
}

func (c *mockCatalog) Playlist(_ context.Context, mood domain.Mood, limit int) ([]domain.Song, error) {
	c.gotMood, c.gotLimit = mood, limit
	return c.songs, c.err
}

// fixedSource always returns the same value.
type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

// stalledRepo blocks every call until release is closed, ignoring ctx.
type stalledRepo struct {
	release chan struct{}
}

func newStalledRepo() *stalledRepo {
	return &stalledRepo{release: make(chan struct{})}
}

func (s *stalledRepo) Load(_ context.Context, _ string) (domain.Ledger, error) {
	<-s.release
	return nil, domain.ErrNotFound
}

func (s *stalledRepo) Save(_ context.Context, _ string, _ domain.Ledger) error {
	<-s.release
	return nil
}

func (s *stalledRepo) Close() error { return nil }
