package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
	"github.com/ewilliams-labs/moodqueue/backend/internal/core/ports"
	"github.com/ewilliams-labs/moodqueue/backend/internal/logging"
	"github.com/ewilliams-labs/moodqueue/backend/internal/metrics"
)

// LedgerStoreConfig tunes the store's backend boundary.
type LedgerStoreConfig struct {
	// Timeout bounds every backend call. Default 5s.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive backend failures that
	// opens the breaker. Default 5.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open. Default 30s.
	OpenTimeout time.Duration
}

// DefaultLedgerStoreConfig returns production defaults.
func DefaultLedgerStoreConfig() LedgerStoreConfig {
	return LedgerStoreConfig{
		Timeout:          5 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

type ledgerEntry struct {
	mu     sync.Mutex
	ledger domain.Ledger
	dirty  bool
}

// LedgerStore fronts a LedgerRepository with an in-process cache.
//
// Each user has its own lock, held across read, mutate and persist, so
// concurrent outcomes for one user never lose updates. Writes go through to
// the backend on every mutation; a failed write leaves the cached ledger as
// the best-known state, marks it dirty and hands the user to the retry queue.
type LedgerStore struct {
	repo    ports.LedgerRepository
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[domain.Ledger]

	mu      sync.Mutex
	entries map[string]*ledgerEntry
	retry   ports.RetryQueue
}

var _ ports.LedgerFlusher = (*LedgerStore)(nil)

// NewLedgerStore constructs a LedgerStore over repo.
func NewLedgerStore(repo ports.LedgerRepository, cfg LedgerStoreConfig) *LedgerStore {
	def := DefaultLedgerStoreConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}

	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[domain.Ledger](gobreaker.Settings{
		Name:        "ledger-store",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrMalformedLedger)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("ledger store breaker changed state")
		},
	})

	return &LedgerStore{
		repo:    repo,
		timeout: cfg.Timeout,
		breaker: breaker,
		entries: make(map[string]*ledgerEntry),
	}
}

// SetRetryQueue registers the queue that receives users whose persist failed.
func (s *LedgerStore) SetRetryQueue(q ports.RetryQueue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retry = q
}

// GetOrCreate returns a snapshot of the user's ledger, creating and
// persisting an empty one on first reference.
func (s *LedgerStore) GetOrCreate(ctx context.Context, userID string) (domain.Ledger, error) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	created, err := s.loadLocked(ctx, userID, e)
	if err != nil {
		return nil, err
	}
	if created {
		if err := s.saveLocked(ctx, userID, e, true); err != nil {
			return nil, err
		}
	}
	return e.ledger.Clone(), nil
}

// View runs fn against the user's ledger under the user's lock. fn must not
// retain or modify the ledger.
func (s *LedgerStore) View(ctx context.Context, userID string, fn func(domain.Ledger) error) error {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	created, err := s.loadLocked(ctx, userID, e)
	if err != nil {
		return err
	}
	if created {
		if err := s.saveLocked(ctx, userID, e, true); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("new ledger not yet durable")
		}
	}
	return fn(e.ledger)
}

// Update applies fn to the user's ledger and persists the result before
// releasing the user's lock. If fn fails the cached ledger is unchanged.
// If the persist fails the cached ledger keeps the mutation but is not
// durable, and the returned error wraps ports.ErrStoreUnavailable.
func (s *LedgerStore) Update(ctx context.Context, userID string, fn func(domain.Ledger) error) (domain.Ledger, error) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := s.loadLocked(ctx, userID, e); err != nil {
		return nil, err
	}

	working := e.ledger.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	e.ledger = working

	if err := s.saveLocked(ctx, userID, e, true); err != nil {
		return nil, err
	}
	return e.ledger.Clone(), nil
}

// Persist overwrites the user's stored ledger.
func (s *LedgerStore) Persist(ctx context.Context, userID string, ledger domain.Ledger) error {
	if err := ledger.Validate(); err != nil {
		return fmt.Errorf("store: refusing to persist: %w", err)
	}

	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ledger = ledger.Clone()
	return s.saveLocked(ctx, userID, e, true)
}

// Reset replaces the user's ledger with an empty one and persists it.
func (s *LedgerStore) Reset(ctx context.Context, userID string) (domain.Ledger, error) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ledger = domain.NewLedger()
	if err := s.saveLocked(ctx, userID, e, true); err != nil {
		return nil, err
	}
	return e.ledger.Clone(), nil
}

// IsDurable reports whether the user's cached ledger has been persisted.
// Users that are not cached are durable by definition.
func (s *LedgerStore) IsDurable(userID string) bool {
	s.mu.Lock()
	e, ok := s.entries[userID]
	s.mu.Unlock()
	if !ok {
		return true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.dirty
}

// FlushUser persists the user's cached ledger if it is dirty.
func (s *LedgerStore) FlushUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	e, ok := s.entries[userID]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dirty || e.ledger == nil {
		return nil
	}
	return s.saveLocked(ctx, userID, e, false)
}

// Flush persists every dirty cached ledger.
func (s *LedgerStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	users := make([]string, 0, len(s.entries))
	for id := range s.entries {
		users = append(users, id)
	}
	s.mu.Unlock()

	var errs []error
	for _, id := range users {
		if err := s.FlushUser(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CountStored counts the ledgers in the backend and publishes the result
// as a gauge. Backends that cannot count return errors.ErrUnsupported.
func (s *LedgerStore) CountStored(ctx context.Context) (int, error) {
	counter, ok := s.repo.(ports.LedgerCounter)
	if !ok {
		return 0, errors.ErrUnsupported
	}

	start := time.Now()
	n, err := callBackend(ctx, s.timeout, counter.Count)
	metrics.ObserveStoreOp("count", start, err)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %w", ports.ErrStoreUnavailable, err)
	}
	metrics.StoredLedgers.Set(float64(n))
	return n, nil
}

// Close flushes dirty ledgers and closes the backend.
func (s *LedgerStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	flushErr := s.Flush(ctx)
	if flushErr != nil {
		logging.Error().Err(flushErr).Msg("ledgers lost on close")
	}
	return errors.Join(flushErr, s.repo.Close())
}

func (s *LedgerStore) entry(userID string) *ledgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		e = &ledgerEntry{}
		s.entries[userID] = e
		metrics.CachedLedgers.Inc()
	}
	return e
}

// loadLocked fills e.ledger from the backend. It reports created=true when
// a fresh ledger replaced a missing or malformed one and still needs saving.
func (s *LedgerStore) loadLocked(ctx context.Context, userID string, e *ledgerEntry) (bool, error) {
	if e.ledger != nil {
		metrics.LedgerCacheHitsTotal.Inc()
		return false, nil
	}
	metrics.LedgerCacheMissesTotal.Inc()

	start := time.Now()
	ledger, err := s.breaker.Execute(func() (domain.Ledger, error) {
		return callBackend(ctx, s.timeout, func(ctx context.Context) (domain.Ledger, error) {
			return s.repo.Load(ctx, userID)
		})
	})
	metrics.ObserveStoreOp("load", start, err)

	switch {
	case err == nil:
		e.ledger = ledger
		return false, nil
	case errors.Is(err, domain.ErrNotFound):
		e.ledger = domain.NewLedger()
		return true, nil
	case errors.Is(err, domain.ErrMalformedLedger):
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("stored ledger malformed, starting empty")
		e.ledger = domain.NewLedger()
		return true, nil
	default:
		return false, fmt.Errorf("%w: load %q: %w", ports.ErrStoreUnavailable, userID, err)
	}
}

func (s *LedgerStore) saveLocked(ctx context.Context, userID string, e *ledgerEntry, queueRetry bool) error {
	// The backend may outlive the timeout, so it gets its own copy.
	snapshot := e.ledger.Clone()

	start := time.Now()
	_, err := s.breaker.Execute(func() (domain.Ledger, error) {
		return callBackend(ctx, s.timeout, func(ctx context.Context) (domain.Ledger, error) {
			return nil, s.repo.Save(ctx, userID, snapshot)
		})
	})
	metrics.ObserveStoreOp("save", start, err)

	if err != nil {
		if !e.dirty {
			e.dirty = true
			metrics.DirtyLedgers.Inc()
		}
		if queueRetry {
			s.mu.Lock()
			q := s.retry
			s.mu.Unlock()
			if q != nil {
				q.Submit(userID)
			}
		}
		return fmt.Errorf("%w: save %q: %w", ports.ErrStoreUnavailable, userID, err)
	}

	if e.dirty {
		e.dirty = false
		metrics.DirtyLedgers.Dec()
	}
	return nil
}

// callBackend runs fn with a deadline and stops waiting once it passes,
// whether or not fn watches its context. An abandoned call keeps running
// in the background and its result is discarded.
func callBackend[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer cancel()
		v, err := fn(ctx)
		done <- result{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("backend call abandoned: %w", ctx.Err())
	}
}
