package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
	"github.com/ewilliams-labs/moodqueue/backend/internal/core/ports"
	"github.com/ewilliams-labs/moodqueue/backend/internal/logging"
	"github.com/ewilliams-labs/moodqueue/backend/internal/metrics"
)

var (
	// ErrInvalidArgument is returned for missing user or song ids.
	ErrInvalidArgument = errors.New("service: invalid argument")

	// ErrCatalogNotConfigured is returned by Playlist when no catalog is wired.
	ErrCatalogNotConfigured = errors.New("service: catalog not configured")
)

// Outcome names used for logging and metrics.
const (
	OutcomeSkip     = "skip"
	OutcomeFinish   = "finish"
	OutcomeLike     = "like"
	OutcomeDislike  = "dislike"
	OutcomeFavorite = "favorite"
)

// Recommender picks the next song for a user and records playback outcomes.
type Recommender struct {
	store   *LedgerStore
	catalog ports.CatalogProvider

	rngMu sync.Mutex
	rng   domain.RandomSource
}

// NewRecommender constructs a Recommender. catalog may be nil, in which case
// Playlist returns ErrCatalogNotConfigured.
func NewRecommender(store *LedgerStore, catalog ports.CatalogProvider, rng domain.RandomSource) *Recommender {
	return &Recommender{
		store:   store,
		catalog: catalog,
		rng:     rng,
	}
}

// Next scores every candidate against the user's history in mood and draws
// one of them.
func (r *Recommender) Next(ctx context.Context, userID, mood string, songIDs []string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id cannot be empty", ErrInvalidArgument)
	}
	m := domain.NormalizeMood(mood)
	metrics.CandidatesPerDraw.Observe(float64(len(songIDs)))

	if len(songIDs) == 0 {
		metrics.RecommendationsTotal.WithLabelValues(m.String(), "empty").Inc()
		return "", fmt.Errorf("service: %w", domain.ErrEmptyCandidateSet)
	}

	var candidates domain.WeightedCandidates
	err := r.store.View(ctx, userID, func(l domain.Ledger) error {
		candidates = domain.ScoreAll(l, m, songIDs)
		return nil
	})
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues(m.String(), "error").Inc()
		return "", fmt.Errorf("service: failed to load history: %w", err)
	}

	r.rngMu.Lock()
	songID, err := domain.Draw(candidates, r.rng)
	r.rngMu.Unlock()
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues(m.String(), "empty").Inc()
		return "", fmt.Errorf("service: %w", err)
	}

	metrics.RecommendationsTotal.WithLabelValues(m.String(), "ok").Inc()
	logging.Ctx(ctx).Debug().Str("user_id", userID).Str("mood", m.String()).Str("song_id", songID).Int("candidates", len(songIDs)).Msg("next song drawn")
	return songID, nil
}

// Skip records that the user skipped song in mood.
func (r *Recommender) Skip(ctx context.Context, userID, mood, songID string) error {
	return r.record(ctx, OutcomeSkip, userID, mood, songID, func(l domain.Ledger, m domain.Mood) {
		l.RecordSkip(m, songID)
	})
}

// Finish records that the user listened to song to the end in mood.
func (r *Recommender) Finish(ctx context.Context, userID, mood, songID string) error {
	return r.record(ctx, OutcomeFinish, userID, mood, songID, func(l domain.Ledger, m domain.Mood) {
		l.RecordFinish(m, songID)
	})
}

// Like sets or clears the liked flag.
func (r *Recommender) Like(ctx context.Context, userID, mood, songID string, value bool) error {
	return r.record(ctx, OutcomeLike, userID, mood, songID, func(l domain.Ledger, m domain.Mood) {
		l.SetLiked(m, songID, value)
	})
}

// Dislike sets or clears the disliked flag.
func (r *Recommender) Dislike(ctx context.Context, userID, mood, songID string, value bool) error {
	return r.record(ctx, OutcomeDislike, userID, mood, songID, func(l domain.Ledger, m domain.Mood) {
		l.SetDisliked(m, songID, value)
	})
}

// Favorite sets or clears the favorite flag.
func (r *Recommender) Favorite(ctx context.Context, userID, mood, songID string, value bool) error {
	return r.record(ctx, OutcomeFavorite, userID, mood, songID, func(l domain.Ledger, m domain.Mood) {
		l.SetFavorite(m, songID, value)
	})
}

// History returns a snapshot of the user's ledger.
func (r *Recommender) History(ctx context.Context, userID string) (domain.Ledger, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id cannot be empty", ErrInvalidArgument)
	}
	l, err := r.store.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load history: %w", err)
	}
	return l, nil
}

// Reset clears the user's history.
func (r *Recommender) Reset(ctx context.Context, userID string) (domain.Ledger, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id cannot be empty", ErrInvalidArgument)
	}
	l, err := r.store.Reset(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to reset history: %w", err)
	}
	logging.Ctx(ctx).Info().Str("user_id", userID).Msg("history reset")
	return l, nil
}

// Playlist returns catalog songs matching mood.
func (r *Recommender) Playlist(ctx context.Context, mood string, limit int) ([]domain.Song, error) {
	if r.catalog == nil {
		return nil, ErrCatalogNotConfigured
	}
	songs, err := r.catalog.Playlist(ctx, domain.NormalizeMood(mood), limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch playlist: %w", err)
	}
	return songs, nil
}

func (r *Recommender) record(ctx context.Context, outcome, userID, mood, songID string, apply func(domain.Ledger, domain.Mood)) error {
	if userID == "" || songID == "" {
		return fmt.Errorf("%w: user id and song id are required", ErrInvalidArgument)
	}
	m := domain.NormalizeMood(mood)

	_, err := r.store.Update(ctx, userID, func(l domain.Ledger) error {
		apply(l, m)
		return nil
	})
	if err != nil {
		return fmt.Errorf("service: failed to record %s: %w", outcome, err)
	}

	metrics.RecordOutcome(outcome, m.String())
	logging.Ctx(ctx).Debug().Str("user_id", userID).Str("mood", m.String()).Str("song_id", songID).Str("outcome", outcome).Msg("outcome recorded")
	return nil
}

// ParseFlag parses an outcome flag, defaulting to true when raw is blank.
func ParseFlag(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return true, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: invalid flag %q", ErrInvalidArgument, raw)
	}
	return v, nil
}
