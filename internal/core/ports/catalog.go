package ports

import (
	"context"
	"errors"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
)

// ErrCatalogUnavailable indicates the music catalog could not serve a request.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// CatalogProvider searches a music catalog for songs.
type CatalogProvider interface {
	Search(ctx context.Context, query string, mood domain.Mood, limit int) ([]domain.Song, error)
	Playlist(ctx context.Context, mood domain.Mood, limit int) ([]domain.Song, error)
}
