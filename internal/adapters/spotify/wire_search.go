package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
	"github.com/ewilliams-labs/moodqueue/backend/internal/logging"
	"github.com/ewilliams-labs/moodqueue/backend/internal/metrics"
)

// Search runs a free-text track search and tags every result with mood.
// limit is clamped to [1, 50].
func (c *Client) Search(ctx context.Context, query string, mood domain.Mood, limit int) ([]domain.Song, error) {
	songs, err := c.searchTracks(ctx, query, mood, limit)
	metrics.RecordCatalogRequest("search", err)
	return songs, err
}

// Playlist searches with the mood's keywords and drops near-duplicate
// recordings from the results.
func (c *Client) Playlist(ctx context.Context, mood domain.Mood, limit int) ([]domain.Song, error) {
	songs, err := c.searchTracks(ctx, mood.Keywords(), mood, limit)
	metrics.RecordCatalogRequest("playlist", err)
	if err != nil {
		return nil, err
	}
	return dedupeSongs(songs), nil
}

func (c *Client) searchTracks(ctx context.Context, query string, mood domain.Mood, limit int) ([]domain.Song, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("spotify adapter: empty search query")
	}

	searchURL, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: invalid search url: %w", err)
	}

	params := searchURL.Query()
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("market", c.market)
	params.Set("limit", strconv.Itoa(clampLimit(limit)))
	searchURL.RawQuery = params.Encode()

	logging.Ctx(ctx).Debug().Str("url", searchURL.String()).Msg("spotify search request")

	var body searchResponse
	if err := c.getJSON(ctx, searchURL.String(), &body); err != nil {
		return nil, fmt.Errorf("spotify adapter: search: %w", err)
	}

	return mapTracksToDomain(body.Tracks.Items, mood), nil
}
