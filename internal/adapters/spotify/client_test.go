package spotify_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ewilliams-labs/moodqueue/backend/internal/adapters/spotify"
	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
	"github.com/ewilliams-labs/moodqueue/backend/internal/core/ports"
)

const searchBody = `{
  "tracks": {
    "items": [
      {
        "id": "t1",
        "name": "Walking on Sunshine",
        "artists": [{"id": "a1", "name": "Katrina & The Waves"}],
        "album": {"name": "Walking on Sunshine", "images": [{"url": "https://img.test/1.jpg", "height": 640, "width": 640}]},
        "preview_url": "https://p.test/1.mp3",
        "duration_ms": 238000
      },
      {
        "id": "t2",
        "name": "Happy",
        "artists": [{"id": "a2", "name": "Pharrell Williams"}],
        "album": {"name": "G I R L", "images": []},
        "preview_url": null
      }
    ],
    "total": 2
  }
}`

func TestClient_Search(t *testing.T) {
	var gotQuery atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path: got %s, want /search", r.URL.Path)
		}
		gotQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	}))
	defer ts.Close()

	client := spotify.NewClient(ts.Client(), spotify.Config{BaseURL: ts.URL, Market: "GB"})
	songs, err := client.Search(context.Background(), "sunshine", domain.MoodHappy, 500)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	q := gotQuery.Load().(url.Values)
	checks := map[string]string{"q": "sunshine", "type": "track", "market": "GB", "limit": "50"}
	for k, want := range checks {
		if got := q[k]; len(got) != 1 || got[0] != want {
			t.Errorf("query %s: got %v, want %s", k, got, want)
		}
	}

	if len(songs) != 2 {
		t.Fatalf("songs: got %d, want 2", len(songs))
	}
	want := domain.Song{
		ID:       "t1",
		Mood:     domain.MoodHappy,
		Title:    "Walking on Sunshine",
		Artists:  []string{"Katrina & The Waves"},
		ImageURL: "https://img.test/1.jpg",
		Album:    "Walking on Sunshine",
		AudioURL: "https://p.test/1.mp3",
	}
	got := songs[0]
	if got.ID != want.ID || got.Mood != want.Mood || got.Title != want.Title || got.ImageURL != want.ImageURL ||
		got.Album != want.Album || got.AudioURL != want.AudioURL || len(got.Artists) != 1 || got.Artists[0] != want.Artists[0] {
		t.Errorf("song: got %+v, want %+v", got, want)
	}
	if songs[1].AudioURL != "" || songs[1].ImageURL != "" {
		t.Errorf("null preview and missing image should map to empty strings: %+v", songs[1])
	}
}

func TestClient_SearchLimitClamp(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  string
	}{
		{name: "zero", limit: 0, want: "1"},
		{name: "negative", limit: -4, want: "1"},
		{name: "in range", limit: 20, want: "20"},
		{name: "too large", limit: 100, want: "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Query().Get("limit")
				_, _ = w.Write([]byte(`{"tracks":{"items":[]}}`))
			}))
			defer ts.Close()

			client := spotify.NewClient(ts.Client(), spotify.Config{BaseURL: ts.URL})
			if _, err := client.Search(context.Background(), "x", domain.MoodSad, tt.limit); err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("limit: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClient_Playlist(t *testing.T) {
	var gotQ string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"tracks":{"items":[
			{"id":"a","name":"Weightless","artists":[{"name":"Marconi Union"}],"album":{"name":"W"}},
			{"id":"b","name":"Weightless (Remastered)","artists":[{"name":"Marconi Union"}],"album":{"name":"W"}},
			{"id":"c","name":"Clair de Lune","artists":[{"name":"Debussy"}],"album":{"name":"Suite"}}
		]}}`))
	}))
	defer ts.Close()

	client := spotify.NewClient(ts.Client(), spotify.Config{BaseURL: ts.URL})
	songs, err := client.Playlist(context.Background(), domain.MoodPeaceful, 10)
	if err != nil {
		t.Fatalf("Playlist() error = %v", err)
	}
	if gotQ != domain.MoodPeaceful.Keywords() {
		t.Errorf("q: got %q, want %q", gotQ, domain.MoodPeaceful.Keywords())
	}
	if len(songs) != 2 || songs[0].ID != "a" || songs[1].ID != "c" {
		t.Errorf("songs: got %+v, want ids [a c]", songs)
	}
	for _, s := range songs {
		if s.Mood != domain.MoodPeaceful {
			t.Errorf("song %s mood: got %s", s.ID, s.Mood)
		}
	}
}

func TestClient_SearchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, wantErr: ports.ErrCatalogUnavailable},
		{name: "server error exhausts retries", status: http.StatusBadGateway, body: `{}`, wantErr: ports.ErrCatalogUnavailable},
		{name: "bad json", status: http.StatusOK, body: `{"tracks":`, wantErr: ports.ErrCatalogUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			client := spotify.NewClient(ts.Client(), spotify.Config{
				BaseURL:      ts.URL,
				MaxRetries:   2,
				RetryBackoff: time.Millisecond,
			})
			_, err := client.Search(context.Background(), "x", domain.MoodSad, 5)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_SearchEmptyQuery(t *testing.T) {
	client := spotify.NewClient(nil, spotify.Config{BaseURL: "http://127.0.0.1:0"})
	if _, err := client.Search(context.Background(), "  ", domain.MoodSad, 5); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestNewClientCredentials(t *testing.T) {
	var tokenCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			t.Errorf("basic auth: got %q/%q ok=%v", user, pass, ok)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type: got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); !strings.EqualFold(got, "Bearer tok-1") {
			t.Errorf("authorization: got %q", got)
		}
		_, _ = w.Write([]byte(`{"tracks":{"items":[]}}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := spotify.NewClientCredentials(context.Background(), spotify.Config{
		ClientID:          "id",
		ClientSecret:      "secret",
		TokenURL:          ts.URL + "/token",
		BaseURL:           ts.URL + "/v1",
		RequestsPerSecond: 100,
	})

	for i := 0; i < 2; i++ {
		if _, err := client.Search(context.Background(), "x", domain.MoodChill, 5); err != nil {
			t.Fatalf("Search() error = %v", err)
		}
	}
	if got := tokenCalls.Load(); got != 1 {
		t.Errorf("token requests: got %d, want 1", got)
	}
}
