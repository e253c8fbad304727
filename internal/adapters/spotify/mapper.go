package spotify

import (
	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
)

// mapTrackToDomain converts a raw Spotify track to a Song tagged with mood.
func mapTrackToDomain(st spotifyTrack, mood domain.Mood) domain.Song {
	artists := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		if a.Name != "" {
			artists = append(artists, a.Name)
		}
	}

	imageURL := ""
	if len(st.Album.Images) > 0 {
		imageURL = st.Album.Images[0].URL
	}

	// preview_url is null for many tracks
	audioURL := ""
	if st.PreviewURL != nil {
		audioURL = *st.PreviewURL
	}

	return domain.Song{
		ID:       st.ID,
		Mood:     mood,
		Title:    st.Name,
		Artists:  artists,
		ImageURL: imageURL,
		Album:    st.Album.Name,
		AudioURL: audioURL,
	}
}

func mapTracksToDomain(items []spotifyTrack, mood domain.Mood) []domain.Song {
	songs := make([]domain.Song, 0, len(items))
	for _, st := range items {
		if st.ID == "" {
			continue
		}
		songs = append(songs, mapTrackToDomain(st, mood))
	}
	return songs
}
