package rest

import (
	"net/http"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
)

// defaultPlaylistLimit applies when /playlist has no limit.
const defaultPlaylistLimit = 20

type nextResponse struct {
	Success bool   `json:"success"`
	SongID  string `json:"song_id"`
	Mood    string `json:"mood"`
}

type outcomeResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id"`
	SongID  string `json:"song_id"`
	Mood    string `json:"mood"`
	Value   *bool  `json:"value,omitempty"`
}

type historyResponse struct {
	Success bool          `json:"success"`
	UserID  string        `json:"user_id"`
	History domain.Ledger `json:"history"`
}

type playlistResponse struct {
	Success bool          `json:"success"`
	Mood    string        `json:"mood"`
	Songs   []domain.Song `json:"songs"`
}

// Next handles GET /next
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	req, err := parseNext(r)
	if err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeInvalidArgument)
		return
	}

	songID, err := h.svc.Next(r.Context(), req.UserID, req.Mood, req.SongIDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nextResponse{
		Success: true,
		SongID:  songID,
		Mood:    domain.NormalizeMood(req.Mood).String(),
	})
}

// Skip handles GET|POST /skip
func (h *Handler) Skip(w http.ResponseWriter, r *http.Request) {
	h.handleOutcome(w, r, false, func(req outcomeRequest) error {
		return h.svc.Skip(r.Context(), req.UserID, req.Mood, req.SongID)
	})
}

// Finish handles GET|POST /finish
func (h *Handler) Finish(w http.ResponseWriter, r *http.Request) {
	h.handleOutcome(w, r, false, func(req outcomeRequest) error {
		return h.svc.Finish(r.Context(), req.UserID, req.Mood, req.SongID)
	})
}

// Like handles GET|POST /like
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	h.handleOutcome(w, r, true, func(req outcomeRequest) error {
		return h.svc.Like(r.Context(), req.UserID, req.Mood, req.SongID, req.Value)
	})
}

// Dislike handles GET|POST /dislike
func (h *Handler) Dislike(w http.ResponseWriter, r *http.Request) {
	h.handleOutcome(w, r, true, func(req outcomeRequest) error {
		return h.svc.Dislike(r.Context(), req.UserID, req.Mood, req.SongID, req.Value)
	})
}

// Favorite handles GET|POST /favorite
func (h *Handler) Favorite(w http.ResponseWriter, r *http.Request) {
	h.handleOutcome(w, r, true, func(req outcomeRequest) error {
		return h.svc.Favorite(r.Context(), req.UserID, req.Mood, req.SongID, req.Value)
	})
}

func (h *Handler) handleOutcome(w http.ResponseWriter, r *http.Request, withValue bool, record func(outcomeRequest) error) {
	req, err := parseOutcome(r, withValue)
	if err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeInvalidArgument)
		return
	}

	if err := record(req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := outcomeResponse{
		Success: true,
		UserID:  req.UserID,
		SongID:  req.SongID,
		Mood:    domain.NormalizeMood(req.Mood).String(),
	}
	if withValue {
		v := req.Value
		resp.Value = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

// History handles GET /history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	req, err := parseUser(r)
	if err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeInvalidArgument)
		return
	}

	ledger, err := h.svc.History(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Success: true, UserID: req.UserID, History: ledger})
}

// Reset handles POST /reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	req, err := parseUser(r)
	if err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeInvalidArgument)
		return
	}

	ledger, err := h.svc.Reset(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Success: true, UserID: req.UserID, History: ledger})
}

// Playlist handles GET /playlist
func (h *Handler) Playlist(w http.ResponseWriter, r *http.Request) {
	req, err := parsePlaylist(r)
	if err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeInvalidArgument)
		return
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultPlaylistLimit
	}

	songs, err := h.svc.Playlist(r.Context(), req.Mood, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if songs == nil {
		songs = []domain.Song{}
	}
	writeJSON(w, http.StatusOK, playlistResponse{
		Success: true,
		Mood:    domain.NormalizeMood(req.Mood).String(),
		Songs:   songs,
	})
}
