package domain

import "fmt"

// MaxPrevious bounds the recently played window of each mood.
const MaxPrevious = 3

// MoodHistory is one user's interaction record within a single mood.
type MoodHistory struct {
	Liked    map[string]bool `json:"liked"`
	Disliked map[string]bool `json:"disliked"`
	Favorite map[string]bool `json:"favorite"`
	Skipped  map[string]int  `json:"skipped"`
	Finished map[string]int  `json:"finished"`
	Previous []string        `json:"previous"`
}

// NewMoodHistory returns a record with every collection empty.
func NewMoodHistory() *MoodHistory {
	return &MoodHistory{
		Liked:    map[string]bool{},
		Disliked: map[string]bool{},
		Favorite: map[string]bool{},
		Skipped:  map[string]int{},
		Finished: map[string]int{},
		Previous: []string{},
	}
}

func (h *MoodHistory) clone() *MoodHistory {
	c := &MoodHistory{
		Liked:    make(map[string]bool, len(h.Liked)),
		Disliked: make(map[string]bool, len(h.Disliked)),
		Favorite: make(map[string]bool, len(h.Favorite)),
		Skipped:  make(map[string]int, len(h.Skipped)),
		Finished: make(map[string]int, len(h.Finished)),
		Previous: make([]string, len(h.Previous)),
	}
	for k, v := range h.Liked {
		c.Liked[k] = v
	}
	for k, v := range h.Disliked {
		c.Disliked[k] = v
	}
	for k, v := range h.Favorite {
		c.Favorite[k] = v
	}
	for k, v := range h.Skipped {
		c.Skipped[k] = v
	}
	for k, v := range h.Finished {
		c.Finished[k] = v
	}
	copy(c.Previous, h.Previous)
	return c
}

// repair fills nil collections and trims an oversized window.
func (h *MoodHistory) repair() {
	if h.Liked == nil {
		h.Liked = map[string]bool{}
	}
	if h.Disliked == nil {
		h.Disliked = map[string]bool{}
	}
	if h.Favorite == nil {
		h.Favorite = map[string]bool{}
	}
	if h.Skipped == nil {
		h.Skipped = map[string]int{}
	}
	if h.Finished == nil {
		h.Finished = map[string]int{}
	}
	if h.Previous == nil {
		h.Previous = []string{}
	}
	if len(h.Previous) > MaxPrevious {
		h.Previous = h.Previous[:MaxPrevious]
	}
}

// Ledger is a user's full history: one record per mood, every mood present.
type Ledger map[Mood]*MoodHistory

// NewLedger returns a ledger with an empty record for every mood.
func NewLedger() Ledger {
	l := make(Ledger, len(moods))
	for _, m := range moods {
		l[m] = NewMoodHistory()
	}
	return l
}

// Clone returns a deep copy of the ledger.
func (l Ledger) Clone() Ledger {
	c := make(Ledger, len(l))
	for m, h := range l {
		if h == nil {
			continue
		}
		c[m] = h.clone()
	}
	return c
}

// Validate checks that every mood has a record. Nil collections inside a
// record are repaired in place.
func (l Ledger) Validate() error {
	if l == nil {
		return fmt.Errorf("%w: nil ledger", ErrMalformedLedger)
	}
	for _, m := range moods {
		h, ok := l[m]
		if !ok || h == nil {
			return fmt.Errorf("%w: missing mood %s", ErrMalformedLedger, m)
		}
		h.repair()
	}
	return nil
}

// History returns the record for mood, creating it if absent.
func (l Ledger) History(mood Mood) *MoodHistory {
	h, ok := l[mood]
	if !ok || h == nil {
		h = NewMoodHistory()
		l[mood] = h
	}
	return h
}

// RecordSkip increments the skip count for song and marks it played.
func (l Ledger) RecordSkip(mood Mood, song string) {
	h := l.History(mood)
	h.Skipped[song]++
	l.RecordPlayed(mood, song)
}

// RecordFinish increments the finish count for song and marks it played.
func (l Ledger) RecordFinish(mood Mood, song string) {
	h := l.History(mood)
	h.Finished[song]++
	l.RecordPlayed(mood, song)
}

// RecordPlayed pushes song to the front of the recently played window,
// dropping the oldest entry once the window exceeds MaxPrevious.
func (l Ledger) RecordPlayed(mood Mood, song string) {
	h := l.History(mood)
	h.Previous = append([]string{song}, h.Previous...)
	if len(h.Previous) > MaxPrevious {
		h.Previous = h.Previous[:MaxPrevious]
	}
}

// SetLiked overwrites the liked flag for song.
func (l Ledger) SetLiked(mood Mood, song string, value bool) {
	l.History(mood).Liked[song] = value
}

// SetDisliked overwrites the disliked flag for song.
func (l Ledger) SetDisliked(mood Mood, song string, value bool) {
	l.History(mood).Disliked[song] = value
}

// SetFavorite overwrites the favorite flag for song.
func (l Ledger) SetFavorite(mood Mood, song string, value bool) {
	l.History(mood).Favorite[song] = value
}
