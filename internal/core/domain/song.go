package domain

// Song is a catalog track normalized for playback in a mood.
type Song struct {
	ID       string   `json:"id"`
	Mood     Mood     `json:"mood"`
	Title    string   `json:"title"`
	Artists  []string `json:"artists"`
	ImageURL string   `json:"image_url"`
	Album    string   `json:"album"`
	AudioURL string   `json:"audio_url"`
}
