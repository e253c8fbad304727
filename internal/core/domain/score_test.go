package domain

import (
	"math"
	"testing"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		setup func(l Ledger)
		song  string
		want  float64
	}{
		{
			name:  "empty ledger scores base",
			setup: func(l Ledger) {},
			song:  "X",
			want:  0.50,
		},
		{
			name: "dislike vetoes favorite",
			setup: func(l Ledger) {
				l.SetDisliked(MoodHappy, "X", true)
				l.SetFavorite(MoodHappy, "X", true)
			},
			song: "X",
			want: 0.10,
		},
		{
			name: "dislike vetoes every signal",
			setup: func(l Ledger) {
				l.SetDisliked(MoodHappy, "X", true)
				l.SetLiked(MoodHappy, "X", true)
				l.SetFavorite(MoodHappy, "X", true)
				l.RecordFinish(MoodHappy, "X")
				l.RecordSkip(MoodHappy, "X")
			},
			song: "X",
			want: 0.10,
		},
		{
			name: "cleared dislike still vetoes",
			setup: func(l Ledger) {
				l.SetDisliked(MoodHappy, "X", true)
				l.SetDisliked(MoodHappy, "X", false)
				l.SetFavorite(MoodHappy, "X", true)
			},
			song: "X",
			want: 0.10,
		},
		{
			name: "cleared like still counts",
			setup: func(l Ledger) {
				l.SetLiked(MoodHappy, "Y", false)
			},
			song: "Y",
			want: 0.60,
		},
		{
			name: "cleared favorite still counts",
			setup: func(l Ledger) {
				l.SetFavorite(MoodHappy, "Y", false)
			},
			song: "Y",
			want: 0.70,
		},
		{
			name: "completion ratio bonus",
			setup: func(l Ledger) {
				h := l[MoodHappy]
				h.Finished["Y"] = 3
				h.Skipped["Y"] = 1
			},
			song: "Y",
			want: 0.575,
		},
		{
			name: "recently played penalty",
			setup: func(l Ledger) {
				l[MoodHappy].Previous = []string{"Y", "X"}
			},
			song: "Y",
			want: 0.30,
		},
		{
			name: "finished only gets no ratio bonus",
			setup: func(l Ledger) {
				l[MoodHappy].Finished["Y"] = 10
			},
			song: "Y",
			want: 0.50,
		},
		{
			name: "liked and favorite stack",
			setup: func(l Ledger) {
				l.SetLiked(MoodHappy, "Z", true)
				l.SetFavorite(MoodHappy, "Z", true)
			},
			song: "Z",
			want: 0.80,
		},
		{
			name: "signals in another mood are ignored",
			setup: func(l Ledger) {
				l.SetDisliked(MoodSad, "X", true)
			},
			song: "X",
			want: 0.50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			tt.setup(l)
			got := Score(l, MoodHappy, tt.song)
			if !floatEquals(got, tt.want, 1e-9) {
				t.Fatalf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_AlwaysInUnitInterval(t *testing.T) {
	songs := []string{"a", "b", "c", "d"}
	l := NewLedger()
	for i, s := range songs {
		l.SetLiked(MoodParty, s, i%2 == 0)
		l.SetFavorite(MoodParty, s, i < 3)
		for j := 0; j <= i; j++ {
			l.RecordFinish(MoodParty, s)
		}
		if i > 1 {
			l.RecordSkip(MoodParty, s)
		}
	}
	l[MoodParty].Finished["a"] = 1000
	l[MoodParty].Skipped["a"] = 1

	for _, m := range Moods() {
		for _, s := range append(songs, "unknown") {
			got := Score(l, m, s)
			if got < 0 || got > 1 {
				t.Fatalf("Score(%s, %s) = %v outside [0,1]", m, s, got)
			}
		}
	}
}

func TestScoreAll(t *testing.T) {
	l := NewLedger()
	l.SetDisliked(MoodHappy, "A", true)
	l.SetFavorite(MoodHappy, "B", true)

	got := ScoreAll(l, MoodHappy, []string{"A", "B", "A", "C"})
	wantIDs := []string{"A", "B", "A", "C"}
	wantWeights := []float64{0.10, 0.70, 0.10, 0.50}
	if got.Len() != len(wantIDs) {
		t.Fatalf("len: got %d, want %d", got.Len(), len(wantIDs))
	}
	for i := range wantIDs {
		if got.SongIDs[i] != wantIDs[i] {
			t.Fatalf("id[%d]: got %q, want %q", i, got.SongIDs[i], wantIDs[i])
		}
		if !floatEquals(got.Weights[i], wantWeights[i], 1e-9) {
			t.Fatalf("weight[%d]: got %v, want %v", i, got.Weights[i], wantWeights[i])
		}
	}

	empty := ScoreAll(l, MoodHappy, nil)
	if empty.Len() != 0 {
		t.Fatalf("expected empty set, got %d", empty.Len())
	}
}

func floatEquals(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
