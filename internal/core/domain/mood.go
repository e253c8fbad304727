package domain

// Mood is a category label partitioning a user's history.
type Mood string

const (
	MoodHappy        Mood = "HAPPY"
	MoodSad          Mood = "SAD"
	MoodChill        Mood = "CHILL"
	MoodEnergetic    Mood = "ENERGETIC"
	MoodRomantic     Mood = "ROMANTIC"
	MoodAngry        Mood = "ANGRY"
	MoodPeaceful     Mood = "PEACEFUL"
	MoodParty        Mood = "PARTY"
	MoodMotivational Mood = "MOTIVATIONAL"
	MoodNostalgic    Mood = "NOSTALGIC"
)

// The last entry doubles as the fallback for unrecognized input.
var moods = []Mood{
	MoodHappy,
	MoodSad,
	MoodChill,
	MoodEnergetic,
	MoodRomantic,
	MoodAngry,
	MoodPeaceful,
	MoodParty,
	MoodMotivational,
	MoodNostalgic,
}

var moodKeywords = map[Mood]string{
	MoodHappy:        "HAPPY UPBEAT POP",
	MoodSad:          "SAD EMOTIONAL HEARTACHE",
	MoodChill:        "LOFI CHILL RELAXING",
	MoodEnergetic:    "ENERGETIC WORKOUT POP",
	MoodRomantic:     "ROMANTIC LOVE HEART",
	MoodAngry:        "ANGER METAL ROCK SHOUTING",
	MoodPeaceful:     "PEACE RELAX CALM",
	MoodParty:        "PARTY DANCE EDM",
	MoodMotivational: "INSPIRE CINEMATIC MOTIVATIONAL",
	MoodNostalgic:    "NOSTALGIC THROWBACK RETRO",
}

// Moods returns every mood in registry order.
func Moods() []Mood {
	out := make([]Mood, len(moods))
	copy(out, moods)
	return out
}

// FallbackMood is the mood used for unrecognized input.
func FallbackMood() Mood {
	return moods[len(moods)-1]
}

// NormalizeMood maps raw input onto the registry. Matching is exact and
// case-sensitive; anything else yields FallbackMood.
func NormalizeMood(input string) Mood {
	for _, m := range moods {
		if string(m) == input {
			return m
		}
	}
	return FallbackMood()
}

// IsValid reports whether m is a registry member.
func (m Mood) IsValid() bool {
	_, ok := moodKeywords[m]
	return ok
}

// Keywords returns the catalog search terms for the mood.
func (m Mood) Keywords() string {
	if kw, ok := moodKeywords[m]; ok {
		return kw
	}
	return moodKeywords[FallbackMood()]
}

func (m Mood) String() string {
	return string(m)
}
