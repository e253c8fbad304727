package spotify

import (
	"strings"
	"unicode"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/domain"
)

// duplicateThreshold is the similarity above which two search results are
// treated as the same recording (remasters, radio edits, live cuts).
const duplicateThreshold = 0.9

var noiseTokens = map[string]struct{}{
	"clean":      {},
	"deluxe":     {},
	"edition":    {},
	"edit":       {},
	"explicit":   {},
	"feat":       {},
	"featuring":  {},
	"ft":         {},
	"live":       {},
	"mix":        {},
	"mono":       {},
	"radio":      {},
	"remaster":   {},
	"remastered": {},
	"stereo":     {},
	"version":    {},
}

// dedupeSongs drops results whose normalized artist and title match an
// earlier result. Order is preserved.
func dedupeSongs(songs []domain.Song) []domain.Song {
	out := make([]domain.Song, 0, len(songs))
	keys := make([]string, 0, len(songs))
	seenIDs := make(map[string]struct{}, len(songs))

	for _, s := range songs {
		if _, dup := seenIDs[s.ID]; dup {
			continue
		}
		key := songKey(s)
		if key != "" && isNearDuplicate(key, keys) {
			continue
		}
		seenIDs[s.ID] = struct{}{}
		keys = append(keys, key)
		out = append(out, s)
	}
	return out
}

func isNearDuplicate(key string, keys []string) bool {
	for _, k := range keys {
		if k != "" && similarity(key, k) >= duplicateThreshold {
			return true
		}
	}
	return false
}

func songKey(s domain.Song) string {
	return normalizeSearchInput(strings.Join(s.Artists, " ") + " " + s.Title)
}

// normalizeSearchInput lowercases input and strips bracketed segments,
// punctuation and release-noise words.
func normalizeSearchInput(input string) string {
	if input == "" {
		return ""
	}

	lower := strings.ToLower(input)
	filtered := stripBracketedSegments(lower)
	tokens := strings.Fields(cleanSeparators(filtered))

	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, drop := noiseTokens[token]; drop {
			continue
		}
		cleaned = append(cleaned, token)
	}

	return strings.Join(cleaned, " ")
}

func stripBracketedSegments(input string) string {
	var out strings.Builder
	depth := 0
	for _, r := range input {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}

	return out.String()
}

func cleanSeparators(input string) string {
	var out strings.Builder
	lastSpace := false
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			out.WriteRune(' ')
			lastSpace = true
		}
	}

	return out.String()
}

func similarity(a string, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

func levenshteinDistance(a string, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,
				curr[j-1]+1,
				prev[j-1]+cost,
			)
		}
		copy(prev, curr)
	}

	return prev[len(rb)]
}
