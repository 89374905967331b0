package recognizer

import (
	"strings"
	"unicode"
)

// maxBoundaryWords caps how far back the stitcher looks for text
// duplicated by segment overlap. A couple of seconds of speech is well
// under a dozen words.
const maxBoundaryWords = 12

// stitchTranscripts joins per-segment texts in playback order,
// dropping the words at each boundary that the segment overlap made
// both sides transcribe. Repetition elsewhere in the audio is kept.
func stitchTranscripts(parts []string) string {
	var words []string
	for _, part := range parts {
		next := strings.Fields(part)
		if len(next) == 0 {
			continue
		}
		if len(words) > 0 {
			next = next[overlapLen(words, next):]
		}
		words = append(words, next...)
	}
	return strings.Join(words, " ")
}

// overlapLen reports the longest k for which the last k words of prev
// match the first k words of next, ignoring case and punctuation.
func overlapLen(prev, next []string) int {
	limit := maxBoundaryWords
	if len(prev) < limit {
		limit = len(prev)
	}
	if len(next) < limit {
		limit = len(next)
	}

	for k := limit; k > 0; k-- {
		match := true
		for i := 0; i < k; i++ {
			if normalizeWord(prev[len(prev)-k+i]) != normalizeWord(next[i]) {
				match = false
				break
			}
		}
		if match {
			return k
		}
	}
	return 0
}

func normalizeWord(w string) string {
	w = strings.TrimFunc(w, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	return strings.ToLower(w)
}
