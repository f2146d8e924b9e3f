// Package classify assigns a subject hint to extracted homework text.
//
// Detection is marker-based rather than statistical: the classifier scans for
// a fixed set of mathematical symbols and terms, including the Arabic
// equivalents of the trigonometric functions, and decides between
// mathematical, linguistic and mixed content from the occurrence counts.
package classify

import (
	"strings"
	"unicode"
)

// ContentType is the subject hint derived from extracted text.
type ContentType string

const (
	Mathematical ContentType = "mathematical"
	Linguistic   ContentType = "linguistic"
	Mixed        ContentType = "mixed"
	Unknown      ContentType = "unknown"
)

// symbolMarkers are counted at every occurrence. The minus sign is U+2212,
// not the ASCII hyphen, which would fire on hyphenated words.
var symbolMarkers = []string{
	"=", "+", "−", "×", "÷", "^", "²", "³", "√", "∫", "∑", "π",
}

// wordMarkers are matched against letter-run tokens, so "sin" does not fire
// inside "using". The Arabic entries are the school forms of sin, cos, tan
// and the limit notation.
var wordMarkers = map[string]bool{
	"sin": true, "cos": true, "tan": true,
	"log": true, "ln": true,
	"dx": true, "dy": true,
	"جا": true, "جتا": true, "ظا": true, "نها": true,
}

// Classifier decides content type from marker occurrence counts.
type Classifier struct {
	// MinMarkers is the occurrence count at which text counts as
	// mathematical. Values below 1 fall back to DefaultMinMarkers.
	MinMarkers int

	// MinMixedWords is the number of plain words that, combined with a
	// mathematical signal, classifies text as mixed. Values below 1 fall
	// back to DefaultMinMixedWords.
	MinMixedWords int
}

const (
	DefaultMinMarkers    = 2
	DefaultMinMixedWords = 4
)

// New returns a Classifier with the given mathematical-marker threshold.
func New(minMarkers int) Classifier {
	return Classifier{MinMarkers: minMarkers}
}

// Classify assigns a content type to text. It is a pure function of the
// text and the configured thresholds.
func (c Classifier) Classify(text string) ContentType {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Unknown
	}

	markers := countMarkers(trimmed)
	if markers == 0 {
		return Linguistic
	}

	minMarkers := c.MinMarkers
	if minMarkers < 1 {
		minMarkers = DefaultMinMarkers
	}
	if markers < minMarkers {
		return Linguistic
	}

	minWords := c.MinMixedWords
	if minWords < 1 {
		minWords = DefaultMinMixedWords
	}
	if countPlainWords(trimmed) >= minWords {
		return Mixed
	}
	return Mathematical
}

// countMarkers totals symbol occurrences plus word-marker tokens.
func countMarkers(text string) int {
	count := 0
	for _, sym := range symbolMarkers {
		count += strings.Count(text, sym)
	}
	lower := strings.ToLower(text)
	for _, token := range letterRuns(lower) {
		if wordMarkers[token] {
			count++
		}
	}
	return count
}

// countPlainWords counts tokens that look like ordinary prose: at least two
// letters, not a mathematical term.
func countPlainWords(text string) int {
	count := 0
	for _, field := range strings.Fields(text) {
		if containsDigitOrMarker(field) {
			continue
		}
		token := strings.TrimFunc(field, func(r rune) bool { return !unicode.IsLetter(r) })
		if len([]rune(token)) < 2 {
			continue
		}
		if wordMarkers[strings.ToLower(token)] {
			continue
		}
		count++
	}
	return count
}

func containsDigitOrMarker(field string) bool {
	for _, r := range field {
		if unicode.IsDigit(r) {
			return true
		}
	}
	for _, sym := range symbolMarkers {
		if strings.Contains(field, sym) {
			return true
		}
	}
	return false
}

// letterRuns splits text into maximal runs of letters.
func letterRuns(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
}
