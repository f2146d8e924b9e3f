package extract

import (
	"sort"
	"strings"

	"hwocr/internal/ocr"
	"hwocr/pkg/models"
)

// Candidate is one recognition pass tagged with the profile that produced
// it. Exactly one Candidate exists per configured profile per request.
type Candidate struct {
	Profile    LanguageProfile
	Text       string
	Confidence float64
	WordCount  int
	HasText    bool

	// order is the profile's declaration index, the final selection
	// tie-break.
	order int
}

// newCandidate derives a Candidate from a recognition result.
func newCandidate(profile LanguageProfile, order int, res *ocr.Result) Candidate {
	text := strings.TrimSpace(res.Text)
	confidence := res.MeanConfidence()
	wordCount := len(strings.Fields(text))
	return Candidate{
		Profile:    profile,
		Text:       text,
		Confidence: confidence,
		WordCount:  wordCount,
		HasText:    wordCount > 0 && confidence > 0,
		order:      order,
	}
}

// emptyCandidate stands in for a profile whose pass failed recoverably
// while another profile succeeded.
func emptyCandidate(profile LanguageProfile, order int) Candidate {
	return Candidate{Profile: profile, order: order}
}

// Model converts the candidate to its wire shape.
func (c Candidate) Model() models.ExtractionCandidate {
	return models.ExtractionCandidate{
		Text:       c.Text,
		Language:   c.Profile.Tag,
		Confidence: c.Confidence,
		HasText:    c.HasText,
		WordCount:  c.WordCount,
	}
}

// selectCandidates orders candidates by aggregate confidence, then word
// count, then profile declaration order. The sort is stable and ignores
// arrival order entirely, so identical input always yields the same
// primary/secondary split.
func selectCandidates(candidates []Candidate) []Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		if sorted[i].WordCount != sorted[j].WordCount {
			return sorted[i].WordCount > sorted[j].WordCount
		}
		return sorted[i].order < sorted[j].order
	})
	return sorted
}

// combineTexts joins the primary and secondary texts with a newline,
// omitting empty segments.
func combineTexts(primary, secondary string) string {
	parts := make([]string, 0, 2)
	if primary != "" {
		parts = append(parts, primary)
	}
	if secondary != "" {
		parts = append(parts, secondary)
	}
	return strings.Join(parts, "\n")
}
