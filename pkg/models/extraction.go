package models

// ExtractionCandidate is one recognition pass over the uploaded image,
// tagged with the language profile that produced it.
type ExtractionCandidate struct {
	// Text is the recognized text with surrounding whitespace trimmed.
	Text string `json:"text"`

	// Language is the tag of the language profile that produced this candidate.
	Language string `json:"language"`

	// Confidence is the mean of the per-token confidence values, in [0,100].
	// It is 0 when the pass produced no tokens.
	Confidence float64 `json:"confidence"`

	// HasText reports whether the pass produced any usable text
	// (word count > 0 and confidence > 0).
	HasText bool `json:"has_text"`

	// WordCount is the number of whitespace-separated words in Text.
	WordCount int `json:"word_count"`
}

// ExtractionResult is the final output of one homework extraction request.
// It is constructed once per request and never mutated afterwards.
type ExtractionResult struct {
	// Primary is the candidate with the higher aggregate confidence.
	Primary ExtractionCandidate `json:"primary"`

	// Secondary is the remaining candidate.
	Secondary ExtractionCandidate `json:"secondary"`

	// CombinedText is the primary text followed by the secondary text on a
	// new line, with empty segments omitted.
	CombinedText string `json:"combined_text"`

	// ContentType classifies the combined text:
	// "mathematical", "linguistic", "mixed" or "unknown".
	ContentType string `json:"content_type"`

	// QualityTier is "high" (confidence >= 80), "medium" ([50,80)) or "low" (< 50),
	// based on the primary candidate's confidence.
	QualityTier string `json:"quality_tier"`

	// Suggestions lists human-facing advice for improving the photo.
	// It is empty when QualityTier is "high".
	Suggestions []string `json:"suggestions"`
}

// ExtractionFailure is the wire shape for a failed extraction request.
type ExtractionFailure struct {
	// Error is a human-readable message. It never contains raw engine output.
	Error string `json:"error"`

	// ErrorKind is one of the enumerated failure kinds:
	// "engine_unavailable", "language_unsupported",
	// "recognition_timeout" or "unsupported_format".
	ErrorKind string `json:"error_kind"`
}
