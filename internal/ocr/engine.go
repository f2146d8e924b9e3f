// Package ocr is the pipeline's only point of contact with text recognition
// engines.
//
// Two engines are provided: a local Tesseract engine (the default) and a
// remote Google Cloud Vision engine. Both sit behind the same Engine
// interface, so the extraction pipeline never knows which one it is driving.
//
// Engine tuning travels as an opaque configuration string of key=value
// pairs. The Tesseract engine applies them as engine variables; the Vision
// engine ignores them.
package ocr

import (
	"context"
	"strings"
	"unicode"
)

// Input is one recognition request: a prepared image plus a language
// selection. Engines must not mutate the image bytes.
type Input struct {
	// Image is the encoded image payload (PNG after normalization, or the
	// original upload when normalization degraded).
	Image []byte

	// Language is the trained-data code for local engines (e.g. "ara", "eng").
	Language string

	// Hints carries BCP-47 language hints for remote engines (e.g. "ar").
	Hints []string

	// Config is the opaque engine tuning string, e.g.
	// "tessedit_pageseg_mode=6".
	Config string
}

// Token is a single recognized word with its confidence in [0,100].
type Token struct {
	Text       string
	Confidence float64
}

// Result is one successful recognition pass. A pass that found no text is
// still a successful Result with no tokens; failures are returned as errors,
// never as half-populated results.
type Result struct {
	// Text is the full recognized text in reading order, whitespace-trimmed.
	Text string

	// Language echoes the requested language code.
	Language string

	// Tokens holds the recognized words in reading order.
	Tokens []Token
}

// MeanConfidence averages the per-token confidence values.
// It is 0 when the pass produced no tokens.
func (r *Result) MeanConfidence() float64 {
	if len(r.Tokens) == 0 {
		return 0
	}
	var sum float64
	for _, tok := range r.Tokens {
		sum += tok.Confidence
	}
	return sum / float64(len(r.Tokens))
}

// Engine is the recognition provider contract: one prepared image in, one
// result or typed failure out.
type Engine interface {
	// Name identifies the engine in logs and configuration.
	Name() string

	// Recognize runs one recognition pass. The context bounds the call;
	// exceeding its deadline yields ErrRecognitionTimeout.
	Recognize(ctx context.Context, in Input) (*Result, error)

	// Close releases engine resources.
	Close() error
}

// clampConfidence forces a confidence value into [0,100].
func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// parseVariables splits an opaque config string of key=value pairs separated
// by whitespace or commas. Malformed pairs are dropped.
func parseVariables(config string) map[string]string {
	fields := strings.FieldsFunc(config, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return nil
	}
	vars := make(map[string]string, len(fields))
	for _, field := range fields {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			continue
		}
		vars[key] = value
	}
	return vars
}
