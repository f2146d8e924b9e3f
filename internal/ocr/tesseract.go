package ocr

import (
	"context"
	"errors"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine runs recognition with a locally installed Tesseract via
// gosseract. Each call uses its own client: gosseract clients are not safe
// for concurrent use, and the bilingual extractor runs passes in parallel.
type TesseractEngine struct {
	languages map[string]bool
}

// NewTesseractEngine probes the local Tesseract installation and records the
// installed trained-data languages. A missing installation is reported as
// ErrEngineUnavailable.
func NewTesseractEngine() (*TesseractEngine, error) {
	const op = "NewTesseractEngine"

	client := gosseract.NewClient()
	defer client.Close()

	langs, err := client.GetAvailableLanguages()
	if err != nil {
		return nil, NewEngineError(op, ErrEngineUnavailable, "could not list installed languages")
	}

	available := make(map[string]bool, len(langs))
	for _, lang := range langs {
		available[lang] = true
	}
	return &TesseractEngine{languages: available}, nil
}

// Name identifies the engine.
func (e *TesseractEngine) Name() string { return "tesseract" }

// Close releases engine resources. Clients are per-call, so this is a no-op.
func (e *TesseractEngine) Close() error { return nil }

// Recognize runs one Tesseract pass. The gosseract call itself cannot be
// interrupted, so it runs in a goroutine and is abandoned when the context
// deadline fires; the abandoned pass finishes in the background.
func (e *TesseractEngine) Recognize(ctx context.Context, in Input) (*Result, error) {
	const op = "Recognize"

	if !e.languages[in.Language] {
		return nil, NewEngineError(op, ErrLanguageUnsupported, in.Language)
	}

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := e.recognize(in)
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewEngineError(op, ErrRecognitionTimeout, in.Language)
		}
		return nil, ctx.Err()
	case o := <-done:
		return o.res, o.err
	}
}

func (e *TesseractEngine) recognize(in Input) (*Result, error) {
	const op = "Recognize"

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(in.Language); err != nil {
		return nil, NewEngineError(op, ErrLanguageUnsupported, in.Language)
	}
	for key, value := range parseVariables(in.Config) {
		if err := client.SetVariable(gosseract.SettableVariable(key), value); err != nil {
			return nil, NewEngineError(op, ErrEngineUnavailable, "could not apply engine variable "+key)
		}
	}
	if err := client.SetImageFromBytes(in.Image); err != nil {
		return nil, NewEngineError(op, ErrEngineUnavailable, "could not load image into engine")
	}

	text, err := client.Text()
	if err != nil {
		return nil, NewEngineError(op, ErrEngineUnavailable, "recognition pass failed")
	}

	return &Result{
		Text:     strings.TrimSpace(text),
		Language: in.Language,
		Tokens:   wordTokens(client),
	}, nil
}

// wordTokens pulls word-level confidence from the engine. When the engine
// cannot produce word boxes the pass still succeeds with zero tokens.
func wordTokens(client *gosseract.Client) []Token {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil
	}

	tokens := make([]Token, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		tokens = append(tokens, Token{
			Text:       word,
			Confidence: clampConfidence(box.Confidence),
		})
	}
	return tokens
}
