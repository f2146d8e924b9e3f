package extract

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"hwocr/internal/ocr"
)

// fakeEngine scripts one outcome per language and records every call.
type fakeEngine struct {
	mu      sync.Mutex
	results map[string]*ocr.Result
	errs    map[string]error
	calls   []ocr.Input

	// timeoutFirst makes the first call per language fail with a timeout,
	// exercising the fast-config retry.
	timeoutFirst map[string]bool
	seen         map[string]int

	// delay widens the recognition window so concurrent requests can pile up.
	delay time.Duration
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		results:      make(map[string]*ocr.Result),
		errs:         make(map[string]error),
		timeoutFirst: make(map[string]bool),
		seen:         make(map[string]int),
	}
}

func (f *fakeEngine) Name() string { return "fake" }
func (f *fakeEngine) Close() error { return nil }

func (f *fakeEngine) Recognize(_ context.Context, in ocr.Input) (*ocr.Result, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, in)
	f.seen[in.Language]++

	if f.timeoutFirst[in.Language] && f.seen[in.Language] == 1 {
		return nil, ocr.NewEngineError("Recognize", ocr.ErrRecognitionTimeout, in.Language)
	}
	if err := f.errs[in.Language]; err != nil {
		return nil, err
	}
	if res := f.results[in.Language]; res != nil {
		return res, nil
	}
	return &ocr.Result{Language: in.Language}, nil
}

func (f *fakeEngine) callCount(language string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[language]
}

func tokens(confidence float64, words ...string) []ocr.Token {
	toks := make([]ocr.Token, len(words))
	for i, w := range words {
		toks[i] = ocr.Token{Text: w, Confidence: confidence}
	}
	return toks
}

func testProfiles() []LanguageProfile {
	return DefaultProfiles(6)
}

func newTestExtractor(t *testing.T, engine ocr.Engine) *Extractor {
	t.Helper()
	ex, err := NewExtractor(engine, testProfiles(), time.Second)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	return ex
}

func TestExtractSelectsHigherConfidence(t *testing.T) {
	engine := newFakeEngine()
	engine.results["ara"] = &ocr.Result{Text: "نص عربي", Tokens: tokens(95, "نص", "عربي")}
	engine.results["eng"] = &ocr.Result{Text: "some text", Tokens: tokens(60, "some", "text")}

	candidates, err := newTestExtractor(t, engine).Extract(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if candidates[0].Profile.Tag != "arabic" {
		t.Errorf("primary = %q, want arabic", candidates[0].Profile.Tag)
	}
	if candidates[1].Profile.Tag != "english" {
		t.Errorf("secondary = %q, want english", candidates[1].Profile.Tag)
	}
}

func TestExtractTieBreakByWordCount(t *testing.T) {
	engine := newFakeEngine()
	engine.results["ara"] = &ocr.Result{Text: "كلمة", Tokens: tokens(70, "كلمة")}
	engine.results["eng"] = &ocr.Result{Text: "three short words", Tokens: tokens(70, "three", "short", "words")}

	candidates, err := newTestExtractor(t, engine).Extract(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if candidates[0].Profile.Tag != "english" {
		t.Errorf("equal confidence should fall through to word count, primary = %q", candidates[0].Profile.Tag)
	}
}

func TestExtractTieBreakByDeclarationOrder(t *testing.T) {
	engine := newFakeEngine()
	engine.results["ara"] = &ocr.Result{Text: "واحد اثنان", Tokens: tokens(70, "واحد", "اثنان")}
	engine.results["eng"] = &ocr.Result{Text: "one two", Tokens: tokens(70, "one", "two")}

	// Equal confidence and equal word count: the earlier-declared profile wins,
	// no matter how the goroutines were scheduled.
	for i := 0; i < 20; i++ {
		candidates, err := newTestExtractor(t, engine).Extract(context.Background(), []byte("img"))
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if candidates[0].Profile.Tag != "arabic" {
			t.Fatalf("run %d: primary = %q, want arabic (declaration order)", i, candidates[0].Profile.Tag)
		}
	}
}

func TestExtractAllProfilesFail(t *testing.T) {
	engine := newFakeEngine()
	engine.errs["ara"] = ocr.NewEngineError("Recognize", ocr.ErrEngineUnavailable, "ara")
	engine.errs["eng"] = ocr.NewEngineError("Recognize", ocr.ErrEngineUnavailable, "eng")

	_, err := newTestExtractor(t, engine).Extract(context.Background(), []byte("img"))
	if !errors.Is(err, ocr.ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable, got %v", err)
	}
}

func TestExtractPartialFailureYieldsEmptyCandidate(t *testing.T) {
	engine := newFakeEngine()
	engine.results["eng"] = &ocr.Result{Text: "survived", Tokens: tokens(85, "survived")}
	engine.errs["ara"] = ocr.NewEngineError("Recognize", ocr.ErrLanguageUnsupported, "ara")

	candidates, err := newTestExtractor(t, engine).Extract(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("one successful profile should be a partial result, got error: %v", err)
	}

	if candidates[0].Profile.Tag != "english" || !candidates[0].HasText {
		t.Errorf("expected english primary with text, got %+v", candidates[0])
	}
	if candidates[1].HasText || candidates[1].Text != "" {
		t.Errorf("failed profile should contribute an empty candidate, got %+v", candidates[1])
	}
}

func TestExtractTimeoutRetriesWithFastConfig(t *testing.T) {
	engine := newFakeEngine()
	engine.timeoutFirst["ara"] = true
	engine.results["ara"] = &ocr.Result{Text: "بعد الإعادة", Tokens: tokens(75, "بعد", "الإعادة")}
	engine.results["eng"] = &ocr.Result{Text: "fine", Tokens: tokens(40, "fine")}

	candidates, err := newTestExtractor(t, engine).Extract(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got := engine.callCount("ara"); got != 2 {
		t.Errorf("expected 1 retry for the timed-out profile, got %d calls", got)
	}
	var retry *ocr.Input
	engine.mu.Lock()
	for i := range engine.calls {
		if engine.calls[i].Language == "ara" && engine.seen["ara"] > 1 {
			retry = &engine.calls[i]
		}
	}
	engine.mu.Unlock()
	if retry == nil || !strings.Contains(retry.Config, "tessedit_do_invert=0") {
		t.Error("retry should use the profile's fast configuration")
	}
	if candidates[0].Profile.Tag != "arabic" {
		t.Errorf("retried profile should still win on confidence, primary = %q", candidates[0].Profile.Tag)
	}
}

func TestExtractTimeoutWithoutRecoveryPropagates(t *testing.T) {
	engine := newFakeEngine()
	engine.errs["ara"] = ocr.NewEngineError("Recognize", ocr.ErrRecognitionTimeout, "ara")
	engine.errs["eng"] = ocr.NewEngineError("Recognize", ocr.ErrRecognitionTimeout, "eng")

	_, err := newTestExtractor(t, engine).Extract(context.Background(), []byte("img"))
	if !errors.Is(err, ocr.ErrRecognitionTimeout) {
		t.Errorf("expected ErrRecognitionTimeout after retries, got %v", err)
	}
	// One normal pass plus one fast retry per profile.
	if got := engine.callCount("ara"); got != 2 {
		t.Errorf("ara calls = %d, want 2", got)
	}
	if got := engine.callCount("eng"); got != 2 {
		t.Errorf("eng calls = %d, want 2", got)
	}
}

func TestCombineTexts(t *testing.T) {
	tests := []struct {
		primary, secondary, want string
	}{
		{"first", "second", "first\nsecond"},
		{"first", "", "first"},
		{"", "second", "second"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := combineTexts(tt.primary, tt.secondary); got != tt.want {
			t.Errorf("combineTexts(%q, %q) = %q, want %q", tt.primary, tt.secondary, got, tt.want)
		}
	}
}
