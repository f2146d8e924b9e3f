package extract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hwocr/internal/logger"
	"hwocr/internal/ocr"
)

// Extractor runs one recognition pass per configured language profile and
// selects the best candidates.
type Extractor struct {
	engine   ocr.Engine
	profiles []LanguageProfile
	timeout  time.Duration
}

// NewExtractor creates an Extractor over the given engine and ordered
// profile set.
func NewExtractor(engine ocr.Engine, profiles []LanguageProfile, timeout time.Duration) (*Extractor, error) {
	if engine == nil {
		return nil, fmt.Errorf("recognition engine is required")
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("at least one language profile is required")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("recognition timeout must be positive")
	}
	return &Extractor{engine: engine, profiles: profiles, timeout: timeout}, nil
}

type recognition struct {
	result *ocr.Result
	err    error
}

// Extract recognizes the prepared image under every profile concurrently and
// returns the candidates ordered best-first.
//
// The per-profile passes are independent and order-insensitive: results land
// in a slice indexed by profile, and selection runs only after every pass has
// finished, so scheduling can never influence the outcome. A profile whose
// pass fails after the timeout retry contributes an empty candidate as long
// as at least one profile succeeded; when every profile fails, the failure of
// the earliest-declared profile is returned.
func (e *Extractor) Extract(ctx context.Context, image []byte) ([]Candidate, error) {
	outcomes := make([]recognition, len(e.profiles))

	var wg sync.WaitGroup
	for i, profile := range e.profiles {
		wg.Add(1)
		go func(i int, profile LanguageProfile) {
			defer wg.Done()
			res, err := e.recognizeProfile(ctx, image, profile)
			outcomes[i] = recognition{result: res, err: err}
		}(i, profile)
	}
	wg.Wait()

	log := logger.WithComponent("extract")
	candidates := make([]Candidate, 0, len(e.profiles))
	var firstErr error
	failures := 0

	for i, outcome := range outcomes {
		profile := e.profiles[i]
		if outcome.err != nil {
			failures++
			if firstErr == nil {
				firstErr = outcome.err
			}
			log.Warn().
				Err(outcome.err).
				Str("profile", profile.Tag).
				Msg("Recognition pass failed")
			candidates = append(candidates, emptyCandidate(profile, i))
			continue
		}
		candidates = append(candidates, newCandidate(profile, i, outcome.result))
	}

	if failures == len(e.profiles) {
		return nil, firstErr
	}
	return selectCandidates(candidates), nil
}

// recognizeProfile runs one bounded pass, retrying once with the profile's
// fast configuration after a timeout.
func (e *Extractor) recognizeProfile(ctx context.Context, image []byte, profile LanguageProfile) (*ocr.Result, error) {
	res, err := e.recognizeOnce(ctx, image, profile, profile.Config)
	if err == nil || !errors.Is(err, ocr.ErrRecognitionTimeout) || profile.FastConfig == "" {
		return res, err
	}

	logger.WithComponent("extract").Warn().
		Str("profile", profile.Tag).
		Msg("Recognition timed out, retrying with fast configuration")
	return e.recognizeOnce(ctx, image, profile, profile.FastConfig)
}

func (e *Extractor) recognizeOnce(ctx context.Context, image []byte, profile LanguageProfile, config string) (*ocr.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	return e.engine.Recognize(callCtx, ocr.Input{
		Image:    image,
		Language: profile.Language,
		Hints:    profile.Hints,
		Config:   config,
	})
}
