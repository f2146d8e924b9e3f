// Package extract orchestrates the homework OCR pipeline: normalize the
// photo once, recognize it under every configured language profile, pick the
// best candidate deterministically, then score quality and classify content
// on the chosen text.
//
// The pipeline holds no global state. Each Service instance carries its own
// engine, profiles and cache, so independently configured pipelines (e.g.
// different language sets per deployment) can coexist in one process.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hwocr/internal/cache"
	"hwocr/internal/classify"
	"hwocr/internal/imaging"
	"hwocr/internal/logger"
	"hwocr/internal/ocr"
	"hwocr/internal/quality"
	"hwocr/pkg/models"
)

// acceptedMIMETypes is the fixed set of raster formats the pipeline accepts.
// Anything else is rejected before normalization.
var acceptedMIMETypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/webp": true,
}

// ServiceConfig wires a pipeline instance.
type ServiceConfig struct {
	// Engine is the recognition engine behind the adapter. Required.
	Engine ocr.Engine

	// Profiles is the ordered language profile set. Required, N >= 1.
	Profiles []LanguageProfile

	// RecognitionTimeout bounds each recognition pass. Required.
	RecognitionTimeout time.Duration

	// MinMathMarkers tunes the content classifier; values below 1 use the
	// classifier default.
	MinMathMarkers int

	// Cache deduplicates identical uploads. Nil disables caching and
	// single-flight collapsing.
	Cache *cache.ResultCache
}

// Service is one configured extraction pipeline.
type Service struct {
	normalizer *imaging.Normalizer
	extractor  *Extractor
	classifier classify.Classifier
	cache      *cache.ResultCache
}

// NewService builds a pipeline from the given configuration.
func NewService(cfg ServiceConfig) (*Service, error) {
	extractor, err := NewExtractor(cfg.Engine, cfg.Profiles, cfg.RecognitionTimeout)
	if err != nil {
		return nil, fmt.Errorf("configure extractor: %w", err)
	}
	return &Service{
		normalizer: imaging.NewNormalizer(),
		extractor:  extractor,
		classifier: classify.New(cfg.MinMathMarkers),
		cache:      cfg.Cache,
	}, nil
}

// ExtractHomeworkContent runs the full pipeline on one uploaded image.
//
// Identical image bytes always produce an identical result; with the cache
// enabled, concurrent identical uploads share one recognition pass per
// profile. Fatal failures are returned as *ExtractionError; "no readable
// text" is not a failure but a valid result with HasText=false.
func (s *Service) ExtractHomeworkContent(ctx context.Context, imageBytes []byte, mimeType string) (*models.ExtractionResult, error) {
	if len(imageBytes) == 0 {
		return nil, newExtractionError(KindUnsupportedFormat, "image payload is empty", nil)
	}
	normalized := strings.ToLower(strings.TrimSpace(mimeType))
	if !acceptedMIMETypes[normalized] {
		return nil, newExtractionError(KindUnsupportedFormat,
			fmt.Sprintf("unsupported image type %q", mimeType), nil)
	}

	if s.cache == nil {
		return s.run(ctx, imageBytes)
	}

	key := cache.Key(imageBytes)
	return s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (*models.ExtractionResult, error) {
		return s.run(ctx, imageBytes)
	})
}

func (s *Service) run(ctx context.Context, imageBytes []byte) (*models.ExtractionResult, error) {
	log := logger.WithComponent("extract")
	start := time.Now()

	outcome := s.normalizer.Normalize(imageBytes)
	if outcome.Degraded {
		// Degraded preprocessing is an internal note, never a caller error.
		log.Warn().Strs("notes", outcome.Notes).Msg("Image normalization degraded, continuing")
	}

	candidates, err := s.extractor.Extract(ctx, outcome.PNG)
	if err != nil {
		return nil, fromEngineError(err)
	}

	primary := candidates[0]
	secondary := emptyCandidate(LanguageProfile{}, len(candidates))
	if len(candidates) > 1 {
		secondary = candidates[1]
	}

	combined := combineTexts(primary.Text, secondary.Text)
	tier := quality.Score(primary.Confidence)
	contentType := s.classifier.Classify(combined)

	result := &models.ExtractionResult{
		Primary:      primary.Model(),
		Secondary:    secondary.Model(),
		CombinedText: combined,
		ContentType:  string(contentType),
		QualityTier:  string(tier),
		Suggestions:  quality.Suggestions(tier),
	}

	log.Info().
		Str("primary_language", primary.Profile.Tag).
		Float64("confidence", primary.Confidence).
		Str("quality_tier", result.QualityTier).
		Str("content_type", result.ContentType).
		Dur("duration", time.Since(start)).
		Msg("Extraction completed")

	return result, nil
}
