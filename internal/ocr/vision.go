package ocr

import (
	"context"
	"errors"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// VisionEngine runs recognition against the Google Cloud Vision API. It is
// the remote alternative to the local Tesseract engine, selected with
// OCR_ENGINE=vision.
type VisionEngine struct {
	client *vision.ImageAnnotatorClient
}

// NewVisionEngine creates a Vision-backed engine with credentials from the
// environment: GOOGLE_CREDENTIALS (inline JSON), GOOGLE_APPLICATION_CREDENTIALS
// (file path), or Application Default Credentials as fallback.
func NewVisionEngine(ctx context.Context) (*VisionEngine, error) {
	const op = "NewVisionEngine"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, NewEngineError(op, ErrEngineUnavailable, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, NewEngineError(op, ErrEngineUnavailable, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, NewEngineError(op, ErrEngineUnavailable, "no Google Cloud credentials found in environment")
		}
	}

	return &VisionEngine{client: client}, nil
}

// NewVisionEngineWithClient creates a Vision engine with an explicit client
// (for testing).
func NewVisionEngineWithClient(client *vision.ImageAnnotatorClient) *VisionEngine {
	return &VisionEngine{client: client}
}

// Name identifies the engine.
func (e *VisionEngine) Name() string { return "vision" }

// Close closes the underlying Vision client.
func (e *VisionEngine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Recognize runs document text detection on one image. The opaque Config
// string is Tesseract tuning and is ignored here; language selection uses
// the profile's BCP-47 hints.
func (e *VisionEngine) Recognize(ctx context.Context, in Input) (*Result, error) {
	const op = "Recognize"

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: in.Image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{
					LanguageHints: in.Hints,
				},
			},
		},
	}

	resp, err := e.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewEngineError(op, ErrRecognitionTimeout, in.Language)
		}
		return nil, NewEngineError(op, ErrEngineUnavailable, "Vision API call failed")
	}
	if len(resp.Responses) == 0 {
		return nil, NewEngineError(op, ErrEngineUnavailable, "no response from Vision API")
	}

	annotation := resp.Responses[0]
	if annotation.Error != nil {
		return nil, NewEngineError(op, ErrEngineUnavailable, "Vision API returned an error response")
	}

	// No text annotation means the image had no readable text. That is a
	// valid outcome, not a failure.
	if annotation.FullTextAnnotation == nil {
		return &Result{Language: in.Language}, nil
	}

	return &Result{
		Text:     strings.TrimSpace(annotation.FullTextAnnotation.Text),
		Language: in.Language,
		Tokens:   visionTokens(annotation.FullTextAnnotation),
	}, nil
}

// visionTokens flattens the page/block/paragraph hierarchy into word tokens
// in reading order. Vision reports confidence in [0,1]; tokens carry [0,100].
func visionTokens(annotation *visionpb.TextAnnotation) []Token {
	var tokens []Token
	for _, page := range annotation.Pages {
		for _, block := range page.Blocks {
			for _, paragraph := range block.Paragraphs {
				for _, word := range paragraph.Words {
					var sb strings.Builder
					for _, symbol := range word.Symbols {
						sb.WriteString(symbol.Text)
					}
					text := strings.TrimSpace(sb.String())
					if text == "" {
						continue
					}
					tokens = append(tokens, Token{
						Text:       text,
						Confidence: clampConfidence(float64(word.Confidence) * 100),
					})
				}
			}
		}
	}
	return tokens
}
