package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"hwocr/internal/cache"
	"hwocr/internal/config"
	"hwocr/internal/extract"
	"hwocr/internal/logger"
	"hwocr/internal/ocr"
	"hwocr/pkg/models"
)

var extractCmd = &cobra.Command{
	Use:   "extract [image-file]",
	Short: "Extract text from a homework photo",
	Long: `Run the full extraction pipeline on one homework photo.

The image is normalized (grayscale, denoise, binarize), recognized under the
Arabic and English profiles concurrently, and the stronger reading becomes the
primary result. The output includes the combined text, a quality tier with
retake suggestions, and a content classification.

The recognition engine is chosen by OCR_ENGINE (tesseract or vision). The
vision engine additionally needs Google Cloud credentials via
GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.`,
	Example: `  # Extract text from a photo to stdout
  hwocr extract homework.jpg

  # Full result as JSON, written to a file
  hwocr extract homework.jpg --json -o result.json

  # Slow scan of a difficult photo, bypassing the result cache
  hwocr extract homework.jpg --timeout 120 --no-cache`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Bool("json", false, "Output the full result as JSON")
	extractCmd.Flags().Int("timeout", 0, "Per-pass recognition timeout in seconds (default: OCR_TIMEOUT_SECONDS)")
	extractCmd.Flags().Bool("no-cache", false, "Bypass the result cache for this run")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract-cmd")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	imagePath := args[0]

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if timeoutSecs > 0 {
		cfg.RecognitionTimeout = time.Duration(timeoutSecs) * time.Second
	}
	if noCache {
		cfg.CacheEnabled = false
	}

	log.Info().
		Str("file", imagePath).
		Str("engine", cfg.OCREngine).
		Dur("timeout", cfg.RecognitionTimeout).
		Bool("cache", cfg.CacheEnabled).
		Msg("Starting extraction")

	imageBytes, mimeType, err := readImageFile(imagePath, log)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	engine, err := buildEngine(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := engine.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close recognition engine")
		}
	}()

	svc, err := extract.NewService(extract.ServiceConfig{
		Engine:             engine,
		Profiles:           extract.DefaultProfiles(cfg.TesseractPageSegMode),
		RecognitionTimeout: cfg.RecognitionTimeout,
		MinMathMarkers:     cfg.MinMathMarkers,
		Cache:              buildCache(cfg),
	})
	if err != nil {
		return fmt.Errorf("failed to build extraction pipeline: %w", err)
	}

	result, err := svc.ExtractHomeworkContent(ctx, imageBytes, mimeType)
	if err != nil {
		return handleExtractError(err, log)
	}

	return writeResult(result, outputPath, jsonOutput, log)
}

// readImageFile loads the image and sniffs its MIME type from the content,
// not the extension.
func readImageFile(imagePath string, log zerolog.Logger) ([]byte, string, error) {
	info, err := os.Stat(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", imagePath).Msg("Image file not found")
			return nil, "", fmt.Errorf("image file not found: %s", imagePath)
		}
		return nil, "", fmt.Errorf("error accessing image file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, "", fmt.Errorf("path is not a regular file: %s", imagePath)
	}
	if info.Size() == 0 {
		return nil, "", fmt.Errorf("image file is empty: %s", imagePath)
	}

	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		log.Error().Err(err).Str("file", imagePath).Msg("Failed to read image file")
		return nil, "", fmt.Errorf("failed to read image file: %w", err)
	}

	mimeType := http.DetectContentType(imageBytes)
	log.Debug().
		Str("file", imagePath).
		Int64("size", info.Size()).
		Str("mime_type", mimeType).
		Msg("Image loaded")
	return imageBytes, mimeType, nil
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext(log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling extraction")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// buildEngine constructs the recognition engine named by the configuration.
func buildEngine(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ocr.Engine, error) {
	switch cfg.OCREngine {
	case config.EngineVision:
		hasCredentials := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" || os.Getenv("GOOGLE_CREDENTIALS") != ""
		if !hasCredentials {
			log.Error().Msg("Google Cloud credentials not configured")
			return nil, fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
				"1. GOOGLE_APPLICATION_CREDENTIALS with the path to a service account JSON file\n" +
				"2. GOOGLE_CREDENTIALS with inline JSON credentials\n" +
				"3. Application Default Credentials via: gcloud auth application-default login")
		}
		engine, err := ocr.NewVisionEngine(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create vision engine")
			return nil, fmt.Errorf("failed to create vision engine: %w", err)
		}
		return engine, nil
	default:
		engine, err := ocr.NewTesseractEngine()
		if err != nil {
			log.Error().Err(err).Msg("Failed to create tesseract engine")
			if errors.Is(err, ocr.ErrEngineUnavailable) {
				return nil, fmt.Errorf("tesseract is not available on this system. " +
					"Install tesseract-ocr with the ara and eng language packs, " +
					"or set OCR_ENGINE=vision to use Google Cloud Vision")
			}
			return nil, fmt.Errorf("failed to create tesseract engine: %w", err)
		}
		return engine, nil
	}
}

// buildCache assembles the configured result cache, or nil when disabled.
func buildCache(cfg *config.Config) *cache.ResultCache {
	if !cfg.CacheEnabled {
		return nil
	}
	if cfg.RedisAddr != "" {
		return cache.New(cache.NewRedis(cfg.RedisAddr, cfg.CacheTTL))
	}
	return cache.New(cache.NewMemory(cfg.CacheMaxEntries, cfg.CacheTTL))
}

// handleExtractError turns pipeline failures into actionable messages.
func handleExtractError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Extraction failed")

	var extErr *extract.ExtractionError
	if errors.As(err, &extErr) {
		switch extErr.Kind {
		case extract.KindUnsupportedFormat:
			return fmt.Errorf("%s. Supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP", extErr.Message)
		case extract.KindRecognitionTimeout:
			return fmt.Errorf("%s. Try increasing --timeout or retaking a sharper photo", extErr.Message)
		case extract.KindLanguageUnsupported:
			return fmt.Errorf("%s. Install the ara and eng tesseract language packs", extErr.Message)
		default:
			return fmt.Errorf("%s", extErr.Message)
		}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("extraction was canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("extraction timed out. Try increasing --timeout")
	default:
		return fmt.Errorf("extraction failed: %w", err)
	}
}

// writeResult renders the result as JSON or readable text.
func writeResult(result *models.ExtractionResult, outputPath string, jsonOutput bool, log zerolog.Logger) error {
	var outputData []byte

	if jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal JSON output")
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		outputData = data
	} else {
		var output strings.Builder
		output.WriteString(fmt.Sprintf("Primary language: %s (confidence %.1f, %d words)\n",
			result.Primary.Language, result.Primary.Confidence, result.Primary.WordCount))
		output.WriteString(fmt.Sprintf("Quality: %s\n", result.QualityTier))
		output.WriteString(fmt.Sprintf("Content: %s\n", result.ContentType))
		for _, suggestion := range result.Suggestions {
			output.WriteString(fmt.Sprintf("Suggestion: %s\n", suggestion))
		}
		if result.CombinedText == "" {
			output.WriteString("\nNo readable text found.\n")
		} else {
			output.WriteString("\n" + result.CombinedText + "\n")
		}
		outputData = []byte(output.String())
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
			log.Error().Err(err).Str("output_file", outputPath).Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(outputData)).
			Msg("Extraction result written to file")
		return nil
	}

	if _, err := os.Stdout.Write(outputData); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if jsonOutput {
		fmt.Println()
	}
	return nil
}
