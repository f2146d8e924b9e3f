package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"hwocr/internal/classify"
	"hwocr/internal/config"
	"hwocr/internal/logger"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Classify text as mathematical, linguistic or mixed",
	Long: `Run the content classifier on already-extracted text.

Classification counts mathematical markers (operators, function names in
English and Arabic) in the text. Enough markers make the text mathematical;
enough markers alongside substantial prose make it mixed; otherwise it is
linguistic. Empty input is unknown.

Reads from stdin when no argument is given.`,
	Example: `  hwocr classify "solve x² + 5x + 6 = 0"

  cat extracted.txt | hwocr classify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("classify-cmd")

	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	classifier := classify.New(cfg.MinMathMarkers)
	contentType := classifier.Classify(text)

	log.Debug().
		Int("text_length", len(text)).
		Str("content_type", string(contentType)).
		Msg("Text classified")

	fmt.Println(string(contentType))
	return nil
}
