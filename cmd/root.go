package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"hwocr/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "hwocr",
	Short: "hwocr - bilingual homework OCR and content analysis",
	Long: `hwocr extracts text from photographed homework pages.

Each image is normalized, recognized under Arabic and English profiles in
parallel, and the best reading is selected deterministically. The result
carries a quality tier, retake suggestions for poor photos, and a content
classification (mathematical, linguistic or mixed).`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("hwocr executed")

		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
