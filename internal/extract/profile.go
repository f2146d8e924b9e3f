package extract

import "fmt"

// LanguageProfile selects which script the recognition engine should
// optimize a pass for. Profiles are a fixed, ordered, process-wide set;
// their declaration order is the final tie-break when candidates are
// otherwise equal, which keeps results reproducible under any scheduling.
type LanguageProfile struct {
	// Tag is the stable identifier reported in results (e.g. "arabic").
	Tag string

	// Language is the trained-data code for local engines (e.g. "ara").
	Language string

	// Hints carries BCP-47 language hints for remote engines.
	Hints []string

	// Config is the opaque engine tuning for the normal pass.
	Config string

	// FastConfig is the lower-accuracy tuning used for the single retry
	// after a recognition timeout. Empty disables the retry.
	FastConfig string
}

// DefaultProfiles returns the shipped Arabic-then-English profile pair with
// the given Tesseract page segmentation mode. The fast configuration skips
// the inverted-text pass, trading a little accuracy for speed on the
// timeout retry.
func DefaultProfiles(pageSegMode int) []LanguageProfile {
	config := fmt.Sprintf("tessedit_pageseg_mode=%d", pageSegMode)
	fastConfig := config + ",tessedit_do_invert=0"
	return []LanguageProfile{
		{
			Tag:        "arabic",
			Language:   "ara",
			Hints:      []string{"ar"},
			Config:     config,
			FastConfig: fastConfig,
		},
		{
			Tag:        "english",
			Language:   "eng",
			Hints:      []string{"en"},
			Config:     config,
			FastConfig: fastConfig,
		},
	}
}
