// Package quality turns aggregate OCR confidence into a quality tier and
// human-facing suggestions for retaking the photo.
//
// The tier boundaries are an exact contract: downstream behavior branches on
// them, so they must not drift.
package quality

// Tier is the quality classification of an extraction candidate.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Tier thresholds over aggregate confidence in [0,100].
const (
	HighThreshold   = 80.0
	MediumThreshold = 50.0
)

// Score classifies an aggregate confidence value.
// high: confidence >= 80, medium: [50,80), low: < 50.
func Score(confidence float64) Tier {
	switch {
	case confidence >= HighThreshold:
		return TierHigh
	case confidence >= MediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// Suggestions returns advisory text for the given tier, in a fixed order.
// A high tier needs no suggestions and yields an empty slice.
func Suggestions(tier Tier) []string {
	switch tier {
	case TierLow:
		return []string{
			"Ensure the page is well lit and free of shadows",
			"Hold the camera directly above the page so all text is visible",
			"Avoid glare from overhead lights or windows",
		}
	case TierMedium:
		return []string{
			"Retake the photo at a higher resolution if possible",
			"Keep the camera steady to avoid motion blur",
		}
	default:
		return []string{}
	}
}
