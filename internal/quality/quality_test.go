package quality

import "testing"

func TestScoreBoundaries(t *testing.T) {
	tests := []struct {
		confidence float64
		want       Tier
	}{
		{0, TierLow},
		{49.999, TierLow},
		{50.0, TierMedium},
		{79.999, TierMedium},
		{80.0, TierHigh},
		{100, TierHigh},
	}

	for _, tt := range tests {
		if got := Score(tt.confidence); got != tt.want {
			t.Errorf("Score(%v) = %q, want %q", tt.confidence, got, tt.want)
		}
	}
}

func TestSuggestions(t *testing.T) {
	if got := Suggestions(TierHigh); len(got) != 0 {
		t.Errorf("expected no suggestions for high tier, got %v", got)
	}
	if got := Suggestions(TierLow); len(got) == 0 {
		t.Error("expected suggestions for low tier")
	}
	if got := Suggestions(TierMedium); len(got) == 0 {
		t.Error("expected suggestions for medium tier")
	}

	// Low tier advice targets lighting problems, medium targets sharpness.
	low := Suggestions(TierLow)
	if low[0] != "Ensure the page is well lit and free of shadows" {
		t.Errorf("unexpected first low-tier suggestion: %q", low[0])
	}
}

func TestSuggestionsStableOrder(t *testing.T) {
	a := Suggestions(TierLow)
	b := Suggestions(TierLow)
	if len(a) != len(b) {
		t.Fatalf("suggestion count changed between calls: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("suggestion order changed at %d: %q vs %q", i, a[i], b[i])
		}
	}
}
