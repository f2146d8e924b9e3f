package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// encodePNG renders a grayscale test image: white background with an
// optional dark rectangle, plus a sprinkling of brighter pixels so the
// histogram is not flat.
func encodePNG(t *testing.T, width, height int, withInk bool) []byte {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: 250})
		}
	}
	if withInk {
		for y := height / 4; y < height/2; y++ {
			for x := width / 4; x < width/2; x++ {
				img.SetGray(x, y, color.Gray{Y: 20})
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeDeterministic(t *testing.T) {
	n := NewNormalizer()
	raw := encodePNG(t, 64, 48, true)

	first := n.Normalize(raw)
	second := n.Normalize(raw)

	if !bytes.Equal(first.PNG, second.PNG) {
		t.Error("normalizing identical bytes produced different output")
	}
	if first.Degraded != second.Degraded {
		t.Error("degradation flag differed between identical runs")
	}
}

func TestNormalizeBinarizesInk(t *testing.T) {
	n := NewNormalizer()
	out := n.Normalize(encodePNG(t, 64, 48, true))

	if out.Degraded {
		t.Fatalf("unexpected degradation: %v", out.Notes)
	}

	img, err := png.Decode(bytes.NewReader(out.PNG))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("expected grayscale output, got %T", img)
	}

	// After Otsu thresholding every pixel is pure black or pure white.
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := gray.GrayAt(x, y).Y
			if v != 0 && v != 255 {
				t.Fatalf("pixel (%d,%d) = %d, expected 0 or 255", x, y, v)
			}
		}
	}
}

func TestNormalizeBlankImageDegrades(t *testing.T) {
	n := NewNormalizer()
	out := n.Normalize(encodePNG(t, 32, 32, false))

	// A uniform image has no separable threshold; the binarize step is
	// skipped but the outcome still carries a usable image.
	if len(out.PNG) == 0 {
		t.Fatal("expected non-empty output for blank image")
	}
	if _, err := png.Decode(bytes.NewReader(out.PNG)); err != nil {
		t.Errorf("blank-image output is not decodable: %v", err)
	}
}

func TestNormalizeUndecodableFallsBack(t *testing.T) {
	n := NewNormalizer()
	raw := []byte("definitely not an image")

	out := n.Normalize(raw)
	if !out.Degraded {
		t.Error("expected degraded outcome for undecodable input")
	}
	if !bytes.Equal(out.PNG, raw) {
		t.Error("undecodable input must pass through unchanged")
	}
	if len(out.Notes) == 0 {
		t.Error("expected a degradation note")
	}
}

func TestNormalizeForcedStepFailure(t *testing.T) {
	n := NewNormalizer()
	for i := range n.steps {
		name := n.steps[i].name
		n.steps[i].fn = func(*image.Gray) (*image.Gray, error) {
			return nil, errors.New("forced failure: " + name)
		}
	}

	out := n.Normalize(encodePNG(t, 64, 48, true))
	if len(out.PNG) == 0 {
		t.Fatal("normalizer must return an image even when every step fails")
	}
	if !out.Degraded {
		t.Error("expected degraded outcome when steps fail")
	}
	if len(out.Notes) != len(n.steps) {
		t.Errorf("expected %d degradation notes, got %d", len(n.steps), len(out.Notes))
	}
	if _, err := png.Decode(bytes.NewReader(out.PNG)); err != nil {
		t.Errorf("fallback output is not decodable: %v", err)
	}
}

func TestScaleDownCapsLongSide(t *testing.T) {
	n := NewNormalizer()
	n.maxDimension = 100

	img := image.NewGray(image.Rect(0, 0, 400, 200))
	scaled := n.scaleDown(img)
	b := scaled.Bounds()
	if b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("scaled to %dx%d, want 100x50", b.Dx(), b.Dy())
	}

	small := image.NewGray(image.Rect(0, 0, 80, 40))
	if got := n.scaleDown(small); got != small {
		t.Error("images within bounds must pass through untouched")
	}
}

func TestOtsuThresholdSeparatesClasses(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x < 5 {
				img.SetGray(x, y, color.Gray{Y: 30})
			} else {
				img.SetGray(x, y, color.Gray{Y: 220})
			}
		}
	}

	threshold, err := otsuThreshold(img)
	if err != nil {
		t.Fatalf("otsuThreshold: %v", err)
	}
	if threshold < 30 || threshold >= 220 {
		t.Errorf("threshold %d outside the gap between classes", threshold)
	}
}
