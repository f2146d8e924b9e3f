// Package imaging prepares raw homework photos for text recognition.
//
// The normalizer decodes the uploaded bytes, converts to grayscale, reduces
// sensor noise and binarizes with an automatically chosen threshold. Homework
// photos vary widely in lighting, so the threshold comes from the image
// histogram (Otsu's method) rather than a fixed value.
//
// Normalization never fails: every step is independently skippable, and when
// a step cannot run the pipeline proceeds with the previous image. The
// degradation is recorded in the Outcome and logged by the caller, never
// surfaced as an error.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxDimension caps the longer image side before recognition.
// Phone photos above this size slow recognition without improving accuracy.
const DefaultMaxDimension = 2048

// Outcome is the result of normalizing one image. PNG always holds usable
// bytes: the fully processed image, or the original bytes when decoding
// failed.
type Outcome struct {
	PNG      []byte
	Degraded bool
	Notes    []string
}

type step struct {
	name string
	fn   func(*image.Gray) (*image.Gray, error)
}

// Normalizer applies the document-photo preprocessing pipeline.
// The zero value is not usable; construct with NewNormalizer.
type Normalizer struct {
	maxDimension int
	steps        []step
}

// NewNormalizer returns a Normalizer with the default step pipeline.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		maxDimension: DefaultMaxDimension,
		steps: []step{
			{name: "denoise", fn: medianDenoise},
			{name: "binarize", fn: otsuBinarize},
		},
	}
}

// Normalize prepares raw image bytes for recognition. It is deterministic:
// identical input bytes always produce identical output bytes.
func (n *Normalizer) Normalize(raw []byte) Outcome {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Outcome{
			PNG:      raw,
			Degraded: true,
			Notes:    []string{fmt.Sprintf("decode skipped: %v", err)},
		}
	}

	gray := toGray(n.scaleDown(img))

	out := Outcome{}
	for _, s := range n.steps {
		next, err := s.fn(gray)
		if err != nil {
			out.Degraded = true
			out.Notes = append(out.Notes, fmt.Sprintf("%s skipped: %v", s.name, err))
			continue
		}
		gray = next
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		out.Degraded = true
		out.Notes = append(out.Notes, fmt.Sprintf("encode skipped: %v", err))
		out.PNG = raw
		return out
	}
	out.PNG = buf.Bytes()
	return out
}

// scaleDown shrinks img so its longer side fits maxDimension, preserving
// aspect ratio. Images already within bounds pass through untouched.
func (n *Normalizer) scaleDown(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if n.maxDimension <= 0 || longest <= n.maxDimension {
		return img
	}

	scale := float64(n.maxDimension) / float64(longest)
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}

func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)).(color.Gray))
		}
	}
	return gray
}

// medianDenoise applies a 3x3 median filter, which removes salt-and-pepper
// noise from document photos while keeping stroke edges sharp.
func medianDenoise(img *image.Gray) (*image.Gray, error) {
	bounds := img.Bounds()
	if bounds.Dx() < 3 || bounds.Dy() < 3 {
		return nil, errors.New("image smaller than filter window")
	}

	out := image.NewGray(bounds)
	var window [9]uint8
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			k := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < bounds.Min.X {
						nx = bounds.Min.X
					}
					if nx >= bounds.Max.X {
						nx = bounds.Max.X - 1
					}
					if ny < bounds.Min.Y {
						ny = bounds.Min.Y
					}
					if ny >= bounds.Max.Y {
						ny = bounds.Max.Y - 1
					}
					window[k] = img.GrayAt(nx, ny).Y
					k++
				}
			}
			out.SetGray(x, y, color.Gray{Y: median9(window)})
		}
	}
	return out, nil
}

// median9 returns the median of nine values via insertion sort; the input is
// tiny enough that this beats allocating for sort.Slice per pixel.
func median9(v [9]uint8) uint8 {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j-1] > v[j]; j-- {
			v[j-1], v[j] = v[j], v[j-1]
		}
	}
	return v[4]
}

// otsuBinarize thresholds the image at the level that maximizes between-class
// variance of the histogram. A flat histogram has no such level, so the step
// reports an error and is skipped.
func otsuBinarize(img *image.Gray) (*image.Gray, error) {
	threshold, err := otsuThreshold(img)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.GrayAt(x, y).Y > threshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out, nil
}

func otsuThreshold(img *image.Gray) (uint8, error) {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0, errors.New("empty image")
	}

	var hist [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[img.GrayAt(x, y).Y]++
		}
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumBackground float64
	var weightBackground int
	var maxVariance float64
	var threshold int
	found := false

	for t := 0; t < 256; t++ {
		weightBackground += hist[t]
		if weightBackground == 0 {
			continue
		}
		weightForeground := total - weightBackground
		if weightForeground == 0 {
			break
		}

		sumBackground += float64(t) * float64(hist[t])
		meanBackground := sumBackground / float64(weightBackground)
		meanForeground := (sum - sumBackground) / float64(weightForeground)
		diff := meanBackground - meanForeground
		variance := float64(weightBackground) * float64(weightForeground) * diff * diff
		if variance > maxVariance {
			maxVariance = variance
			threshold = t
			found = true
		}
	}

	if !found {
		return 0, errors.New("flat histogram, no separable threshold")
	}
	return uint8(threshold), nil
}
