package imaging

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/ironsheep/edge-sweep/internal/sweep"
)

// ErrDetectorUnavailable is returned by NewDetector for a backend that was not
// compiled into this binary.
var ErrDetectorUnavailable = errors.New("edge detector backend not available in this build")

// Detector names accepted by NewDetector.
const (
	DetectorCanny  = "canny"
	DetectorOpenCV = "opencv"
)

// NewDetector returns the named edge detector. An empty name selects the
// pure-Go Canny implementation. The blur flag only applies to it; OpenCV's
// Canny never pre-blurs.
func NewDetector(name string, blur bool) (sweep.Detector, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DetectorCanny:
		return Canny{Blur: blur}, nil
	case DetectorOpenCV:
		return newOpenCVDetector()
	default:
		return nil, fmt.Errorf("unknown edge detector %q", name)
	}
}

// Canny is a pure-Go Canny edge detector.
//
// Thresholds are compared against the L2 Sobel gradient magnitude computed
// on 0-255 intensities, the same scale cv2.Canny(img, low, high, L2gradient=True)
// uses, so threshold pairs tuned for OpenCV carry over.
//
// # Algorithm
//
//  1. Optional Gaussian blur: 5x5 kernel (sigma ≈ 1.4), clamped borders
//
//  2. Gradient computation: Sobel operators for X and Y gradients
//     magnitude = sqrt(Gx² + Gy²)
//     direction = atan2(Gy, Gx)
//
//  3. Non-maximum suppression: keep only local maxima along the gradient
//     direction, quantised to 0°, 45°, 90° and 135°
//
//  4. Double threshold: magnitude > High is strong, magnitude > Low is a
//     candidate, everything else is discarded
//
//  5. Hysteresis: candidates 8-connected (directly or through other
//     candidates) to a strong pixel are kept
//
// The output mask has the bounds of the input; edges are 255, the rest 0.
// Detection is deterministic.
type Canny struct {
	// Blur enables the 5x5 Gaussian pre-filter.
	Blur bool
}

// Detect implements sweep.Detector.
func (c Canny) Detect(img *image.Gray, pair sweep.ThresholdPair) (*image.Gray, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("image has no pixels: %v", bounds)
	}

	samples := make([]float64, width*height)
	for y := 0; y < height; y++ {
		off := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for x := 0; x < width; x++ {
			samples[y*width+x] = float64(img.Pix[off+x])
		}
	}

	if c.Blur {
		samples = gaussianBlur(samples, width, height)
	}

	magnitude, direction := sobel(samples, width, height)
	suppressed := nonMaxSuppress(magnitude, direction, width, height)
	edges := hysteresis(suppressed, width, height, pair.Low, pair.High)

	mask := image.NewGray(bounds)
	for y := 0; y < height; y++ {
		off := mask.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for x := 0; x < width; x++ {
			if edges[y*width+x] {
				mask.Pix[off+x] = 255
			}
		}
	}
	return mask, nil
}

// gaussianBlur applies a 5x5 Gaussian blur to reduce noise before edge detection.
//
// Uses a standard 5x5 Gaussian kernel with sigma ≈ 1.4:
//
//	1  4  7  4  1
//	4 16 26 16  4
//	7 26 41 26  7
//	4 16 26 16  4
//	1  4  7  4  1
//
// Total kernel sum = 273, used for normalization.
// Border pixels use clamped (replicated) edge values.
func gaussianBlur(src []float64, width, height int) []float64 {
	kernel := [5][5]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}
	const kernelSum = 273.0

	out := make([]float64, len(src))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum float64
			for ky := -2; ky <= 2; ky++ {
				py := clamp(y+ky, 0, height-1)
				for kx := -2; kx <= 2; kx++ {
					px := clamp(x+kx, 0, width-1)
					sum += src[py*width+px] * kernel[ky+2][kx+2]
				}
			}
			out[y*width+x] = sum / kernelSum
		}
	}
	return out
}

// sobel returns the L2 gradient magnitude and direction of every sample.
func sobel(src []float64, width, height int) (magnitude, direction []float64) {
	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	magnitude = make([]float64, len(src))
	direction = make([]float64, len(src))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				py := clamp(y+ky, 0, height-1)
				for kx := -1; kx <= 1; kx++ {
					px := clamp(x+kx, 0, width-1)
					v := src[py*width+px]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			i := y*width + x
			magnitude[i] = math.Hypot(gx, gy)
			direction[i] = math.Atan2(gy, gx)
		}
	}
	return magnitude, direction
}

// nonMaxSuppress thins edges to one pixel. Border pixels are always dropped.
// Ties are broken towards the lower/left neighbour so that plateaus of equal
// magnitude keep a single pixel instead of two.
func nonMaxSuppress(magnitude, direction []float64, width, height int) []float64 {
	out := make([]float64, len(magnitude))
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag == 0 {
				continue
			}

			angle := direction[i]
			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			default:
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			}

			if mag > n1 && mag >= n2 {
				out[i] = mag
			}
		}
	}
	return out
}

// hysteresis keeps every candidate (> low) connected to a strong pixel (> high).
// With low > high only pixels above low survive.
func hysteresis(suppressed []float64, width, height int, low, high float64) []bool {
	edges := make([]bool, len(suppressed))
	stack := make([]int, 0, 64)

	for i, v := range suppressed {
		if v > low && v > high && !edges[i] {
			edges[i] = true
			stack = append(stack, i)
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			ny := y + dy
			if ny < 0 || ny >= height {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				nx := x + dx
				if (dx == 0 && dy == 0) || nx < 0 || nx >= width {
					continue
				}
				j := ny*width + nx
				if !edges[j] && suppressed[j] > low {
					edges[j] = true
					stack = append(stack, j)
				}
			}
		}
	}
	return edges
}

// compactGray returns img itself when it is zero-origin with Stride equal to
// its width, and otherwise a zero-origin copy with that layout. Consumers
// that read Pix as a dense width*height buffer need this.
func compactGray(img *image.Gray) *image.Gray {
	b := img.Bounds()
	if b.Min == (image.Point{}) && img.Stride == b.Dx() {
		return img
	}
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
