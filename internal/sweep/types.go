package sweep

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyImage is returned when the source image is nil or has no pixels.
	ErrEmptyImage = errors.New("source image is empty")

	// ErrNoCases is returned when the sweep has nothing to run.
	ErrNoCases = errors.New("no threshold cases configured")

	// ErrNegativeThreshold is returned for any threshold below zero.
	ErrNegativeThreshold = errors.New("threshold must be non-negative")

	// ErrDetection wraps a failure of the edge detector for a single pair.
	ErrDetection = errors.New("edge detection failed")
)

// ThresholdPair is the (low, high) hysteresis pair handed to the detector.
type ThresholdPair struct {
	Low  float64 `json:"low" toml:"low"`
	High float64 `json:"high" toml:"high"`
}

// Ratio returns High/Low. A zero Low yields +Inf.
func (p ThresholdPair) Ratio() float64 {
	if p.Low == 0 {
		return math.Inf(1)
	}
	return p.High / p.Low
}

// Validate reports whether both bounds are non-negative. Low > High is allowed.
func (p ThresholdPair) Validate() error {
	if p.Low < 0 || p.High < 0 || math.IsNaN(p.Low) || math.IsNaN(p.High) {
		return fmt.Errorf("pair (%g, %g): %w", p.Low, p.High, ErrNegativeThreshold)
	}
	return nil
}

func (p ThresholdPair) String() string {
	return fmt.Sprintf("(%g, %g)", p.Low, p.High)
}

// Case is one entry of the sweep: a threshold pair plus the human-facing
// label and the expected effect.
type Case struct {
	Pair        ThresholdPair `json:"pair"`
	Label       string        `json:"label,omitempty"`
	Description string        `json:"description,omitempty"`
}

// EdgeResult is the outcome of running the detector for one Case.
type EdgeResult struct {
	// Index is the 1-based position of the case in the sweep input.
	Index int `json:"index"`

	Case Case `json:"case"`

	// Mask is the binary edge image (0 or 255). Same bounds as the input.
	Mask *image.Gray `json:"-"`

	EdgePixels  int `json:"edge_pixels"`
	TotalPixels int `json:"total_pixels"`

	// Density is EdgePixels / TotalPixels * 100.
	Density float64 `json:"density"`
}

// Report holds every EdgeResult of one sweep in input order.
type Report struct {
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Results []EdgeResult `json:"results"`
}

// Ranked returns a copy of the results sorted by density ascending. Results
// with equal density keep their input order. The receiver is not modified.
func (r *Report) Ranked() []EdgeResult {
	ranked := make([]EdgeResult, len(r.Results))
	copy(ranked, r.Results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Density < ranked[j].Density
	})
	return ranked
}

// Densities returns the density of every result in input order.
func (r *Report) Densities() []float64 {
	out := make([]float64, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Density
	}
	return out
}

// Summary aggregates edge densities across a sweep.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary computes density statistics. StdDev is the sample standard
// deviation and is zero for fewer than two results.
func (r *Report) Summary() Summary {
	d := r.Densities()
	if len(d) == 0 {
		return Summary{}
	}
	s := Summary{
		Count: len(d),
		Mean:  stat.Mean(d, nil),
		Min:   floats.Min(d),
		Max:   floats.Max(d),
	}
	// Rounding in the mean can land just outside [Min, Max] when every
	// density is equal.
	s.Mean = math.Min(math.Max(s.Mean, s.Min), s.Max)
	if len(d) > 1 {
		s.StdDev = stat.StdDev(d, nil)
	}
	return s
}
