package sweep

import (
	"fmt"
	"image"
	"io"

	"github.com/sirupsen/logrus"
)

// Detector turns a single-channel image into a binary edge mask for one
// threshold pair. Implementations must not modify img.
type Detector interface {
	Detect(img *image.Gray, pair ThresholdPair) (*image.Gray, error)
}

// DetectorFunc adapts a plain function to the Detector interface.
type DetectorFunc func(img *image.Gray, pair ThresholdPair) (*image.Gray, error)

// Detect calls f(img, pair).
func (f DetectorFunc) Detect(img *image.Gray, pair ThresholdPair) (*image.Gray, error) {
	return f(img, pair)
}

// Controller runs a Detector across a list of cases.
type Controller struct {
	detector Detector
	logger   logrus.FieldLogger
}

// NewController returns a controller using d. A nil logger discards output.
func NewController(d Detector, logger logrus.FieldLogger) *Controller {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Controller{detector: d, logger: logger}
}

// Run invokes the detector once per case, in order, and returns one
// EdgeResult per case. The first failure aborts the sweep.
func (c *Controller) Run(img *image.Gray, cases []Case) (*Report, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if len(cases) == 0 {
		return nil, ErrNoCases
	}
	for _, tc := range cases {
		if err := tc.Pair.Validate(); err != nil {
			return nil, err
		}
	}

	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	report := &Report{
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Results: make([]EdgeResult, 0, len(cases)),
	}

	for i, tc := range cases {
		mask, err := c.detector.Detect(img, tc.Pair)
		if err != nil {
			return nil, fmt.Errorf("%w for pair %s: %v", ErrDetection, tc.Pair, err)
		}
		if mask == nil || mask.Bounds() != bounds {
			return nil, fmt.Errorf("%w for pair %s: mask bounds do not match source", ErrDetection, tc.Pair)
		}

		edges := CountEdgePixels(mask)
		res := EdgeResult{
			Index:       i + 1,
			Case:        tc,
			Mask:        mask,
			EdgePixels:  edges,
			TotalPixels: total,
			Density:     float64(edges) / float64(total) * 100,
		}
		report.Results = append(report.Results, res)

		c.logger.WithFields(logrus.Fields{
			"low":         tc.Pair.Low,
			"high":        tc.Pair.High,
			"edge_pixels": edges,
			"density":     res.Density,
		}).Debug("Threshold pair processed")
	}

	return report, nil
}

// CountEdgePixels returns the number of non-zero samples in mask.
func CountEdgePixels(mask *image.Gray) int {
	if mask == nil {
		return 0
	}
	b := mask.Bounds()
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, y) : mask.PixOffset(b.Min.X, y)+b.Dx()]
		for _, v := range row {
			if v != 0 {
				n++
			}
		}
	}
	return n
}
