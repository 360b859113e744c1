//go:build !gocv

package imaging

import (
	"fmt"

	"github.com/ironsheep/edge-sweep/internal/sweep"
)

func newOpenCVDetector() (sweep.Detector, error) {
	return nil, fmt.Errorf("%s: rebuild with -tags gocv: %w", DetectorOpenCV, ErrDetectorUnavailable)
}
