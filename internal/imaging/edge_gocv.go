//go:build gocv

package imaging

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/edge-sweep/internal/sweep"
)

// OpenCV runs cv2.Canny through gocv with OpenCV's defaults (aperture 3, L1
// gradient norm). Built only with the gocv tag, since it needs OpenCV 4
// headers and libraries at build time.
type OpenCV struct{}

func newOpenCVDetector() (sweep.Detector, error) {
	return OpenCV{}, nil
}

// Detect implements sweep.Detector.
func (OpenCV) Detect(img *image.Gray, pair sweep.ThresholdPair) (*image.Gray, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}

	// ImageGrayToMatGray reads Pix densely; sub-images need a compact copy.
	src, err := gocv.ImageGrayToMatGray(compactGray(img))
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to Mat: %w", err)
	}
	defer src.Close()

	edges := gocv.NewMat()
	defer edges.Close()

	if err := gocv.Canny(src, &edges, float32(pair.Low), float32(pair.High)); err != nil {
		return nil, fmt.Errorf("gocv canny: %w", err)
	}

	out, err := edges.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert Mat to image: %w", err)
	}
	gray, ok := out.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected mask type %T", out)
	}

	// Mats are always zero-origin; restore the source bounds.
	if gray.Rect != img.Rect {
		gray.Rect = img.Rect
	}
	return gray, nil
}
