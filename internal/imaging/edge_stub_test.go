//go:build !gocv

package imaging

import (
	"errors"
	"testing"
)

func TestNewDetector_OpenCVUnavailable(t *testing.T) {
	d, err := NewDetector("opencv", false)
	if d != nil {
		t.Errorf("expected nil detector, got %#v", d)
	}
	if !errors.Is(err, ErrDetectorUnavailable) {
		t.Errorf("expected ErrDetectorUnavailable, got %v", err)
	}
}
