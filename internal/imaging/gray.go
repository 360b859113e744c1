package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// BT.601 luma weights, as used by OpenCV's BGR2GRAY.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// ToGray reduces img to a single 8-bit channel using BT.601 luma weights.
// A *image.Gray input is returned unchanged; callers must treat the result
// as read-only. The result keeps the bounds of img.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	// bild returns a zero-origin RGBA with the luma replicated in R, G and B.
	rgba := effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB)
	b := img.Bounds()
	rb := rgba.Bounds()
	out := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		src := rgba.Pix[rgba.PixOffset(rb.Min.X, rb.Min.Y+y):]
		dst := out.Pix[out.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			dst[x] = src[x*4]
		}
	}
	return out
}

// FitWithin downscales img so that neither side exceeds maxDim, preserving
// the aspect ratio. Images already within bounds, and maxDim <= 0, return img
// itself.
func FitWithin(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}
