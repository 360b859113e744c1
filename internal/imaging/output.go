package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// jpegQuality is used for every JPEG written by Save.
const jpegQuality = 95

// EncoderFor picks an encoder from the file extension of name.
// Supported: .png, .jpg/.jpeg, .bmp.
func EncoderFor(name string) (imgio.Encoder, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return imgio.PNGEncoder(), nil
	case ".jpg", ".jpeg":
		return imgio.JPEGEncoder(jpegQuality), nil
	case ".bmp":
		return imgio.BMPEncoder(), nil
	default:
		return nil, fmt.Errorf("unsupported output extension %q (want .png, .jpg or .bmp)", filepath.Ext(name))
	}
}

// Save writes img to path, choosing the encoder from the extension. An
// existing file is overwritten.
func Save(path string, img image.Image) error {
	enc, err := EncoderFor(path)
	if err != nil {
		return err
	}
	if err := imgio.Save(path, img, enc); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// MaskImage returns mask ready for encoding with the requested channel
// count: 1 keeps the grayscale mask, 3 replicates it into an opaque colour
// image (encoded as RGB by the PNG writer).
func MaskImage(mask *image.Gray, channels int) (image.Image, error) {
	switch channels {
	case 1:
		return mask, nil
	case 3:
		return imaging.Clone(mask), nil
	default:
		return nil, fmt.Errorf("unsupported channel count %d (want 1 or 3)", channels)
	}
}

// ParseColor parses a hex colour such as "#FF0000" or "ff0000".
func ParseColor(hex string) (colorful.Color, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return colorful.Color{}, fmt.Errorf("empty color string")
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c, nil
}

// Overlay paints every edge pixel of mask over a copy of base in edgeColor.
// base is typically the analysed image; it is resampled to the mask bounds
// when the sizes differ. Non-edge pixels are dimmed towards black so the
// edges stand out.
func Overlay(base image.Image, mask *image.Gray, edgeColor colorful.Color) *image.NRGBA {
	mb := mask.Bounds()
	src := base
	if base.Bounds().Dx() != mb.Dx() || base.Bounds().Dy() != mb.Dy() {
		src = imaging.Resize(base, mb.Dx(), mb.Dy(), imaging.Lanczos)
	}
	out := imaging.Clone(src)

	black := colorful.Color{}
	r, g, b := edgeColor.RGB255()
	paint := color.NRGBA{R: r, G: g, B: b, A: 255}

	ob := out.Bounds()
	for y := 0; y < mb.Dy(); y++ {
		for x := 0; x < mb.Dx(); x++ {
			ox, oy := ob.Min.X+x, ob.Min.Y+y
			if mask.GrayAt(mb.Min.X+x, mb.Min.Y+y).Y != 0 {
				out.SetNRGBA(ox, oy, paint)
				continue
			}
			px := out.NRGBAAt(ox, oy)
			c, ok := colorful.MakeColor(color.NRGBA{R: px.R, G: px.G, B: px.B, A: 255})
			if !ok {
				continue
			}
			dr, dg, db := c.BlendRgb(black, 0.5).Clamped().RGB255()
			out.SetNRGBA(ox, oy, color.NRGBA{R: dr, G: dg, B: db, A: px.A})
		}
	}
	return out
}

// EncodePNGBase64 encodes img as PNG and returns it base64-encoded.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
