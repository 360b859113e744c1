package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

var (
	// ErrFetch is returned when a remote image cannot be retrieved.
	ErrFetch = errors.New("failed to fetch image")

	// ErrDecode is returned when image bytes cannot be decoded.
	ErrDecode = errors.New("failed to decode image")
)

// DefaultFetchTimeout bounds a single HTTP image download.
const DefaultFetchTimeout = 30 * time.Second

// maxDownloadBytes caps remote images at 64 MiB. Variable for tests.
var maxDownloadBytes int64 = 64 << 20

// Source produces one decoded image.
//
// Load returns the image and the format name reported by the decoder
// ("png", "jpeg", "gif", "bmp", "tiff", "webp").
type Source interface {
	Load(ctx context.Context) (image.Image, string, error)
}

// FileSource reads an image from the local filesystem.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(ctx context.Context) (image.Image, string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%w %s: %v", ErrDecode, s.Path, err)
	}
	return img, format, nil
}

// HTTPSource downloads an image over HTTP(S).
type HTTPSource struct {
	URL string

	// Client is used for the request. Nil means a client with
	// DefaultFetchTimeout.
	Client *http.Client
}

// Load implements Source. Any non-2xx status is an ErrFetch.
func (s HTTPSource) Load(ctx context.Context) (image.Image, string, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w %s: %v", ErrFetch, s.URL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w %s: %v", ErrFetch, s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w %s: unexpected status %s", ErrFetch, s.URL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w %s: %v", ErrFetch, s.URL, err)
	}
	if int64(len(body)) > maxDownloadBytes {
		return nil, "", fmt.Errorf("%w %s: image exceeds %d MiB", ErrFetch, s.URL, maxDownloadBytes>>20)
	}

	img, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("%w %s: %v", ErrDecode, s.URL, err)
	}
	return img, format, nil
}

// IsRemote reports whether location is an http or https URL.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// OpenSource returns an HTTPSource for http(s) URLs and a FileSource for
// everything else. A non-positive timeout selects DefaultFetchTimeout.
func OpenSource(location string, timeout time.Duration) Source {
	if IsRemote(location) {
		if timeout <= 0 {
			timeout = DefaultFetchTimeout
		}
		return HTTPSource{URL: location, Client: &http.Client{Timeout: timeout}}
	}
	return FileSource{Path: location}
}

// ImageCache provides thread-safe caching of loaded images to avoid redundant
// disk reads and downloads.
//
// Images are keyed by the exact location string passed to Load (a path or a
// URL). Different spellings of the same file produce separate entries.
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
type ImageCache struct {
	mu      sync.RWMutex
	images  map[string]cachedImage
	timeout time.Duration
}

type cachedImage struct {
	img    image.Image
	format string
}

// NewImageCache creates an empty cache whose downloads use timeout.
func NewImageCache(timeout time.Duration) *ImageCache {
	return &ImageCache{
		images:  make(map[string]cachedImage),
		timeout: timeout,
	}
}

// Load retrieves an image from the cache or loads it through OpenSource.
func (c *ImageCache) Load(ctx context.Context, location string) (image.Image, string, error) {
	c.mu.RLock()
	if ci, ok := c.images[location]; ok {
		c.mu.RUnlock()
		return ci.img, ci.format, nil
	}
	c.mu.RUnlock()

	img, format, err := OpenSource(location, c.timeout).Load(ctx)
	if err != nil {
		return nil, "", err
	}

	c.mu.Lock()
	c.images[location] = cachedImage{img: img, format: format}
	c.mu.Unlock()

	return img, format, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]cachedImage)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache. Unknown locations are ignored.
func (c *ImageCache) Evict(location string) {
	c.mu.Lock()
	delete(c.images, location)
	c.mu.Unlock()
}

// Info describes a decoded image.
type Info struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Channels is 1 for grayscale, 3 for colour and 4 for colour with alpha.
	Channels int `json:"channels"`

	// Format is the decoder name, or "unknown" when not known.
	Format string `json:"format"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// TotalPixels is Width * Height.
	TotalPixels int `json:"total_pixels"`
}

// Describe returns the Info of img. Grayscale types report one channel;
// colour images report four only when some pixel is not fully opaque, so an
// RGB PNG decoded into *image.RGBA still counts as three channels.
func Describe(img image.Image, format string) Info {
	if format == "" {
		format = "unknown"
	}
	b := img.Bounds()

	channels := 3
	hasAlpha := false
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		channels = 1
	case interface{ Opaque() bool }:
		if !m.Opaque() {
			channels = 4
			hasAlpha = true
		}
	}

	return Info{
		Width:       b.Dx(),
		Height:      b.Dy(),
		Channels:    channels,
		Format:      format,
		HasAlpha:    hasAlpha,
		TotalPixels: b.Dx() * b.Dy(),
	}
}
