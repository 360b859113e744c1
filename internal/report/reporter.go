package report

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ironsheep/edge-sweep/internal/imaging"
	"github.com/ironsheep/edge-sweep/internal/sweep"
)

// ErrPersist wraps any failure while writing output images.
var ErrPersist = errors.New("failed to persist output")

// Options control what the Reporter prints and writes.
type Options struct {
	// OutputDir receives every written file. Created if missing.
	OutputDir string

	// NameTemplate is a text/template for mask filenames; see NameData.
	NameTemplate string

	// Channels is 1 (grayscale) or 3 (RGB) for written masks.
	Channels int

	// SaveLimit writes only the first N masks in sweep order. 0 writes all.
	SaveLimit int

	// SaveOriginal also writes the source image as OriginalName.
	SaveOriginal bool
	OriginalName string

	// Commentary prints the algorithm walkthrough and tuning guide.
	Commentary bool

	// OverlayColor, when set, writes an extra overlay image per mask with
	// edges painted in this hex colour over the source image.
	OverlayColor  string
	OverlayPrefix string
}

// DefaultOptions returns options matching the complete demo: 3-channel PNG
// masks plus the original, with commentary.
func DefaultOptions() Options {
	return Options{
		OutputDir:     ".",
		NameTemplate:  DefaultNameTemplate,
		Channels:      3,
		SaveOriginal:  true,
		OriginalName:  "0_original.png",
		Commentary:    true,
		OverlayPrefix: "overlay_",
	}
}

// Reporter renders a sweep.Report to a writer and to image files.
type Reporter struct {
	out     io.Writer
	opts    Options
	namer   *Namer
	overlay *colorful.Color
	printer *message.Printer
	logger  logrus.FieldLogger
}

// New validates opts and returns a Reporter writing text to w.
func New(w io.Writer, opts Options, logger logrus.FieldLogger) (*Reporter, error) {
	if opts.Channels != 1 && opts.Channels != 3 {
		return nil, fmt.Errorf("channels must be 1 or 3, got %d", opts.Channels)
	}
	if opts.SaveLimit < 0 {
		return nil, fmt.Errorf("save limit must be >= 0, got %d", opts.SaveLimit)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.SaveOriginal {
		if opts.OriginalName == "" {
			opts.OriginalName = "0_original.png"
		}
		if _, err := imaging.EncoderFor(opts.OriginalName); err != nil {
			return nil, fmt.Errorf("original name: %w", err)
		}
	}

	namer, err := NewNamer(opts.NameTemplate)
	if err != nil {
		return nil, err
	}

	r := &Reporter{
		out:     w,
		opts:    opts,
		namer:   namer,
		printer: message.NewPrinter(language.English),
		logger:  logger,
	}

	if opts.OverlayColor != "" {
		c, err := imaging.ParseColor(opts.OverlayColor)
		if err != nil {
			return nil, fmt.Errorf("overlay color: %w", err)
		}
		r.overlay = &c
		if r.opts.OverlayPrefix == "" {
			r.opts.OverlayPrefix = "overlay_"
		}
	}

	if r.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		r.logger = l
	}
	return r, nil
}

// Namer returns the filename generator used by Persist.
func (r *Reporter) Namer() *Namer {
	return r.namer
}

// Render prints every section and persists the outputs, in order: header,
// per-result blocks, saved files, commentary, ranking, summary.
func (r *Reporter) Render(rep *sweep.Report, info imaging.Info, original image.Image) error {
	r.PrintHeader(info)
	fmt.Fprintf(r.out, "\n=== Edge detection per threshold pair ===\n")
	for _, res := range rep.Results {
		r.PrintResult(res)
	}

	if _, err := r.Persist(rep, original); err != nil {
		return err
	}

	if r.opts.Commentary {
		r.PrintCommentary(ReferencePair(rep.Results))
	}
	r.PrintRanking(rep)
	r.PrintSummary(rep)

	fmt.Fprintf(r.out, "\nDone. Compare the written images to see the visual effect of each pair.\n")
	return nil
}

// PrintHeader prints the analysed image's dimensions.
func (r *Reporter) PrintHeader(info imaging.Info) {
	fmt.Fprintf(r.out, "=== Canny edge detection parameter sweep ===\n\n")
	fmt.Fprintf(r.out, "Image size: %dx%d, %d channel(s), format %s\n", info.Width, info.Height, info.Channels, info.Format)
	r.printer.Fprintf(r.out, "Total pixels: %d\n", info.TotalPixels)
}

// PrintResult prints the statistics block of one result.
func (r *Reporter) PrintResult(res sweep.EdgeResult) {
	pair := res.Case.Pair
	fmt.Fprintf(r.out, "\n%d. Canny(image, %s, %s)", res.Index, FormatThreshold(pair.Low), FormatThreshold(pair.High))
	if res.Case.Label != "" {
		fmt.Fprintf(r.out, " - %s", res.Case.Label)
	}
	fmt.Fprintln(r.out)
	if res.Case.Description != "" {
		fmt.Fprintf(r.out, "   Expected: %s\n", res.Case.Description)
	}
	r.printer.Fprintf(r.out, "   - Total pixels: %d\n", res.TotalPixels)
	r.printer.Fprintf(r.out, "   - Edge pixels:  %d\n", res.EdgePixels)
	fmt.Fprintf(r.out, "   - Edge density: %.2f%%\n", res.Density)
	fmt.Fprintf(r.out, "   - Threshold ratio: %s\n", FormatRatio(pair.Ratio()))
}

// PrintCommentary prints the algorithm walkthrough illustrated with ref.
func (r *Reporter) PrintCommentary(ref sweep.ThresholdPair) {
	writeCommentary(r.out, ref)
}

// PrintRanking prints results sorted by density, sparsest first. rep is not
// modified.
func (r *Reporter) PrintRanking(rep *sweep.Report) {
	fmt.Fprintf(r.out, "\n=== Ranking by edge density (low to high) ===\n")
	for _, res := range rep.Ranked() {
		label := res.Case.Label
		if label == "" {
			label = fmt.Sprintf("case %d", res.Index)
		}
		fmt.Fprintf(r.out, "  %-15s (%3s,%3s): %5.2f%% edge density\n",
			label, FormatThreshold(res.Case.Pair.Low), FormatThreshold(res.Case.Pair.High), res.Density)
	}
}

// PrintSummary prints aggregate density statistics.
func (r *Reporter) PrintSummary(rep *sweep.Report) {
	s := rep.Summary()
	fmt.Fprintf(r.out, "\n=== Summary ===\n")
	fmt.Fprintf(r.out, "  Pairs:   %d\n", s.Count)
	fmt.Fprintf(r.out, "  Mean:    %.2f%%\n", s.Mean)
	fmt.Fprintf(r.out, "  Std dev: %.2f%%\n", s.StdDev)
	fmt.Fprintf(r.out, "  Range:   %.2f%% - %.2f%%\n", s.Min, s.Max)
}

// Persist writes the masks (and optional overlays and original) to
// OutputDir and returns the paths written, in order. Every name is planned
// and checked for collisions before anything is written. On a write failure
// the paths written so far are returned together with an error wrapping
// ErrPersist.
func (r *Reporter) Persist(rep *sweep.Report, original image.Image) ([]string, error) {
	results := rep.Results
	if r.opts.SaveLimit > 0 && r.opts.SaveLimit < len(results) {
		results = results[:r.opts.SaveLimit]
	}

	names, err := r.namer.Names(results)
	if err != nil {
		return nil, err
	}

	type output struct {
		name   string
		render func() (image.Image, error)
	}
	var plan []output
	if r.opts.SaveOriginal && original != nil {
		plan = append(plan, output{r.opts.OriginalName, func() (image.Image, error) { return original, nil }})
	}
	for i, res := range results {
		mask := res.Mask
		plan = append(plan, output{names[i], func() (image.Image, error) {
			return imaging.MaskImage(mask, r.opts.Channels)
		}})
		if r.overlay != nil && original != nil {
			plan = append(plan, output{r.opts.OverlayPrefix + names[i], func() (image.Image, error) {
				return imaging.Overlay(original, mask, *r.overlay), nil
			}})
		}
	}

	seen := make(map[string]bool, len(plan))
	for _, o := range plan {
		if seen[o.name] {
			return nil, fmt.Errorf("%w: %q is produced twice", ErrNameCollision, o.name)
		}
		seen[o.name] = true
	}
	if len(plan) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}

	fmt.Fprintf(r.out, "\n=== Writing images ===\n")
	written := make([]string, 0, len(plan))
	for _, o := range plan {
		img, err := o.render()
		if err != nil {
			return written, fmt.Errorf("%w: %s: %v", ErrPersist, o.name, err)
		}
		path := filepath.Join(r.opts.OutputDir, o.name)
		if err := imaging.Save(path, img); err != nil {
			return written, fmt.Errorf("%w: %v", ErrPersist, err)
		}
		written = append(written, path)
		fmt.Fprintf(r.out, "Saved: %s\n", path)
		r.logger.WithField("path", path).Debug("Image written")
	}

	r.logger.WithFields(logrus.Fields{
		"files":      len(written),
		"output_dir": r.opts.OutputDir,
	}).Info("Output images written")
	return written, nil
}

// FormatRatio prints a high/low ratio as "2.0:1", or "inf" for a zero low.
func FormatRatio(ratio float64) string {
	if math.IsInf(ratio, 0) || math.IsNaN(ratio) {
		return "inf"
	}
	return fmt.Sprintf("%.1f:1", ratio)
}
