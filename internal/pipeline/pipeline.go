// Package pipeline wires an image source, an edge detector, the sweep
// controller and the reporter into one run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/edge-sweep/internal/config"
	"github.com/ironsheep/edge-sweep/internal/imaging"
	"github.com/ironsheep/edge-sweep/internal/report"
	"github.com/ironsheep/edge-sweep/internal/sweep"
)

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithSource replaces the source derived from the configuration.
func WithSource(src imaging.Source) Option {
	return func(p *Pipeline) {
		p.source = src
	}
}

// WithDetector replaces the detector named in the configuration.
func WithDetector(d sweep.Detector) Option {
	return func(p *Pipeline) {
		p.detector = d
	}
}

// Pipeline is a configured, ready-to-run sweep.
type Pipeline struct {
	cfg      *config.Config
	source   imaging.Source
	detector sweep.Detector
	reporter *report.Reporter
	logger   *logrus.Logger
}

// New validates cfg and builds every stage. Nothing is read or written until
// Run is called.
func New(cfg *config.Config, stdout io.Writer, logger *logrus.Logger, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	p := &Pipeline{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(p)
	}

	if p.source == nil {
		p.source = imaging.OpenSource(cfg.Source, cfg.FetchTimeout())
	}
	if p.detector == nil {
		d, err := imaging.NewDetector(cfg.Detector.Name, cfg.Detector.Blur)
		if err != nil {
			return nil, err
		}
		p.detector = d
	}

	rep, err := report.New(stdout, cfg.ReportOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	p.reporter = rep
	return p, nil
}

// Run loads the image, reduces it to grayscale, sweeps every configured
// threshold pair and renders the report. The first error aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*sweep.Report, error) {
	start := time.Now()
	log := p.logger.WithField("source", p.cfg.Source)

	img, format, err := p.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	info := imaging.Describe(img, format)
	log.WithFields(logrus.Fields{
		"width":    info.Width,
		"height":   info.Height,
		"channels": info.Channels,
		"format":   info.Format,
	}).Info("Image loaded")

	if p.cfg.MaxDimension > 0 {
		fitted := imaging.FitWithin(img, p.cfg.MaxDimension)
		if b := fitted.Bounds(); b.Size() != img.Bounds().Size() {
			log.WithFields(logrus.Fields{
				"width":  b.Dx(),
				"height": b.Dy(),
			}).Info("Image downscaled")
			img = fitted
			// Fit always returns NRGBA; the channel layout is the source's.
			fittedInfo := imaging.Describe(img, format)
			fittedInfo.Channels = info.Channels
			fittedInfo.HasAlpha = info.HasAlpha
			info = fittedInfo
		}
	}

	gray := imaging.ToGray(img)
	log.Debug("Grayscale conversion complete")

	cases := p.cfg.SweepCases()
	result, err := sweep.NewController(p.detector, log).Run(gray, cases)
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	log.WithField("pairs", len(result.Results)).Info("Sweep complete")

	if err := p.reporter.Render(result, info, img); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}

	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("Run finished")
	return result, nil
}
