// Package config holds the explicit configuration of an edge sweep: where
// the image comes from, which threshold pairs to run and how results are
// written.
//
// Values are layered: Default(), then an optional TOML file, then
// environment variables (a .env file in the working directory is honoured).
// Command-line flags are applied by the caller on top.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/ironsheep/edge-sweep/internal/imaging"
	"github.com/ironsheep/edge-sweep/internal/report"
	"github.com/ironsheep/edge-sweep/internal/sweep"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfig    = "EDGE_SWEEP_CONFIG"
	EnvSource    = "EDGE_SWEEP_SOURCE"
	EnvOutputDir = "EDGE_SWEEP_OUTPUT_DIR"
	EnvDetector  = "EDGE_SWEEP_DETECTOR"
	EnvLogLevel  = "EDGE_SWEEP_LOG_LEVEL"
)

// DefaultSource is the sample painting used by the original demos.
const DefaultSource = "https://hf.co/datasets/huggingface/documentation-images/resolve/main/diffusers/input_image_vermeer.png"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// CaseConfig is one [[cases]] entry.
type CaseConfig struct {
	Low         float64 `toml:"low"`
	High        float64 `toml:"high"`
	Label       string  `toml:"label"`
	Description string  `toml:"description"`
}

// OutputConfig is the [output] table.
type OutputConfig struct {
	Dir           string `toml:"dir"`
	NameTemplate  string `toml:"name_template"`
	Channels      int    `toml:"channels"`
	SaveLimit     int    `toml:"save_limit"`
	SaveOriginal  bool   `toml:"save_original"`
	OriginalName  string `toml:"original_name"`
	OverlayColor  string `toml:"overlay_color"`
	OverlayPrefix string `toml:"overlay_prefix"`
}

// DetectorConfig is the [detector] table.
type DetectorConfig struct {
	// Name is "canny" (pure Go) or "opencv" (requires the gocv build tag).
	Name string `toml:"name"`

	// Blur enables the Gaussian pre-filter of the pure-Go detector.
	Blur bool `toml:"blur"`
}

// Config is the full sweep configuration.
type Config struct {
	// Source is a local path or an http(s) URL.
	Source string `toml:"source"`

	// FetchTimeoutSeconds bounds the download of a remote Source.
	FetchTimeoutSeconds int `toml:"fetch_timeout_seconds"`

	// MaxDimension downscales larger images before analysis. 0 disables.
	MaxDimension int `toml:"max_dimension"`

	// Commentary prints the algorithm walkthrough.
	Commentary bool `toml:"commentary"`

	// LogLevel is a logrus level name.
	LogLevel string `toml:"log_level"`

	Detector DetectorConfig `toml:"detector"`
	Output   OutputConfig   `toml:"output"`
	Cases    []CaseConfig   `toml:"cases"`
}

// Default returns the configuration of the complete demo: the Vermeer sample,
// seven threshold pairs from very low to very high plus a narrow and a wide
// band, 3-channel PNG masks named by index, thresholds and label.
func Default() *Config {
	return &Config{
		Source:              DefaultSource,
		FetchTimeoutSeconds: 30,
		Commentary:          true,
		LogLevel:            "info",
		Detector: DetectorConfig{
			Name: imaging.DetectorCanny,
			Blur: true,
		},
		Output: OutputConfig{
			Dir:           ".",
			NameTemplate:  report.DefaultNameTemplate,
			Channels:      3,
			SaveOriginal:  true,
			OriginalName:  "0_original.png",
			OverlayPrefix: "overlay_",
		},
		Cases: []CaseConfig{
			{Low: 25, High: 50, Label: "very low", Description: "most edges, including lots of noise and texture"},
			{Low: 50, High: 100, Label: "low", Description: "many edges and details"},
			{Low: 100, High: 200, Label: "standard", Description: "balanced edge detection"},
			{Low: 150, High: 300, Label: "high", Description: "strong edges only"},
			{Low: 200, High: 400, Label: "very high", Description: "only the most obvious edges"},
			{Low: 100, High: 120, Label: "narrow band", Description: "very few weak edges get connected"},
			{Low: 50, High: 300, Label: "wide band", Description: "more weak edges are kept"},
		},
	}
}

// Load returns Default() overlaid with the TOML file at path. Keys missing
// from the file keep their default; a [[cases]] list replaces the default
// list entirely.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	defaultCases := cfg.Cases
	cfg.Cases = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if cfg.Cases == nil {
		cfg.Cases = defaultCases
	}
	return cfg, nil
}

// LoadDotEnv loads variables from .env files into the process environment
// without overriding variables already set. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from EDGE_SWEEP_* variables that are set and
// non-empty.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvSource)); v != "" {
		c.Source = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutputDir)); v != "" {
		c.Output.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDetector)); v != "" {
		c.Detector.Name = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
}

// FetchTimeout returns the download timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// SweepCases converts the configured cases into sweep input.
func (c *Config) SweepCases() []sweep.Case {
	out := make([]sweep.Case, len(c.Cases))
	for i, cc := range c.Cases {
		out[i] = sweep.Case{
			Pair:        sweep.ThresholdPair{Low: cc.Low, High: cc.High},
			Label:       cc.Label,
			Description: cc.Description,
		}
	}
	return out
}

// ReportOptions converts the output settings into report.Options.
func (c *Config) ReportOptions() report.Options {
	return report.Options{
		OutputDir:     c.Output.Dir,
		NameTemplate:  c.Output.NameTemplate,
		Channels:      c.Output.Channels,
		SaveLimit:     c.Output.SaveLimit,
		SaveOriginal:  c.Output.SaveOriginal,
		OriginalName:  c.Output.OriginalName,
		Commentary:    c.Commentary,
		OverlayColor:  c.Output.OverlayColor,
		OverlayPrefix: c.Output.OverlayPrefix,
	}
}

// Validate checks everything that can be checked before any I/O, including
// that the name template gives every configured case its own filename. The
// high/low ratio is not checked.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source) == "" {
		return fmt.Errorf("%w: source is empty", ErrInvalid)
	}
	if c.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: fetch_timeout_seconds must be > 0", ErrInvalid)
	}
	if c.MaxDimension < 0 {
		return fmt.Errorf("%w: max_dimension must be >= 0", ErrInvalid)
	}
	if len(c.Cases) == 0 {
		return fmt.Errorf("%w: at least one case is required", ErrInvalid)
	}

	cases := c.SweepCases()
	for i, tc := range cases {
		if err := tc.Pair.Validate(); err != nil {
			return fmt.Errorf("%w: case %d: %v", ErrInvalid, i+1, err)
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.Detector.Name)) {
	case "", imaging.DetectorCanny, imaging.DetectorOpenCV:
	default:
		return fmt.Errorf("%w: unknown detector %q", ErrInvalid, c.Detector.Name)
	}

	// report.New validates channels, limit, overlay colour and templates.
	rep, err := report.New(io.Discard, c.ReportOptions(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	results := make([]sweep.EdgeResult, len(cases))
	for i, tc := range cases {
		results[i] = sweep.EdgeResult{Index: i + 1, Case: tc}
	}
	if _, err := rep.Namer().Names(results); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
