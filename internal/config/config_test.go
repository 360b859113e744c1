package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/edge-sweep/internal/report"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultSource, cfg.Source)
	assert.Equal(t, 3, cfg.Output.Channels)
	assert.True(t, cfg.Output.SaveOriginal)
	assert.Equal(t, report.DefaultNameTemplate, cfg.Output.NameTemplate)

	cases := cfg.SweepCases()
	require.Len(t, cases, 7)

	want := [][2]float64{{25, 50}, {50, 100}, {100, 200}, {150, 300}, {200, 400}, {100, 120}, {50, 300}}
	for i, w := range want {
		assert.Equal(t, w[0], cases[i].Pair.Low, "case %d low", i+1)
		assert.Equal(t, w[1], cases[i].Pair.High, "case %d high", i+1)
		assert.NotEmpty(t, cases[i].Label)
	}
}

func TestDefaultIsFresh(t *testing.T) {
	a := Default()
	a.Cases[0].Low = 999
	b := Default()
	assert.Equal(t, 25.0, b.Cases[0].Low)
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "sweep.toml", `
source = "photo.png"
max_dimension = 512
commentary = false

[detector]
name = "canny"
blur = false

[output]
dir = "out"
channels = 1
name_template = "{{.Index}}_{{.Label}}.png"

[[cases]]
low = 10
high = 20
label = "tiny"

[[cases]]
low = 30.5
high = 61
label = "fractional"
description = "non-integer low threshold"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "photo.png", cfg.Source)
	assert.Equal(t, 512, cfg.MaxDimension)
	assert.False(t, cfg.Commentary)
	assert.False(t, cfg.Detector.Blur)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, 1, cfg.Output.Channels)
	require.Len(t, cfg.Cases, 2)
	assert.Equal(t, 30.5, cfg.Cases[1].Low)
	assert.Equal(t, "non-integer low threshold", cfg.Cases[1].Description)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, 30, cfg.FetchTimeoutSeconds)
	assert.True(t, cfg.Output.SaveOriginal)
	assert.Equal(t, "0_original.png", cfg.Output.OriginalName)

	require.NoError(t, cfg.Validate())
}

func TestLoadKeepsDefaultCases(t *testing.T) {
	path := writeFile(t, "sweep.toml", "source = \"photo.jpg\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Cases, 7)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := writeFile(t, "bad.toml", "source = [unterminated\n")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvSource, "https://example.com/a.png")
	t.Setenv(EnvOutputDir, "/tmp/edges")
	t.Setenv(EnvDetector, "opencv")
	t.Setenv(EnvLogLevel, "debug")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "https://example.com/a.png", cfg.Source)
	assert.Equal(t, "/tmp/edges", cfg.Output.Dir)
	assert.Equal(t, "opencv", cfg.Detector.Name)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestApplyEnvIgnoresEmpty(t *testing.T) {
	t.Setenv(EnvSource, "  ")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, DefaultSource, cfg.Source)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "EDGE_SWEEP_OUTPUT_DIR=from-dotenv\nEDGE_SWEEP_LOG_LEVEL=warn\n")

	// Set first so the restore on cleanup covers variables godotenv writes.
	t.Setenv(EnvOutputDir, "")
	t.Setenv(EnvLogLevel, "error")
	require.NoError(t, os.Unsetenv(EnvOutputDir))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv(EnvOutputDir))
	assert.Equal(t, "error", os.Getenv(EnvLogLevel), "existing variables are not overridden")

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "none.env")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty source", func(c *Config) { c.Source = "" }},
		{"zero timeout", func(c *Config) { c.FetchTimeoutSeconds = 0 }},
		{"negative max dimension", func(c *Config) { c.MaxDimension = -1 }},
		{"no cases", func(c *Config) { c.Cases = nil }},
		{"negative threshold", func(c *Config) { c.Cases[2].Low = -5 }},
		{"unknown detector", func(c *Config) { c.Detector.Name = "sobel" }},
		{"bad channels", func(c *Config) { c.Output.Channels = 4 }},
		{"negative save limit", func(c *Config) { c.Output.SaveLimit = -1 }},
		{"bad template", func(c *Config) { c.Output.NameTemplate = "{{.Index" }},
		{"unknown extension", func(c *Config) { c.Output.NameTemplate = "{{.Index}}.gif" }},
		{"bad overlay color", func(c *Config) { c.Output.OverlayColor = "not-a-color" }},
		{"colliding names", func(c *Config) {
			c.Output.NameTemplate = "{{.Label}}.png"
			c.Cases[1].Label = c.Cases[0].Label
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestValidateAllowsInvertedPair(t *testing.T) {
	cfg := Default()
	cfg.Cases = []CaseConfig{{Low: 200, High: 100, Label: "inverted"}}
	assert.NoError(t, cfg.Validate())
}

func TestValidateAcceptsOpenCVName(t *testing.T) {
	cfg := Default()
	cfg.Detector.Name = "OpenCV"
	assert.NoError(t, cfg.Validate())
}

func TestReportOptions(t *testing.T) {
	cfg := Default()
	cfg.Output.SaveLimit = 2
	cfg.Output.OverlayColor = "#ff0000"

	opts := cfg.ReportOptions()
	assert.Equal(t, 2, opts.SaveLimit)
	assert.Equal(t, "#ff0000", opts.OverlayColor)
	assert.Equal(t, cfg.Output.Dir, opts.OutputDir)
	assert.True(t, opts.Commentary)
}
