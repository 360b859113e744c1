package main

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/edge-sweep/internal/config"
	"github.com/ironsheep/edge-sweep/internal/imaging"
)

// isolateEnv blanks every variable the CLI reads.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvConfig, config.EnvSource, config.EnvOutputDir, config.EnvDetector, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
}

func writeTestImage(t *testing.T) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			if x >= 10 && x < 30 && y >= 8 && y < 22 {
				img.SetGray(x, y, color.Gray{Y: 230})
			}
		}
	}
	path := filepath.Join(t.TempDir(), "input.png")
	require.NoError(t, imaging.Save(path, img))
	return path
}

func TestRunVersion(t *testing.T) {
	for _, arg := range []string{"version", "--version", "-v"} {
		var out bytes.Buffer
		code := run([]string{arg}, &out, &bytes.Buffer{})
		assert.Equal(t, 0, code, arg)
		assert.Contains(t, out.String(), "edge-sweep "+Version, arg)
	}
}

func TestRunHelp(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 0, run([]string{"help"}, &out, &bytes.Buffer{}))
	assert.Contains(t, out.String(), "edge-sweep serve")
	assert.Contains(t, out.String(), config.EnvSource)
}

func TestRunSweep(t *testing.T) {
	isolateEnv(t)
	src := writeTestImage(t)
	outDir := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := run([]string{"-source", src, "-out", outDir}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Contains(t, stdout.String(), "=== Ranking by edge density")
	_, err := os.Stat(filepath.Join(outDir, "3_canny_100_200_standard.png"))
	assert.NoError(t, err)
}

func TestRunSweepWithConfigFile(t *testing.T) {
	isolateEnv(t)
	src := writeTestImage(t)
	outDir := t.TempDir()

	cfgPath := filepath.Join(t.TempDir(), "sweep.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
commentary = false

[output]
save_original = false
name_template = "{{.Index}}.png"

[[cases]]
low = 30
high = 90
label = "only"
`), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", cfgPath, "-source", src, "-out", outDir}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1.png", entries[0].Name())
}

func TestRunSweepFailures(t *testing.T) {
	isolateEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing source", []string{"-source", filepath.Join(t.TempDir(), "nope.png"), "-out", t.TempDir()}},
		{"unknown detector", []string{"-detector", "sobel"}},
		{"missing config", []string{"-config", filepath.Join(t.TempDir(), "nope.toml")}},
		{"unknown flag", []string{"-frobnicate"}},
		{"stray argument", []string{"extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			code := run(tt.args, &bytes.Buffer{}, &stderr)
			assert.Equal(t, 1, code)
			assert.NotEmpty(t, stderr.String())
		})
	}
}

func TestRunEnvOverride(t *testing.T) {
	isolateEnv(t)
	src := writeTestImage(t)
	outDir := t.TempDir()
	t.Setenv(config.EnvSource, src)
	t.Setenv(config.EnvOutputDir, outDir)

	var stderr bytes.Buffer
	code := run(nil, &bytes.Buffer{}, &stderr)
	require.Equal(t, 0, code, stderr.String())

	_, err := os.Stat(filepath.Join(outDir, "0_original.png"))
	assert.NoError(t, err)
}

func TestInitLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := initLogger("debug", &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Debug logging enabled")
	assert.True(t, logger.IsLevelEnabled(logrus.DebugLevel))

	_, err = initLogger("loud", &buf)
	assert.Error(t, err)
}
