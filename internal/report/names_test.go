package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/edge-sweep/internal/sweep"
)

func result(index int, low, high float64, label string) sweep.EdgeResult {
	return sweep.EdgeResult{
		Index: index,
		Case:  sweep.Case{Pair: sweep.ThresholdPair{Low: low, High: high}, Label: label},
	}
}

func TestNamer_Default(t *testing.T) {
	n, err := NewNamer("")
	require.NoError(t, err)

	name, err := n.Name(result(3, 100, 200, "standard thresholds"))
	require.NoError(t, err)
	assert.Equal(t, "3_canny_100_200_standard_thresholds.png", name)

	// Deterministic.
	again, _ := n.Name(result(3, 100, 200, "standard thresholds"))
	assert.Equal(t, name, again)
}

func TestNamer_Templates(t *testing.T) {
	tests := []struct {
		pattern string
		res     sweep.EdgeResult
		want    string
	}{
		{"edges_{{.Low}}_{{.High}}.png", result(1, 50, 100, ""), "edges_50_100.png"},
		{"canny_example_{{.Low}}_{{.High}}.png", result(2, 12.5, 37.5, "x"), "canny_example_12.5_37.5.png"},
		{"{{.Label}}.jpg", result(4, 1, 2, ""), "case4.jpg"},
		{"{{.Label}}.bmp", result(1, 1, 2, "a/b\\c d"), "abc_d.bmp"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			n, err := NewNamer(tt.pattern)
			require.NoError(t, err)
			got, err := n.Name(tt.res)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewNamer_Invalid(t *testing.T) {
	// Parse error, unknown field, unsupported format, path separator, no extension.
	for _, pattern := range []string{
		"{{.Low",
		"{{.Missing}}.png",
		"edges_{{.Low}}.gif",
		"out/{{.Low}}_{{.High}}.png",
		"{{.Low}}_{{.High}}",
	} {
		_, err := NewNamer(pattern)
		assert.Error(t, err, pattern)
	}
}

func TestNamer_Names_DistinctPairs(t *testing.T) {
	n, err := NewNamer("edges_{{.Low}}_{{.High}}.png")
	require.NoError(t, err)

	results := []sweep.EdgeResult{
		result(1, 50, 100, ""),
		result(2, 100, 200, ""),
		result(3, 100, 120, ""),
		result(4, 10, 100, ""),
	}
	names, err := n.Names(results)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, name := range names {
		assert.False(t, seen[name], "duplicate %s", name)
		seen[name] = true
	}
}

func TestNamer_Names_Collision(t *testing.T) {
	n, err := NewNamer("edges_{{.Low}}.png")
	require.NoError(t, err)

	_, err = n.Names([]sweep.EdgeResult{result(1, 50, 100, ""), result(2, 50, 300, "")})
	assert.ErrorIs(t, err, ErrNameCollision)
}

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "very_low", SanitizeLabel(" very low "))
	assert.Equal(t, "极低阈值", SanitizeLabel("极低阈值"))
	assert.Equal(t, "ab", SanitizeLabel("a/b"))
	assert.Equal(t, "", SanitizeLabel("   "))
}

func TestFormatThreshold(t *testing.T) {
	assert.Equal(t, "100", FormatThreshold(100))
	assert.Equal(t, "0", FormatThreshold(0))
	assert.Equal(t, "12.5", FormatThreshold(12.5))
}
