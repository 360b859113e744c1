package report

import (
	"fmt"
	"io"

	"github.com/ironsheep/edge-sweep/internal/sweep"
)

// standardPair is the pair most tutorials and ControlNet pipelines start from.
var standardPair = sweep.ThresholdPair{Low: 100, High: 200}

// ReferencePair picks the pair the commentary is illustrated with: the
// standard (100, 200) pair when it is part of the sweep, otherwise the first
// case. An empty sweep falls back to the standard pair.
func ReferencePair(results []sweep.EdgeResult) sweep.ThresholdPair {
	for _, r := range results {
		if r.Case.Pair == standardPair {
			return standardPair
		}
	}
	if len(results) > 0 {
		return results[0].Case.Pair
	}
	return standardPair
}

// writeCommentary prints the fixed explanation of the Canny stages and the
// tuning guide. The ratio advice is informational only; nothing enforces it.
func writeCommentary(w io.Writer, ref sweep.ThresholdPair) {
	low, high := FormatThreshold(ref.Low), FormatThreshold(ref.High)

	fmt.Fprintf(w, "\n=== How Canny works ===\n")
	fmt.Fprintf(w, `
Step 1: Gaussian smoothing
- A 5x5 Gaussian kernel smooths the image
- Goal: reduce the influence of noise on the gradients

Step 2: Gradient computation
- Sobel operators compute the x and y gradients
- Magnitude: sqrt(Gx² + Gy²)
- Direction: atan2(Gy, Gx)

Step 3: Non-maximum suppression
- Only local maxima along the gradient direction are kept
- Goal: thin thick edges down to one pixel

Step 4: Double threshold
- High threshold (%[2]s): magnitude > %[2]s -> strong edge (kept)
- Low threshold (%[1]s): magnitude < %[1]s -> not an edge (discarded)
- In between: %[1]s < magnitude < %[2]s -> weak edge (pending)

Step 5: Edge tracking by hysteresis
- Weak edge pixels are kept only when connected to a strong edge
- Isolated weak pixels are discarded
- Edges stay continuous while noise is suppressed
`, low, high)

	fmt.Fprintf(w, "\n=== Tuning guide ===\n")
	fmt.Fprint(w, `
Low threshold (threshold1):
- Lower  -> more detail, possibly more noise
- Higher -> less noise, possibly missing detail

High threshold (threshold2):
- Lower  -> more edges count as strong
- Higher -> only the most obvious edges survive

Threshold ratio:
- Commonly recommended: high = 2 to 3 x low
- Too small (< 1.5): few weak edges get connected, edges break up
- Too large (> 4): noise may get connected, edge quality drops

Typical starting points:
- ControlNet image generation: (100, 200) - balance of detail and clarity
- Industrial inspection:       (150, 300) - clean edges only
- Artistic work:               (50, 150)  - keep texture and detail
- Medical imaging:             (80, 160)  - careful balance
- Noisy images:                (120, 240) - raise thresholds against noise
`)
}
