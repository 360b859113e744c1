// Package sweep runs one edge detector across a list of threshold pairs and
// collects per-pair edge statistics.
//
// The controller validates its input, invokes the Detector once per Case in
// input order, counts non-zero mask samples and computes edge density as a
// percentage of the total pixel count. It never
// mutates the source image and it never re-orders results; ranking is a view
// produced by Report.Ranked.
//
// # Error Handling
//
// The sweep fails fast. The first detector error aborts the run and is
// returned wrapped in ErrDetection; no partial Report is produced.
//
// # Threshold Pairs
//
// Thresholds are non-negative gradient magnitudes on the 0-255 intensity
// scale. A pair with Low > High is accepted and simply yields a degenerate
// mask.
package sweep
