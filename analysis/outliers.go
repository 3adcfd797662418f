// Package analysis flags folders that are unusually large compared to their
// siblings.
package analysis

import (
	"math"
	"slices"

	"github.com/riadafridishibly/foldersize/scanner"
)

// Options configures DetectLarge.
type Options struct {
	// Factor multiplies the interquartile range; 1.5 is the usual fence.
	Factor float64
	// MinItems is the smallest sample worth analysing.
	MinItems int
}

func DefaultOptions() Options {
	return Options{Factor: 1.5, MinItems: 5}
}

// DetectLarge returns the paths whose size is strictly above
// Q3 + Factor*(Q3-Q1). It returns an empty set when there are fewer than
// MinItems results or when the interquartile range is not positive.
func DetectLarge(results []scanner.Result, opts Options) map[string]struct{} {
	large := make(map[string]struct{})
	if len(results) == 0 || len(results) < opts.MinItems {
		return large
	}

	sizes := make([]float64, len(results))
	for i, r := range results {
		sizes[i] = float64(r.SizeBytes)
	}
	slices.Sort(sizes)

	q1 := Quantile(sizes, 0.25)
	q3 := Quantile(sizes, 0.75)
	iqr := q3 - q1
	if iqr <= 0 {
		return large
	}

	threshold := q3 + opts.Factor*iqr
	for _, r := range results {
		if float64(r.SizeBytes) > threshold {
			large[r.Path] = struct{}{}
		}
	}
	return large
}

// Quantile computes the q-th quantile of an ascending slice using linear
// interpolation between order statistics (Hyndman and Fan type 7, the
// default in R and numpy).
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	h := float64(n-1) * q
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	if lo < 0 {
		return sorted[0]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}
