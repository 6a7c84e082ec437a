package colour

import (
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// DefaultSampleCap bounds the number of pixels fed to the quantizer.
const DefaultSampleCap = 150_000

// Sample returns at most limit colours drawn uniformly at random without
// replacement from points. When points already fits within limit (or limit is
// not positive) the input slice is returned unchanged. Selected colours keep
// their original pixel order.
func Sample(points []RGB, limit int, src rand.Source) []RGB {
	if limit <= 0 || len(points) <= limit {
		return points
	}

	idxs := make([]int, limit)
	sampleuv.WithoutReplacement(idxs, len(points), src)
	slices.Sort(idxs)

	out := make([]RGB, limit)
	for i, idx := range idxs {
		out[i] = points[idx]
	}
	return out
}
