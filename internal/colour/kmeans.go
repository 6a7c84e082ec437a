package colour

import (
	"context"
	"math"
	"math/rand/v2"
)

const (
	// DefaultMaxIterations caps Lloyd iterations per run.
	DefaultMaxIterations = 300

	// DefaultRestarts is the number of independent k-means runs.
	DefaultRestarts = 1

	// DefaultSeed matches the seed the service has always used.
	DefaultSeed int64 = 42

	// quantizerStream separates the quantizer's PCG stream from the sampler's.
	quantizerStream = 0x6b6d65616e73
)

// ClusterSet is the result of quantisation.
type ClusterSet struct {
	// Centers holds one rounded centroid per cluster.
	Centers []RGB
	// Labels assigns every input sample to an index into Centers.
	Labels []int
	// Inertia is the weighted sum of squared distances to the assigned centroid.
	Inertia float64
	// Iterations is the number of Lloyd iterations of the winning run.
	Iterations int
	// Converged reports whether the winning run reached stable assignments.
	Converged bool
}

// K returns the effective number of clusters.
func (cs ClusterSet) K() int {
	return len(cs.Centers)
}

// Quantizer partitions colours with Lloyd's k-means, seeded with greedy k-means++.
type Quantizer struct {
	// K is the requested number of clusters. Values below 1 are treated as 1.
	K int
	// MaxIterations caps Lloyd iterations per run.
	MaxIterations int
	// Restarts is the number of runs; the lowest inertia wins.
	Restarts int
	// Seed drives initialisation. The same seed and input give the same result.
	Seed int64
}

// NewQuantizer creates a Quantizer with default iteration and restart settings.
func NewQuantizer(k int, seed int64) *Quantizer {
	return &Quantizer{
		K:             k,
		MaxIterations: DefaultMaxIterations,
		Restarts:      DefaultRestarts,
		Seed:          seed,
	}
}

// point3D represents a point in 3D RGB colour space.
type point3D struct {
	R, G, B float64
}

// distanceSq returns the squared Euclidean distance between two points.
func (p point3D) distanceSq(other point3D) float64 {
	dr := p.R - other.R
	dg := p.G - other.G
	db := p.B - other.B
	return dr*dr + dg*dg + db*db
}

// kmeansRun is the state of one k-means run over distinct colours.
type kmeansRun struct {
	centroids  []point3D
	labels     []int
	inertia    float64
	iterations int
	converged  bool
}

// Quantize clusters samples into min(K, distinct colours) groups.
// Clusters are numbered in the order their first sample appears, so equal-sized
// clusters rank by position in the input. An empty sample yields an empty ClusterSet. When ctx is done the current run
// stops after its iteration and the best result so far is returned.
func (q *Quantizer) Quantize(ctx context.Context, samples []RGB) ClusterSet {
	if len(samples) == 0 {
		return ClusterSet{Centers: []RGB{}, Labels: []int{}}
	}

	// Identical samples always share a cluster, so cluster the distinct colours
	// weighted by how often they occur.
	points, weights, sampleIdx := distinctColours(samples)

	k := min(max(q.K, 1), len(points))
	maxIter := q.MaxIterations
	if maxIter < 1 {
		maxIter = DefaultMaxIterations
	}
	restarts := max(q.Restarts, 1)

	rng := rand.New(rand.NewPCG(uint64(q.Seed), quantizerStream)) // #nosec G404 -- clustering does not need crypto randomness

	var best *kmeansRun
	for run := 0; run < restarts; run++ {
		if run > 0 && ctx.Err() != nil {
			break
		}
		centroids := initCentroidsKMeansPlusPlus(points, weights, k, rng)
		result := lloyd(ctx, points, weights, centroids, maxIter)
		if best == nil || result.inertia < best.inertia {
			best = result
		}
	}

	order := firstSeenOrder(best.labels, len(best.centroids))
	centers := make([]RGB, len(best.centroids))
	for i, c := range best.centroids {
		centers[order[i]] = RGB{R: roundChannel(c.R), G: roundChannel(c.G), B: roundChannel(c.B)}
	}

	labels := make([]int, len(samples))
	for i, p := range sampleIdx {
		labels[i] = order[best.labels[p]]
	}

	return ClusterSet{
		Centers:    centers,
		Labels:     labels,
		Inertia:    best.inertia,
		Iterations: best.iterations,
		Converged:  best.converged,
	}
}

// firstSeenOrder maps each cluster index to its rank by first occurrence in
// labels. Clusters that label nothing keep their relative order at the end.
func firstSeenOrder(labels []int, k int) []int {
	order := make([]int, k)
	for i := range order {
		order[i] = -1
	}
	next := 0
	for _, l := range labels {
		if order[l] < 0 {
			order[l] = next
			next++
		}
	}
	for i := range order {
		if order[i] < 0 {
			order[i] = next
			next++
		}
	}
	return order
}

// DistinctCount returns the number of distinct colours in samples.
func DistinctCount(samples []RGB) int {
	seen := make(map[RGB]struct{}, len(samples))
	for _, s := range samples {
		seen[s] = struct{}{}
	}
	return len(seen)
}

// distinctColours returns the distinct colours of samples in first-seen order,
// their multiplicities, and the index of each sample's colour.
func distinctColours(samples []RGB) ([]point3D, []float64, []int) {
	index := make(map[RGB]int)
	points := make([]point3D, 0)
	weights := make([]float64, 0)
	sampleIdx := make([]int, len(samples))

	for i, s := range samples {
		idx, ok := index[s]
		if !ok {
			idx = len(points)
			index[s] = idx
			points = append(points, point3D{R: float64(s.R), G: float64(s.G), B: float64(s.B)})
			weights = append(weights, 0)
		}
		weights[idx]++
		sampleIdx[i] = idx
	}
	return points, weights, sampleIdx
}

// initCentroidsKMeansPlusPlus picks k distinct points using greedy k-means++:
// each step draws several candidates with probability proportional to
// weight * D(x)^2 and keeps the one that lowers the potential most.
func initCentroidsKMeansPlusPlus(points []point3D, weights []float64, k int, rng *rand.Rand) []point3D {
	centroids := make([]point3D, 0, k)

	first := weightedIndex(weights, rng)
	centroids = append(centroids, points[first])

	closest := make([]float64, len(points))
	potential := 0.0
	for i, p := range points {
		closest[i] = p.distanceSq(points[first])
		potential += weights[i] * closest[i]
	}

	trials := 2 + int(math.Log(float64(k)))
	candidate := make([]float64, len(points))
	bestClosest := make([]float64, len(points))

	for len(centroids) < k {
		if potential <= 0 {
			// Every point already coincides with a centroid.
			break
		}

		bestIdx := -1
		bestPotential := math.Inf(1)
		for range trials {
			idx := potentialIndex(weights, closest, potential, rng)
			newPotential := 0.0
			for i, p := range points {
				candidate[i] = min(closest[i], p.distanceSq(points[idx]))
				newPotential += weights[i] * candidate[i]
			}
			if newPotential < bestPotential {
				bestPotential = newPotential
				bestIdx = idx
				copy(bestClosest, candidate)
			}
		}

		centroids = append(centroids, points[bestIdx])
		copy(closest, bestClosest)
		potential = bestPotential
	}

	return centroids
}

// weightedIndex draws an index with probability proportional to its weight.
func weightedIndex(weights []float64, rng *rand.Rand) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	target := rng.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if cumulative > target {
			return i
		}
	}
	return len(weights) - 1
}

// potentialIndex draws an index with probability proportional to
// weights[i] * closest[i]. Points already chosen have zero probability.
func potentialIndex(weights, closest []float64, potential float64, rng *rand.Rand) int {
	target := rng.Float64() * potential
	cumulative := 0.0
	last := -1
	for i := range weights {
		contribution := weights[i] * closest[i]
		if contribution <= 0 {
			continue
		}
		cumulative += contribution
		last = i
		if cumulative > target {
			return i
		}
	}
	return last
}

// lloyd alternates assignment and centroid recomputation until no assignment
// changes, maxIter iterations have run, or ctx is done.
func lloyd(ctx context.Context, points []point3D, weights []float64, centroids []point3D, maxIter int) *kmeansRun {
	run := &kmeansRun{
		centroids: centroids,
		labels:    make([]int, len(points)),
	}
	for i := range run.labels {
		run.labels[i] = -1
	}
	run.assign(points, weights)

	for run.iterations < maxIter {
		if ctx.Err() != nil {
			break
		}
		run.iterations++
		run.recalculateCentroids(points, weights)
		if run.assign(points, weights) == 0 {
			run.converged = true
			break
		}
	}

	return run
}

// assign labels each point with its nearest centroid and returns how many
// labels changed. Ties go to the lowest centroid index.
func (r *kmeansRun) assign(points []point3D, weights []float64) int {
	changed := 0
	r.inertia = 0
	for i, p := range points {
		nearest, dist := nearestCentroid(p, r.centroids)
		if r.labels[i] != nearest {
			r.labels[i] = nearest
			changed++
		}
		r.inertia += weights[i] * dist
	}
	return changed
}

// recalculateCentroids moves each centroid to the weighted mean of its points.
// An empty cluster is moved onto the point farthest from its own centroid.
func (r *kmeansRun) recalculateCentroids(points []point3D, weights []float64) {
	k := len(r.centroids)
	sums := make([]point3D, k)
	totals := make([]float64, k)

	for i, p := range points {
		c := r.labels[i]
		w := weights[i]
		sums[c].R += w * p.R
		sums[c].G += w * p.G
		sums[c].B += w * p.B
		totals[c] += w
	}

	var empty []int
	for c := range k {
		if totals[c] == 0 {
			empty = append(empty, c)
			continue
		}
		r.centroids[c] = point3D{
			R: sums[c].R / totals[c],
			G: sums[c].G / totals[c],
			B: sums[c].B / totals[c],
		}
	}
	if len(empty) == 0 {
		return
	}

	used := make(map[int]bool, len(empty))
	for _, c := range empty {
		far, farDist := -1, -1.0
		for i, p := range points {
			if used[i] {
				continue
			}
			if d := p.distanceSq(r.centroids[r.labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			continue
		}
		used[far] = true
		r.centroids[c] = points[far]
	}
}

// nearestCentroid returns the index of and squared distance to the closest centroid.
func nearestCentroid(p point3D, centroids []point3D) (int, float64) {
	nearest := 0
	minDist := math.MaxFloat64
	for i, c := range centroids {
		if d := p.distanceSq(c); d < minDist {
			minDist = d
			nearest = i
		}
	}
	return nearest, minDist
}

// roundChannel rounds half away from zero and clamps to [0, 255].
func roundChannel(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
