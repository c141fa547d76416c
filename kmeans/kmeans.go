package kmeans

import (
	"context"
	"math"
	"math/rand"

	"github.com/orbiseo/orbiseo/distance"
)

const (
	// DefaultMaxIterations bounds the assign/update loop.
	DefaultMaxIterations = 100

	// movementEpsilon is the advisory convergence threshold: when every
	// centroid moves less than this between updates, the run may stop
	// early even if reseeding flagged an assignment change.
	movementEpsilon = 1e-4
)

// Result holds the outcome of a partitioning run.
type Result struct {
	// Assignments maps each input index to a cluster index (0..k'-1).
	Assignments []int

	// Centroids are the final centroid positions.
	Centroids [][]float32

	// Iterations is the number of assign/update rounds executed.
	Iterations int

	// Converged reports whether the run stopped because no assignment
	// changed, rather than hitting the iteration limit.
	Converged bool
}

// InitCentroids picks up to k starting centroids from the distinct embeddings
// present in vectors. Selection is a uniform random permutation of the
// distinct set, taking the first k. If fewer than k distinct embeddings
// exist, fewer centroids are returned; the caller is expected to clamp its
// effective cluster count. Each centroid is a copy of the sampled embedding.
func InitCentroids(rng *rand.Rand, vectors [][]float32, k int) [][]float32 {
	if k <= 0 || len(vectors) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(vectors))
	distinct := make([][]float32, 0, len(vectors))

	for _, v := range vectors {
		key := vectorKey(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		distinct = append(distinct, v)
	}

	if k > len(distinct) {
		k = len(distinct)
	}

	perm := rng.Perm(len(distinct))

	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		src := distinct[perm[i]]
		c := make([]float32, len(src))
		copy(c, src)
		centroids[i] = c
	}

	return centroids
}

// Partition assigns each vector to the nearest of the given centroids using
// Lloyd's algorithm. Centroids are mutated in place during the run; the
// final positions are returned in the Result.
//
// Degenerate inputs return immediately without iterating: no vectors or no
// centroids yield an empty assignment, and fewer vectors than centroids
// yield the identity assignment (each point its own singleton cluster).
//
// The authoritative termination signal is an assign step in which no
// assignment changed. An empty cluster is reseeded from a uniformly random
// input point rather than dropped, which flags the iteration as not yet
// converged; a sub-epsilon centroid movement still permits an early exit in
// that case.
func Partition(ctx context.Context, rng *rand.Rand, vectors [][]float32, centroids [][]float32, maxIter int) (*Result, error) {
	n := len(vectors)
	k := len(centroids)

	if n == 0 || k == 0 {
		return &Result{Assignments: []int{}, Centroids: centroids, Converged: true}, nil
	}

	if n < k {
		assignments := make([]int, n)
		for i := range assignments {
			assignments[i] = i
		}
		return &Result{Assignments: assignments, Centroids: centroids, Converged: true}, nil
	}

	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}

	sums := make([][]float64, k)
	counts := make([]int, k)
	for j := range sums {
		sums[j] = make([]float64, len(centroids[j]))
	}

	result := &Result{Assignments: assignments, Centroids: centroids}

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result.Iterations = iter + 1

		// Assign step: nearest centroid, ties broken by lowest index.
		changed := false
		for i, v := range vectors {
			best := 0
			minDist := float32(math.Inf(1))

			for j, c := range centroids {
				d := distance.Euclidean(v, c)
				if d < minDist {
					minDist = d
					best = j
				}
			}

			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if !changed {
			result.Converged = true
			break
		}

		// Update step: recompute centroids as coordinate-wise means.
		for j := range sums {
			for d := range sums[j] {
				sums[j][d] = 0
			}
			counts[j] = 0
		}

		for i, v := range vectors {
			j := assignments[i]
			counts[j]++
			for d := 0; d < len(sums[j]) && d < len(v); d++ {
				sums[j][d] += float64(v[d])
			}
		}

		maxMove := float64(0)
		for j := range centroids {
			if counts[j] == 0 {
				// Never drop the cluster index: reseed from a random
				// input point and keep iterating.
				src := vectors[rng.Intn(n)]
				moved := make([]float32, len(src))
				copy(moved, src)
				centroids[j] = moved
				// A reseed can change the centroid's length when the
				// input mixes dimensions; the accumulator must follow.
				if len(sums[j]) != len(moved) {
					sums[j] = make([]float64, len(moved))
				}
				maxMove = math.Inf(1)
				continue
			}

			var move float64
			for d := range centroids[j] {
				mean := sums[j][d] / float64(counts[j])
				delta := mean - float64(centroids[j][d])
				move += delta * delta
				centroids[j][d] = float32(mean)
			}
			if move = math.Sqrt(move); move > maxMove {
				maxMove = move
			}
		}

		if maxMove < movementEpsilon {
			result.Converged = true
			break
		}
	}

	return result, nil
}

// vectorKey builds a byte-exact identity key for an embedding, used to
// deduplicate coincident points during initialization.
func vectorKey(v []float32) string {
	buf := make([]byte, 0, len(v)*4)
	for _, f := range v {
		bits := math.Float32bits(f)
		buf = append(buf, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}
	return string(buf)
}
