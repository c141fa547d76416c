package kmeans

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestInitCentroids(t *testing.T) {
	vecs := [][]float32{
		{0, 0}, {1, 1}, {2, 2}, {3, 3},
	}

	centroids := InitCentroids(testRNG(), vecs, 2)
	require.Len(t, centroids, 2)

	// Centroids are copies, not aliases.
	centroids[0][0] = 99
	assert.NotEqual(t, float32(99), vecs[0][0])
	assert.NotEqual(t, float32(99), vecs[1][0])
	assert.NotEqual(t, float32(99), vecs[2][0])
	assert.NotEqual(t, float32(99), vecs[3][0])
}

func TestInitCentroids_DistinctOnly(t *testing.T) {
	// Three distinct points, each duplicated.
	vecs := [][]float32{
		{0, 0}, {0, 0},
		{1, 1}, {1, 1},
		{2, 2}, {2, 2},
	}

	centroids := InitCentroids(testRNG(), vecs, 5)
	assert.Len(t, centroids, 3)

	seen := make(map[float32]bool)
	for _, c := range centroids {
		assert.False(t, seen[c[0]], "coincident centroid produced")
		seen[c[0]] = true
	}
}

func TestInitCentroids_Degenerate(t *testing.T) {
	assert.Nil(t, InitCentroids(testRNG(), nil, 3))
	assert.Nil(t, InitCentroids(testRNG(), [][]float32{{1, 2}}, 0))
	assert.Nil(t, InitCentroids(testRNG(), [][]float32{{1, 2}}, -1))
}

func TestInitCentroids_Deterministic(t *testing.T) {
	vecs := [][]float32{
		{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5},
	}

	a := InitCentroids(rand.New(rand.NewSource(7)), vecs, 3)
	b := InitCentroids(rand.New(rand.NewSource(7)), vecs, 3)
	assert.Equal(t, a, b)
}

func TestPartition_TwoClusters(t *testing.T) {
	ctx := context.Background()

	vecs := [][]float32{
		{0, 0}, {0, 1}, {1, 0}, // near origin
		{10, 10}, {10, 11}, {11, 10}, // near (10,10)
	}
	centroids := [][]float32{{0.5, 0.5}, {10.5, 10.5}}

	res, err := Partition(ctx, testRNG(), vecs, centroids, DefaultMaxIterations)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 6)
	assert.True(t, res.Converged)

	assert.Equal(t, res.Assignments[0], res.Assignments[1])
	assert.Equal(t, res.Assignments[0], res.Assignments[2])
	assert.Equal(t, res.Assignments[3], res.Assignments[4])
	assert.Equal(t, res.Assignments[3], res.Assignments[5])
	assert.NotEqual(t, res.Assignments[0], res.Assignments[3])
}

func TestPartition_EmptyInput(t *testing.T) {
	ctx := context.Background()

	res, err := Partition(ctx, testRNG(), nil, [][]float32{{0, 0}}, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Assignments)
	assert.True(t, res.Converged)

	res, err = Partition(ctx, testRNG(), [][]float32{{0, 0}}, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, res.Assignments)
	assert.Equal(t, 0, res.Iterations)
}

func TestPartition_FewerPointsThanCentroids(t *testing.T) {
	ctx := context.Background()

	vecs := [][]float32{{0, 0}, {5, 5}}
	centroids := [][]float32{{0, 0}, {1, 1}, {2, 2}}

	res, err := Partition(ctx, testRNG(), vecs, centroids, 10)
	require.NoError(t, err)

	// Identity assignment: each point its own singleton cluster.
	assert.Equal(t, []int{0, 1}, res.Assignments)
	assert.True(t, res.Converged)
	assert.Equal(t, 0, res.Iterations)
}

func TestPartition_TieBreaksLowestIndex(t *testing.T) {
	ctx := context.Background()

	// Point equidistant from both centroids.
	vecs := [][]float32{{5, 5}, {4, 4}}
	centroids := [][]float32{{0, 0}, {10, 10}}

	res, err := Partition(ctx, testRNG(), vecs, centroids, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Assignments[0])
}

func TestPartition_LengthMismatchDoesNotPanic(t *testing.T) {
	ctx := context.Background()

	// One malformed embedding: distance degrades to +Inf, never nearest.
	vecs := [][]float32{
		{0, 0}, {0, 1},
		{9, 9, 9},
		{10, 10}, {10, 11},
	}
	centroids := [][]float32{{0, 0}, {10, 10}}

	res, err := Partition(ctx, testRNG(), vecs, centroids, DefaultMaxIterations)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 5)

	// The malformed point lands on the first centroid by tie-break.
	assert.Equal(t, 0, res.Assignments[2])
}

func TestPartition_ReseedAfterLengthMismatch(t *testing.T) {
	ctx := context.Background()

	// Every vector is infinitely far from the two-dimensional centroid,
	// so cluster 0 empties on the first iteration and reseeds to a
	// three-dimensional input point. The next update must accumulate
	// into the reseeded centroid without running past its old length.
	vecs := [][]float32{
		{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
	}
	centroids := [][]float32{{0, 0}, {5, 5, 5}}

	res, err := Partition(ctx, testRNG(), vecs, centroids, DefaultMaxIterations)
	require.NoError(t, err)
	require.Len(t, res.Assignments, 3)

	for _, c := range res.Centroids {
		assert.Len(t, c, 3)
	}
}

func TestPartition_Deterministic(t *testing.T) {
	ctx := context.Background()

	vecs := make([][]float32, 50)
	gen := rand.New(rand.NewSource(1))
	for i := range vecs {
		vecs[i] = []float32{gen.Float32() * 10, gen.Float32() * 10}
	}

	run := func() []int {
		rng := rand.New(rand.NewSource(99))
		centroids := InitCentroids(rng, vecs, 4)
		res, err := Partition(ctx, rng, vecs, centroids, DefaultMaxIterations)
		require.NoError(t, err)
		return res.Assignments
	}

	assert.Equal(t, run(), run())
}

func TestPartition_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	vecs := make([][]float32, 100)
	for i := range vecs {
		vecs[i] = []float32{float32(i), float32(i)}
	}
	centroids := [][]float32{{0, 0}, {50, 50}}

	_, err := Partition(ctx, testRNG(), vecs, centroids, DefaultMaxIterations)
	assert.ErrorIs(t, err, context.Canceled)
}
