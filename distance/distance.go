package distance

import (
	"fmt"
	"math"
)

// Euclidean calculates the Euclidean (L2) distance between two vectors.
// It is symmetric, non-negative and zero iff the vectors are identical.
// If the vectors differ in length, +Inf is returned so the pair can never
// be selected as a nearest match.
func Euclidean(a, b []float32) float32 {
	s := SquaredL2(a, b)
	if math.IsInf(float64(s), 1) {
		return s
	}
	return float32(math.Sqrt(float64(s)))
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// It preserves the ordering of Euclidean while skipping the square root.
// If the vectors differ in length, +Inf is returned.
func SquaredL2(a, b []float32) float32 {
	if len(a) != len(b) {
		return float32(math.Inf(1))
	}

	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return sum
}

// Dot calculates the dot product of two vectors.
// If the vectors differ in length, 0 is returned.
func Dot(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}

	return sum
}

// Cosine calculates the cosine similarity between two vectors in [-1, 1].
// Returns 0 if either vector has zero norm or the lengths differ.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	MetricEuclidean Metric = iota
	MetricSquaredL2
	MetricCosine
)

func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "Euclidean"
	case MetricSquaredL2:
		return "SquaredL2"
	case MetricCosine:
		return "Cosine"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricEuclidean:
		return Euclidean, nil
	case MetricSquaredL2:
		return SquaredL2, nil
	case MetricCosine:
		return Cosine, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
