// Package distance provides vector distance and similarity calculations
// for keyword embeddings.
//
// # Supported Metrics
//
//   - MetricEuclidean: Euclidean (L2) distance (default for clustering)
//   - MetricSquaredL2: Squared Euclidean distance (cheaper, same ordering)
//   - MetricCosine: Cosine similarity (used for search and intent scoring)
//
// Distance functions treat a length mismatch between the two vectors as an
// exceptional condition and return +Inf, so a malformed pair can never win a
// nearest-match comparison.
//
// # Usage
//
//	dist := distance.Euclidean(a, b)
//	sim := distance.Cosine(a, b)
package distance
