// Package kmeans implements Lloyd's k-means algorithm for partitioning
// keyword embeddings into semantic groups.
//
// Centroid initialization samples from the distinct embeddings present in
// the input, so duplicated inputs cannot produce coincident centroids. The
// random source is injected by the caller, which keeps clustering runs
// reproducible in tests.
//
// Small inputs bypass the iterative algorithm entirely: when there are fewer
// points than centroids, every point becomes its own singleton cluster.
package kmeans
