// Package index provides an in-memory hybrid keyword index for SEO
// records. It combines dense cosine search over keyword embeddings with
// sparse BM25 scoring over the keyword text, fused by reciprocal rank,
// and supports intent and semantic-cluster filters backed by roaring
// bitmaps. Snapshots persist the full record set to disk.
package index
