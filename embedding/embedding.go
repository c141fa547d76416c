// Package embedding defines the embedding provider seam used by the
// clustering and search pipelines.
package embedding

import "context"

// Embedder converts keyword strings into dense embedding vectors.
//
// Implementations must return one vector per input text, in input order.
// A failed or missing embedding for an individual text is reported as a
// nil/empty vector at that position; callers decide whether to exclude the
// affected text (the clustering pipeline excludes and warns).
type Embedder interface {
	// BatchEmbed generates embeddings for the given texts.
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the dimensionality of produced vectors.
	Dimension() int
}

// Embed is a convenience helper for embedding a single text.
func Embed(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, ErrNoEmbedding
	}
	return vecs[0], nil
}
