// Package openai implements the embedding provider on the OpenAI
// embeddings API.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/orbiseo/orbiseo/embedding"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "text-embedding-3-small"
	// DefaultDimension is the provider default vector dimension.
	DefaultDimension = 1536

	// maxBatchSize is the provider's per-request input limit.
	maxBatchSize = 100
)

// Embedder generates embeddings via the OpenAI API.
type Embedder struct {
	client    openai.Client
	model     string
	dimension int
}

type embedderOptions struct {
	model     string
	dimension int
	baseURL   string
}

// Option configures the Embedder.
type Option func(*embedderOptions)

// WithModel overrides the embedding model.
func WithModel(model string) Option {
	return func(o *embedderOptions) {
		o.model = model
	}
}

// WithDimension overrides the requested vector dimension.
func WithDimension(dimension int) Option {
	return func(o *embedderOptions) {
		o.dimension = dimension
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *embedderOptions) {
		o.baseURL = baseURL
	}
}

// NewEmbedder creates a new Embedder.
func NewEmbedder(apiKey string, opts ...Option) *Embedder {
	options := embedderOptions{
		model:     DefaultModel,
		dimension: DefaultDimension,
	}
	for _, opt := range opts {
		opt(&options)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if options.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(options.baseURL))
	}

	return &Embedder{
		client:    openai.NewClient(reqOpts...),
		model:     options.model,
		dimension: options.dimension,
	}
}

// BatchEmbed generates embeddings for the given texts, in input order.
// Inputs beyond the provider's per-request limit are sent in multiple
// requests transparently.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}

	embeddings := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}

	return embeddings, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
	}

	if len(texts) == 1 {
		params.Input = openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(texts[0]),
		}
	} else {
		params.Input = openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		}
	}

	if e.dimension > 0 {
		params.Dimensions = openai.Int(int64(e.dimension))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	embeddings := make([][]float32, 0, len(resp.Data))
	for _, data := range resp.Data {
		vector := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vector[i] = float32(v)
		}
		embeddings = append(embeddings, vector)
	}

	return embeddings, nil
}

// ModelName returns the configured model name.
func (e *Embedder) ModelName() string {
	return e.model
}

// Dimension returns the configured vector dimension.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Interface guard.
var _ embedding.Embedder = (*Embedder)(nil)
