package orbiseo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbiseo/orbiseo/cluster"
	"github.com/orbiseo/orbiseo/dataforseo"
	"github.com/orbiseo/orbiseo/index"
)

// mapEmbedder returns canned vectors by text; texts without an entry
// get the fallback vector.
type mapEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
}

func (m *mapEmbedder) BatchEmbed(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := m.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = m.fallback
		}
	}
	return out, nil
}

func (m *mapEmbedder) Dimension() int { return 3 }

type staticNamer struct{}

func (staticNamer) NameCluster(_ context.Context, keywords []string) (string, error) {
	return "Cluster " + keywords[0], nil
}

func testEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	emb := &mapEmbedder{
		vectors: map[string][]float32{
			"bitcoin price":  {1, 0, 0},
			"buy bitcoin":    {0.9, 0.1, 0},
			"gaming laptop":  {0, 1, 0},
			"laptop reviews": {0, 0.9, 0.1},
		},
		fallback: []float32{0.5, 0.5, 0},
	}

	opts = append([]Option{WithLogger(NoopLogger())}, opts...)
	e := New(emb, staticNamer{}, opts...)

	seed := []index.Record{
		{Keyword: "bitcoin price", Embedding: []float32{1, 0, 0}, SearchVolume: 50000, KeywordDifficulty: 70, CPC: 2.5, Intent: "informational", SemanticCluster: "crypto"},
		{Keyword: "buy bitcoin", Embedding: []float32{0.9, 0.1, 0}, SearchVolume: 20000, KeywordDifficulty: 60, CPC: 3.0, Intent: "transactional", SemanticCluster: "crypto"},
		{Keyword: "gaming laptop", Embedding: []float32{0, 1, 0}, SearchVolume: 8000, KeywordDifficulty: 40, Intent: "commercial", SemanticCluster: "laptops",
			Competitors: []index.Competitor{{URL: "https://a.example", Domain: "a.example", Rank: 1, DomainAuthority: 55, Backlinks: 800, Traffic: 40000}}},
	}
	for _, rec := range seed {
		require.NoError(t, e.Index().Upsert(rec))
	}

	return e
}

func TestSemanticSearch(t *testing.T) {
	e := testEngine(t)

	res, err := e.SemanticSearch(context.Background(), SearchRequest{
		Query:         "bitcoin price",
		TopK:          10,
		MinSimilarity: 0.5,
		IncludeIntent: true,
	})
	require.NoError(t, err)

	require.Equal(t, 2, res.TotalResults)
	assert.Equal(t, "bitcoin price", res.Matches[0].Record.Keyword)
	assert.Equal(t, "buy bitcoin", res.Matches[1].Record.Keyword)

	assert.Equal(t, 70000, res.Metrics.TotalSearchVolume)
	assert.InDelta(t, 65.0, res.Metrics.AvgKeywordDifficulty, 1e-9)
	assert.InDelta(t, 2.75, res.Metrics.AvgCPC, 1e-9)
	assert.Equal(t, 2, res.Metrics.HighVolumeCount)

	require.NotNil(t, res.Intent)
	assert.NotEmpty(t, res.Intent.Intent)
}

func TestSemanticSearch_Validation(t *testing.T) {
	e := testEngine(t)

	_, err := e.SemanticSearch(context.Background(), SearchRequest{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSemanticSearch_NoEmbedder(t *testing.T) {
	e := New(nil, nil, WithLogger(NoopLogger()))

	_, err := e.SemanticSearch(context.Background(), SearchRequest{Query: "q"})
	assert.ErrorIs(t, err, ErrNoEmbedder)
}

func TestSemanticSearch_ProviderError(t *testing.T) {
	e := New(&mapEmbedder{err: errors.New("quota exceeded")}, nil, WithLogger(NoopLogger()))

	_, err := e.SemanticSearch(context.Background(), SearchRequest{Query: "q"})
	require.Error(t, err)

	var provErr *ErrProvider
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "embedding", provErr.Provider)
}

func TestSemanticSearch_IntentFilter(t *testing.T) {
	e := testEngine(t)

	res, err := e.SemanticSearch(context.Background(), SearchRequest{
		Query:         "bitcoin price",
		MinSimilarity: 0.5,
		Intent:        "transactional",
	})
	require.NoError(t, err)

	require.Equal(t, 1, res.TotalResults)
	assert.Equal(t, "buy bitcoin", res.Matches[0].Record.Keyword)
}

func TestExpandKeywords(t *testing.T) {
	e := testEngine(t)

	res, err := e.ExpandKeywords(context.Background(), "bitcoin price", 50)
	require.NoError(t, err)

	assert.Equal(t, "bitcoin price", res.SeedKeyword)
	assert.GreaterOrEqual(t, res.TotalKeywords, 2)
	// Expansion counts volume > 1000 as high volume.
	assert.GreaterOrEqual(t, res.Metrics.HighVolumeCount, 2)
}

func TestClusterKeywords(t *testing.T) {
	e := testEngine(t, WithClusterer(cluster.New(staticNamer{}, cluster.WithSeed(1))))

	res, err := e.ClusterKeywords(context.Background(), []string{
		"bitcoin price", "buy bitcoin", "gaming laptop", "laptop reviews",
	}, 2)
	require.NoError(t, err)

	assert.Equal(t, 4, res.TotalKeywords)
	assert.Equal(t, 2, res.ClusterCount)
	assert.Empty(t, res.Skipped)

	total := 0
	for label, members := range res.Clusters {
		assert.Contains(t, label, "Cluster ")
		total += len(members)
	}
	assert.Equal(t, 4, total)
}

func TestClusterKeywords_SkipsUnembeddable(t *testing.T) {
	emb := &mapEmbedder{
		vectors: map[string][]float32{
			"a": {1, 0},
			"b": {0, 1},
		},
		// Unknown keywords embed to nothing.
		fallback: nil,
	}
	e := New(emb, staticNamer{},
		WithLogger(NoopLogger()),
		WithClusterer(cluster.New(staticNamer{}, cluster.WithSeed(1))),
	)

	res, err := e.ClusterKeywords(context.Background(), []string{"a", "b", "mystery"}, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"mystery"}, res.Skipped)
	assert.Equal(t, 2, res.TotalKeywords)
}

func TestClusterKeywords_EmptyInput(t *testing.T) {
	e := testEngine(t)

	res, err := e.ClusterKeywords(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Empty(t, res.Clusters)
}

func TestAnalyzeSERP(t *testing.T) {
	e := testEngine(t)

	analysis, err := e.AnalyzeSERP(context.Background(), "gaming laptop")
	require.NoError(t, err)

	assert.Equal(t, "gaming laptop", analysis.Keyword)
	assert.NotEmpty(t, analysis.Intent)
	require.Len(t, analysis.OrganicResults, 1)
	assert.Equal(t, "a.example", analysis.OrganicResults[0].Domain)
	assert.NotEmpty(t, analysis.Recommendations)
}

func TestIngest_EmbedsMissingVectors(t *testing.T) {
	e := testEngine(t)

	n, err := e.Ingest(context.Background(), []index.Record{
		{Keyword: "bitcoin price today"}, // no embedding: uses fallback vector
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, ok := e.Index().Get("bitcoin price today")
	require.True(t, ok)
	assert.Equal(t, []float32{0.5, 0.5, 0}, rec.Embedding)
}

func TestIngest_Enriches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status_code": 20000,
			"tasks": []map[string]any{{
				"result": []map[string]any{{
					"keyword":       "fresh keyword",
					"search_volume": 4200,
					"cpc":           0.8,
				}},
			}},
		})
	}))
	defer srv.Close()

	seo, err := dataforseo.New(dataforseo.Config{Login: "u", Password: "p", BaseURL: srv.URL})
	require.NoError(t, err)

	e := testEngine(t, WithKeywordMetricsClient(seo))

	n, err := e.Ingest(context.Background(), []index.Record{
		{Keyword: "fresh keyword", Embedding: []float32{1, 1, 1}},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, ok := e.Index().Get("fresh keyword")
	require.True(t, ok)
	assert.Equal(t, 4200, rec.SearchVolume)
	assert.InDelta(t, 0.8, rec.CPC, 1e-9)
}

func TestIngest_EnrichmentFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	seo, err := dataforseo.New(dataforseo.Config{Login: "u", Password: "p", BaseURL: srv.URL})
	require.NoError(t, err)

	e := testEngine(t, WithKeywordMetricsClient(seo))

	n, err := e.Ingest(context.Background(), []index.Record{
		{Keyword: "unenriched", Embedding: []float32{1, 1, 1}},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, _ := e.Index().Get("unenriched")
	assert.Zero(t, rec.SearchVolume)
}

func TestEngine_MetricsRecorded(t *testing.T) {
	collector := &BasicMetricsCollector{}
	e := testEngine(t, WithMetrics(collector))

	_, err := e.SemanticSearch(context.Background(), SearchRequest{Query: "bitcoin price"})
	require.NoError(t, err)
	_, _ = e.SemanticSearch(context.Background(), SearchRequest{})

	assert.Equal(t, int64(2), collector.SearchCount.Load())
	assert.Equal(t, int64(1), collector.SearchErrors.Load())
	assert.GreaterOrEqual(t, collector.ProviderCalls.Load(), int64(1))
}
