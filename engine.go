package orbiseo

import (
	"context"
	"time"

	"github.com/orbiseo/orbiseo/cluster"
	"github.com/orbiseo/orbiseo/dataforseo"
	"github.com/orbiseo/orbiseo/embedding"
	"github.com/orbiseo/orbiseo/index"
	"github.com/orbiseo/orbiseo/intent"
	"github.com/orbiseo/orbiseo/naming"
	"github.com/orbiseo/orbiseo/serp"
)

// Search parameter defaults, applied when a request leaves them unset.
const (
	DefaultTopK          = 10
	DefaultMinSimilarity = 0.5

	// ExpansionMinSimilarity is the looser similarity floor used for
	// keyword expansion, which favors recall over precision.
	ExpansionMinSimilarity = 0.3

	// serpAnalysisTopK is how many related keywords feed a SERP
	// analysis.
	serpAnalysisTopK = 20

	// Volume thresholds separating "high volume" keywords in search
	// aggregates and expansion metrics.
	searchHighVolume    = 10000
	expansionHighVolume = 1000
)

// Engine composes the embedding provider, keyword index, clusterer and
// intent classifier behind the public operations. Construct with New;
// all collaborators are injected, there is no ambient state.
type Engine struct {
	embedder   embedding.Embedder
	index      *index.Index
	clusterer  *cluster.Clusterer
	classifier *intent.Classifier
	seo        *dataforseo.Client
	logger     *Logger
	metrics    MetricsCollector
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithIndex replaces the keyword index, e.g. one restored from a
// snapshot.
func WithIndex(ix *index.Index) Option {
	return func(e *Engine) {
		if ix != nil {
			e.index = ix
		}
	}
}

// WithClusterer replaces the default clusterer.
func WithClusterer(c *cluster.Clusterer) Option {
	return func(e *Engine) {
		if c != nil {
			e.clusterer = c
		}
	}
}

// WithClassifier replaces the default intent classifier.
func WithClassifier(c *intent.Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithKeywordMetricsClient enables record enrichment through the
// DataForSEO client during ingestion.
func WithKeywordMetricsClient(c *dataforseo.Client) Option {
	return func(e *Engine) {
		e.seo = c
	}
}

// New creates an Engine around the given embedding and naming
// providers. Either may be nil: without an embedder the search and
// clustering operations return ErrNoEmbedder, without a namer clusters
// receive fallback labels.
func New(embedder embedding.Embedder, namer naming.Namer, opts ...Option) *Engine {
	e := &Engine{
		embedder: embedder,
		index:    index.New(),
		logger:   NewLogger(nil),
		metrics:  NoopMetricsCollector{},
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.clusterer == nil {
		e.clusterer = cluster.New(namer, cluster.WithLogger(e.logger.Logger))
	}
	if e.classifier == nil {
		e.classifier = intent.New(embedder, intent.WithLogger(e.logger.Logger))
	}

	return e
}

// Index exposes the underlying keyword index, e.g. for snapshots.
func (e *Engine) Index() *index.Index {
	return e.index
}

// AggregateMetrics summarizes the SEO numbers of a match set. Averages
// ignore non-positive values.
type AggregateMetrics struct {
	TotalSearchVolume    int     `json:"total_search_volume"`
	AvgKeywordDifficulty float64 `json:"avg_keyword_difficulty"`
	AvgCPC               float64 `json:"avg_cpc"`
	HighVolumeCount      int     `json:"high_volume_count"`
}

// SearchRequest describes a semantic search.
type SearchRequest struct {
	Query         string  `json:"query"`
	TopK          int     `json:"topK"`
	MinSimilarity float64 `json:"minSimilarity"`
	IncludeIntent bool    `json:"includeIntent"`
	Intent        string  `json:"intent,omitempty"`
	Cluster       string  `json:"cluster,omitempty"`
}

// SearchResult is the outcome of a semantic search.
type SearchResult struct {
	Query        string           `json:"query"`
	Intent       *intent.Result   `json:"intent,omitempty"`
	Matches      []index.Match    `json:"matches"`
	TotalResults int              `json:"total_results"`
	Metrics      AggregateMetrics `json:"aggregate_metrics"`
}

// SemanticSearch runs a hybrid search for the query and aggregates the
// SEO metrics of the matches. Intent classification is attached when
// requested.
func (e *Engine) SemanticSearch(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	start := time.Now()
	result, err := e.semanticSearch(ctx, req)

	n := 0
	if result != nil {
		n = result.TotalResults
	}
	e.metrics.RecordSearch(n, time.Since(start), err)
	e.logger.LogSearch(ctx, req.Query, n, time.Since(start), err)

	return result, err
}

func (e *Engine) semanticSearch(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}
	if e.embedder == nil {
		return nil, ErrNoEmbedder
	}

	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}
	if req.MinSimilarity == 0 {
		req.MinSimilarity = DefaultMinSimilarity
	}

	queryVec, err := e.embedQuery(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	matches, err := e.index.Search(ctx, req.Query, queryVec, index.SearchOptions{
		TopK:     req.TopK,
		MinScore: req.MinSimilarity,
		Intent:   req.Intent,
		Cluster:  req.Cluster,
		Hybrid:   true,
	})
	if err != nil {
		return nil, err
	}

	result := &SearchResult{
		Query:        req.Query,
		Matches:      matches,
		TotalResults: len(matches),
		Metrics:      aggregate(matches, searchHighVolume),
	}

	if req.IncludeIntent {
		res := e.classifier.Classify(ctx, req.Query)
		result.Intent = &res
	}

	return result, nil
}

// ExpansionResult is the outcome of a keyword expansion.
type ExpansionResult struct {
	SeedKeyword   string           `json:"seed_keyword"`
	Expanded      []index.Match    `json:"expanded_keywords"`
	TotalKeywords int              `json:"total_keywords"`
	Metrics       AggregateMetrics `json:"metrics_summary"`
}

// ExpandKeywords finds up to count keywords related to the seed,
// using a looser similarity floor than search.
func (e *Engine) ExpandKeywords(ctx context.Context, seed string, count int) (*ExpansionResult, error) {
	start := time.Now()
	result, err := e.expandKeywords(ctx, seed, count)

	n := 0
	if result != nil {
		n = result.TotalKeywords
	}
	e.metrics.RecordExpansion(n, time.Since(start), err)

	return result, err
}

func (e *Engine) expandKeywords(ctx context.Context, seed string, count int) (*ExpansionResult, error) {
	if seed == "" {
		return nil, ErrEmptyQuery
	}
	if e.embedder == nil {
		return nil, ErrNoEmbedder
	}
	if count <= 0 {
		count = DefaultTopK
	}

	queryVec, err := e.embedQuery(ctx, seed)
	if err != nil {
		return nil, err
	}

	matches, err := e.index.Search(ctx, seed, queryVec, index.SearchOptions{
		TopK:     count,
		MinScore: ExpansionMinSimilarity,
		Hybrid:   true,
	})
	if err != nil {
		return nil, err
	}

	return &ExpansionResult{
		SeedKeyword:   seed,
		Expanded:      matches,
		TotalKeywords: len(matches),
		Metrics:       aggregate(matches, expansionHighVolume),
	}, nil
}

// ClusterResult is the outcome of a clustering operation.
type ClusterResult struct {
	Clusters      map[string][]string `json:"clusters"`
	TotalKeywords int                 `json:"total_keywords"`
	ClusterCount  int                 `json:"cluster_count"`
	Skipped       []string            `json:"skipped_keywords,omitempty"`
}

// ClusterKeywords embeds the keywords and partitions them into at most
// count named clusters. Keywords the embedding provider returns no
// vector for are skipped with a warning rather than failing the run.
func (e *Engine) ClusterKeywords(ctx context.Context, keywords []string, count int) (*ClusterResult, error) {
	start := time.Now()
	result, err := e.clusterKeywords(ctx, keywords, count)

	clusters := 0
	if result != nil {
		clusters = result.ClusterCount
	}
	e.metrics.RecordClustering(len(keywords), clusters, time.Since(start), err)
	e.logger.LogClustering(ctx, len(keywords), clusters, time.Since(start), err)

	return result, err
}

func (e *Engine) clusterKeywords(ctx context.Context, keywords []string, count int) (*ClusterResult, error) {
	if len(keywords) == 0 {
		return &ClusterResult{Clusters: map[string][]string{}}, nil
	}
	if e.embedder == nil {
		return nil, ErrNoEmbedder
	}

	vecs, err := e.embedBatch(ctx, keywords)
	if err != nil {
		return nil, err
	}

	kept := make([]string, 0, len(keywords))
	keptVecs := make([][]float32, 0, len(keywords))
	var skipped []string
	for i, kw := range keywords {
		if i >= len(vecs) || len(vecs[i]) == 0 {
			skipped = append(skipped, kw)
			continue
		}
		kept = append(kept, kw)
		keptVecs = append(keptVecs, vecs[i])
	}
	if len(skipped) > 0 {
		e.logger.Warn("keywords without embeddings skipped",
			"skipped", len(skipped),
			"total", len(keywords),
		)
	}

	clusters, err := e.clusterer.Cluster(ctx, kept, keptVecs, count)
	if err != nil {
		return nil, err
	}

	return &ClusterResult{
		Clusters:      clusters,
		TotalKeywords: len(kept),
		ClusterCount:  len(clusters),
		Skipped:       skipped,
	}, nil
}

// AnalyzeSERP searches the top related keywords, classifies intent and
// derives the full SERP competition analysis.
func (e *Engine) AnalyzeSERP(ctx context.Context, keyword string) (*serp.Analysis, error) {
	start := time.Now()
	analysis, err := e.analyzeSERP(ctx, keyword)
	e.metrics.RecordSERPAnalysis(time.Since(start), err)
	return analysis, err
}

func (e *Engine) analyzeSERP(ctx context.Context, keyword string) (*serp.Analysis, error) {
	if keyword == "" {
		return nil, ErrEmptyQuery
	}
	if e.embedder == nil {
		return nil, ErrNoEmbedder
	}

	queryVec, err := e.embedQuery(ctx, keyword)
	if err != nil {
		return nil, err
	}

	matches, err := e.index.Search(ctx, keyword, queryVec, index.SearchOptions{
		TopK:     serpAnalysisTopK,
		MinScore: DefaultMinSimilarity,
		Hybrid:   true,
	})
	if err != nil {
		return nil, err
	}

	queryIntent := e.classifier.Classify(ctx, keyword)

	analysis := serp.Analyze(keyword, matches, queryIntent)
	return &analysis, nil
}

// Ingest upserts records into the keyword index. Records without an
// embedding are embedded in one batch; when enrich is set and a
// DataForSEO client is configured, records without search volume are
// enriched with provider metrics. Enrichment failures degrade to
// unenriched records.
func (e *Engine) Ingest(ctx context.Context, records []index.Record, enrich bool) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var missing []string
	var missingIdx []int
	for i, rec := range records {
		if len(rec.Embedding) == 0 {
			missing = append(missing, rec.Keyword)
			missingIdx = append(missingIdx, i)
		}
	}
	if len(missing) > 0 {
		if e.embedder == nil {
			return 0, ErrNoEmbedder
		}
		vecs, err := e.embedBatch(ctx, missing)
		if err != nil {
			return 0, err
		}
		for j, i := range missingIdx {
			if j < len(vecs) {
				records[i].Embedding = vecs[j]
			}
		}
	}

	if enrich && e.seo != nil {
		e.enrichRecords(ctx, records)
	}

	n := 0
	for _, rec := range records {
		if err := e.index.Upsert(rec); err != nil {
			e.logger.Warn("skipping record", "keyword", rec.Keyword, "error", err)
			continue
		}
		n++
	}

	return n, nil
}

// enrichRecords fills in search volume and CPC from DataForSEO for
// records that have none. Provider failure only logs a warning.
func (e *Engine) enrichRecords(ctx context.Context, records []index.Record) {
	var lookup []string
	for _, rec := range records {
		if rec.SearchVolume == 0 && rec.Keyword != "" {
			lookup = append(lookup, rec.Keyword)
		}
	}
	if len(lookup) == 0 {
		return
	}

	start := time.Now()
	metrics, err := e.seo.KeywordMetrics(ctx, lookup, 0, "")
	e.metrics.RecordProviderCall("dataforseo", time.Since(start), err)
	if err != nil {
		e.logger.Warn("keyword metrics enrichment failed", "keywords", len(lookup), "error", err)
		return
	}

	for i := range records {
		m, ok := metrics[records[i].Keyword]
		if !ok {
			continue
		}
		if records[i].SearchVolume == 0 {
			records[i].SearchVolume = m.SearchVolume
		}
		if records[i].CPC == 0 {
			records[i].CPC = m.CPC
		}
	}
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := e.embedBatch(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, NewProviderError("embedding", embedding.ErrNoEmbedding)
	}
	return vecs[0], nil
}

func (e *Engine) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := e.embedder.BatchEmbed(ctx, texts)
	e.metrics.RecordProviderCall("embedding", time.Since(start), err)
	if err != nil {
		return nil, NewProviderError("embedding", err)
	}
	return vecs, nil
}

// aggregate computes the SEO aggregates over matches. Averages skip
// non-positive values; highVolume is the volume threshold counted.
func aggregate(matches []index.Match, highVolume int) AggregateMetrics {
	var agg AggregateMetrics
	var kdSum, cpcSum float64
	var kdN, cpcN int

	for _, m := range matches {
		if m.Record == nil {
			continue
		}
		agg.TotalSearchVolume += m.Record.SearchVolume
		if m.Record.SearchVolume > highVolume {
			agg.HighVolumeCount++
		}
		if m.Record.KeywordDifficulty > 0 {
			kdSum += float64(m.Record.KeywordDifficulty)
			kdN++
		}
		if m.Record.CPC > 0 {
			cpcSum += m.Record.CPC
			cpcN++
		}
	}

	if kdN > 0 {
		agg.AvgKeywordDifficulty = kdSum / float64(kdN)
	}
	if cpcN > 0 {
		agg.AvgCPC = cpcSum / float64(cpcN)
	}

	return agg
}
