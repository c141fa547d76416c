// Package orbiseo provides a semantic SEO engine for Go.
//
// Orbiseo clusters keywords by embedding similarity with LLM-generated
// cluster labels, serves hybrid (dense + BM25) keyword search with
// search-intent classification, and derives SERP competition analysis
// from indexed keyword records.
//
// # Quick Start
//
//	embedder := openai.NewEmbedder(apiKey)
//	namer, _ := gemini.NewNamer(gemini.Config{APIKey: geminiKey})
//
//	engine := orbiseo.New(embedder, namer)
//
//	// Index keyword records (embeddings are generated when missing).
//	engine.Ingest(ctx, records, false)
//
//	// Hybrid search with aggregate SEO metrics.
//	result, _ := engine.SemanticSearch(ctx, orbiseo.SearchRequest{
//		Query:         "gaming laptop",
//		TopK:          20,
//		IncludeIntent: true,
//	})
//
//	// Cluster a keyword list into named topic groups.
//	clusters, _ := engine.ClusterKeywords(ctx, keywords, 8)
//
// # Operations
//
//	SemanticSearch  — hybrid dense+BM25 search, intent, aggregates
//	ExpandKeywords  — related-keyword discovery with a loose floor
//	ClusterKeywords — k-means partitioning with LLM cluster labels
//	AnalyzeSERP     — competitor extraction, metrics, recommendations
//	Ingest          — record upserts with embedding and metric enrichment
//
// The index can be persisted with Index().SaveFile and restored through
// index.LoadFile plus the WithIndex option.
//
// All collaborators (embedding provider, naming provider, keyword
// metrics provider) are injected at construction; failures of optional
// collaborators degrade operations instead of failing them.
package orbiseo
