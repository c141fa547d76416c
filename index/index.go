package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/orbiseo/orbiseo/distance"
)

// DefaultTopK is used when SearchOptions.TopK is not positive.
const DefaultTopK = 10

// SearchOptions controls a Search call.
type SearchOptions struct {
	// TopK caps the number of returned matches. Defaults to DefaultTopK.
	TopK int

	// MinScore drops matches whose cosine similarity to the query
	// embedding is below the threshold.
	MinScore float64

	// Intent restricts matches to records with this intent (case
	// insensitive). Empty means no restriction.
	Intent string

	// Cluster restricts matches to records in this semantic cluster.
	// Empty means no restriction.
	Cluster string

	// Hybrid additionally ranks candidates by BM25 over the query text
	// and fuses both rankings by reciprocal rank. Scores still report
	// cosine similarity.
	Hybrid bool
}

// Index is an in-memory hybrid keyword index. It is safe for
// concurrent use.
type Index struct {
	mu        sync.RWMutex
	records   []*Record
	byKeyword map[string]uint32
	live      *roaring.Bitmap
	intents   map[string]*roaring.Bitmap
	clusters  map[string]*roaring.Bitmap
	sparse    *bm25Index
}

// New creates an empty Index.
func New() *Index {
	return &Index{
		byKeyword: make(map[string]uint32),
		live:      roaring.New(),
		intents:   make(map[string]*roaring.Bitmap),
		clusters:  make(map[string]*roaring.Bitmap),
		sparse:    newBM25Index(),
	}
}

// Upsert inserts the record or replaces the record with the same
// keyword. The record is stored by value; later mutation of rec by the
// caller does not affect the index.
func (ix *Index) Upsert(rec Record) error {
	if rec.Keyword == "" {
		return fmt.Errorf("record has no keyword")
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	id, exists := ix.byKeyword[rec.Keyword]
	if exists {
		ix.detachLocked(id)
	} else {
		id = uint32(len(ix.records))
		ix.records = append(ix.records, nil)
		ix.byKeyword[rec.Keyword] = id
	}

	stored := rec
	ix.records[id] = &stored

	ix.live.Add(id)
	ix.sparse.add(id, rec.Keyword)

	if key := normalizeFacet(rec.Intent); key != "" {
		ix.facetAdd(ix.intents, key, id)
	}
	if key := normalizeFacet(rec.SemanticCluster); key != "" {
		ix.facetAdd(ix.clusters, key, id)
	}

	return nil
}

// Delete removes the record for keyword. It reports whether a record
// was present.
func (ix *Index) Delete(keyword string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	id, ok := ix.byKeyword[keyword]
	if !ok {
		return false
	}

	ix.detachLocked(id)
	ix.records[id] = nil
	delete(ix.byKeyword, keyword)
	return true
}

// detachLocked removes id from the live set, bitmaps and the sparse
// index, leaving the record slot for reuse or clearing by the caller.
func (ix *Index) detachLocked(id uint32) {
	rec := ix.records[id]
	if rec == nil {
		return
	}

	ix.live.Remove(id)
	ix.sparse.delete(id)

	if key := normalizeFacet(rec.Intent); key != "" {
		ix.facetRemove(ix.intents, key, id)
	}
	if key := normalizeFacet(rec.SemanticCluster); key != "" {
		ix.facetRemove(ix.clusters, key, id)
	}
}

func (ix *Index) facetAdd(facets map[string]*roaring.Bitmap, key string, id uint32) {
	bm, ok := facets[key]
	if !ok {
		bm = roaring.New()
		facets[key] = bm
	}
	bm.Add(id)
}

func (ix *Index) facetRemove(facets map[string]*roaring.Bitmap, key string, id uint32) {
	bm, ok := facets[key]
	if !ok {
		return
	}
	bm.Remove(id)
	if bm.IsEmpty() {
		delete(facets, key)
	}
}

// normalizeFacet lowercases a facet value; "-" marks unset in exported
// keyword data and maps to empty.
func normalizeFacet(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "-" {
		return ""
	}
	return v
}

// Get returns a copy of the record for keyword.
func (ix *Index) Get(keyword string) (Record, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	id, ok := ix.byKeyword[keyword]
	if !ok {
		return Record{}, false
	}
	return *ix.records[id], true
}

// Len returns the number of live records.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return int(ix.live.GetCardinality())
}

// Clusters returns the distinct semantic cluster names present in the
// index, sorted.
func (ix *Index) Clusters() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]string, 0, len(ix.clusters))
	for name := range ix.clusters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Search ranks live records against the query embedding by cosine
// similarity, optionally fused with a BM25 ranking of the query text.
// Matches below MinScore or outside the intent/cluster filters are
// excluded; at most TopK matches are returned, best first.
func (ix *Index) Search(ctx context.Context, query string, embedding []float32, opts SearchOptions) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	candidates := ix.filterLocked(opts)
	if candidates.IsEmpty() {
		return []Match{}, nil
	}

	type scored struct {
		id    uint32
		score float64
	}

	dense := make([]scored, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for it.HasNext() {
		id := it.Next()
		score := float64(distance.Cosine(embedding, ix.records[id].Embedding))
		if score < opts.MinScore {
			continue
		}
		dense = append(dense, scored{id: id, score: score})
	}
	if len(dense) == 0 {
		return []Match{}, nil
	}

	sort.Slice(dense, func(i, j int) bool {
		if dense[i].score != dense[j].score {
			return dense[i].score > dense[j].score
		}
		return dense[i].id < dense[j].id
	})

	scores := make(map[uint32]float64, len(dense))
	ranked := make([]uint32, len(dense))
	for i, s := range dense {
		scores[s.id] = s.score
		ranked[i] = s.id
	}

	if opts.Hybrid && strings.TrimSpace(query) != "" {
		if sparseRanked := ix.sparseRankLocked(query, scores); len(sparseRanked) > 0 {
			ranked = fuseRanks(ranked, sparseRanked)
		}
	}

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	matches := make([]Match, len(ranked))
	for i, id := range ranked {
		rec := *ix.records[id]
		matches[i] = Match{
			Record: &rec,
			Score:  scores[id],
			Rank:   i + 1,
		}
	}

	return matches, nil
}

// filterLocked intersects the live set with the requested intent and
// cluster bitmaps.
func (ix *Index) filterLocked(opts SearchOptions) *roaring.Bitmap {
	candidates := ix.live.Clone()

	if key := normalizeFacet(opts.Intent); key != "" {
		if bm, ok := ix.intents[key]; ok {
			candidates.And(bm)
		} else {
			candidates.Clear()
		}
	}
	if key := normalizeFacet(opts.Cluster); key != "" {
		if bm, ok := ix.clusters[key]; ok {
			candidates.And(bm)
		} else {
			candidates.Clear()
		}
	}

	return candidates
}

// sparseRankLocked runs BM25 over the query text, restricted to ids in
// eligible, and returns them ordered by BM25 score descending.
func (ix *Index) sparseRankLocked(query string, eligible map[uint32]float64) []uint32 {
	raw := ix.sparse.search(query)
	if len(raw) == 0 {
		return nil
	}

	type scored struct {
		id    uint32
		score float64
	}

	hits := make([]scored, 0, len(raw))
	for id, score := range raw {
		if _, ok := eligible[id]; !ok {
			continue
		}
		hits = append(hits, scored{id: id, score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].id < hits[j].id
	})

	ranked := make([]uint32, len(hits))
	for i, h := range hits {
		ranked[i] = h.id
	}
	return ranked
}
