package index

import (
	"math"
	"strings"
)

// BM25 parameters. Standard values for short keyword documents.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

type posting struct {
	id    uint32
	count int
}

// bm25Index is an in-memory inverted index with BM25 scoring.
// Callers synchronize access; the owning Index holds the lock.
type bm25Index struct {
	inverted    map[string][]posting
	docLengths  map[uint32]int
	totalLength int64
	docCount    int
}

func newBM25Index() *bm25Index {
	return &bm25Index{
		inverted:   make(map[string][]posting),
		docLengths: make(map[uint32]int),
	}
}

// tokenize lowercases and splits on whitespace. Keyword text is short
// and already normalized upstream, so no stemming or stopword removal.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func (idx *bm25Index) add(id uint32, text string) {
	if _, ok := idx.docLengths[id]; ok {
		idx.delete(id)
	}

	tokens := tokenize(text)
	length := len(tokens)

	idx.docLengths[id] = length
	idx.totalLength += int64(length)
	idx.docCount++

	tf := make(map[string]int)
	for _, t := range tokens {
		tf[t]++
	}

	for t, count := range tf {
		idx.inverted[t] = append(idx.inverted[t], posting{id: id, count: count})
	}
}

func (idx *bm25Index) delete(id uint32) {
	length, ok := idx.docLengths[id]
	if !ok {
		return
	}

	for t := range idx.inverted {
		postings := idx.inverted[t]
		for i, p := range postings {
			if p.id == id {
				idx.inverted[t] = append(postings[:i], postings[i+1:]...)
				break
			}
		}
		if len(idx.inverted[t]) == 0 {
			delete(idx.inverted, t)
		}
	}

	delete(idx.docLengths, id)
	idx.totalLength -= int64(length)
	idx.docCount--
}

// search scores all documents sharing at least one query term. A query
// with no indexed terms yields an empty map.
func (idx *bm25Index) search(text string) map[uint32]float64 {
	scores := make(map[uint32]float64)
	if idx.docCount == 0 {
		return scores
	}

	avgDL := float64(idx.totalLength) / float64(idx.docCount)

	for _, t := range tokenize(text) {
		postings, ok := idx.inverted[t]
		if !ok {
			continue
		}

		idf := idx.computeIDF(len(postings))

		for _, p := range postings {
			tf := float64(p.count)
			docLen := float64(idx.docLengths[p.id])

			num := tf * (bm25K1 + 1)
			denom := tf + bm25K1*(1-bm25B+bm25B*(docLen/avgDL))
			scores[p.id] += idf * (num / denom)
		}
	}

	return scores
}

// computeIDF uses the standard smoothed form
// log(1 + (N - n + 0.5) / (n + 0.5)).
func (idx *bm25Index) computeIDF(df int) float64 {
	N := float64(idx.docCount)
	n := float64(df)
	return math.Log(1 + (N-n+0.5)/(n+0.5))
}
