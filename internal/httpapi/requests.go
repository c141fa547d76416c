package httpapi

import "fmt"

// Request validation bounds.
const (
	maxTopK           = 100
	minExpansionCount = 5
	maxExpansionCount = 200
	maxClusterInput   = 1000
)

type searchRequest struct {
	Query         string  `json:"query"`
	TopK          int     `json:"topK"`
	MinSimilarity float64 `json:"minSimilarity"`
	IncludeIntent *bool   `json:"includeIntent"`
	Intent        string  `json:"intent"`
	Cluster       string  `json:"cluster"`
}

func (r *searchRequest) validate() error {
	if r.Query == "" {
		return fmt.Errorf("query must not be empty")
	}
	if r.TopK < 0 || r.TopK > maxTopK {
		return fmt.Errorf("topK must be between 1 and %d", maxTopK)
	}
	if r.MinSimilarity < 0 || r.MinSimilarity > 1 {
		return fmt.Errorf("minSimilarity must be between 0.0 and 1.0")
	}
	return nil
}

type expansionRequest struct {
	SeedKeyword    string `json:"seed_keyword"`
	ExpansionCount int    `json:"expansion_count"`
}

func (r *expansionRequest) validate() error {
	if r.SeedKeyword == "" {
		return fmt.Errorf("seed_keyword must not be empty")
	}
	if r.ExpansionCount == 0 {
		r.ExpansionCount = 50
	}
	if r.ExpansionCount < minExpansionCount || r.ExpansionCount > maxExpansionCount {
		return fmt.Errorf("expansion_count must be between %d and %d", minExpansionCount, maxExpansionCount)
	}
	return nil
}

type clusterRequest struct {
	Keywords     []string `json:"keywords"`
	ClusterCount int      `json:"cluster_count"`
}

func (r *clusterRequest) validate() error {
	if len(r.Keywords) == 0 {
		return fmt.Errorf("keywords must not be empty")
	}
	if len(r.Keywords) > maxClusterInput {
		return fmt.Errorf("at most %d keywords per request", maxClusterInput)
	}
	if r.ClusterCount <= 0 {
		return fmt.Errorf("cluster_count must be positive")
	}
	for _, kw := range r.Keywords {
		if kw == "" {
			return fmt.Errorf("keywords must not contain empty strings")
		}
	}
	return nil
}

type serpRequest struct {
	Keyword      string `json:"keyword"`
	LocationCode int    `json:"locationCode"`
	LanguageCode string `json:"languageCode"`
}

func (r *serpRequest) validate() error {
	if r.Keyword == "" {
		return fmt.Errorf("keyword must not be empty")
	}
	return nil
}
