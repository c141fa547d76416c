package index

// Competitor describes one ranking competitor page for a keyword.
type Competitor struct {
	URL             string `json:"url"`
	Domain          string `json:"domain"`
	Rank            int    `json:"rank"`
	DomainAuthority int    `json:"domain_authority"`
	Backlinks       int    `json:"backlinks"`
	Traffic         int    `json:"traffic"`
	ContentGap      int    `json:"content_gap"`
}

// Record is a keyword with its embedding and SEO metadata.
//
// MissingEntities is a comma-separated entity list as exported by the
// keyword research tooling; ParentTopic and SemanticCluster use "-" or
// "" to mean unset.
type Record struct {
	Keyword           string       `json:"keyword"`
	Embedding         []float32    `json:"embedding,omitempty"`
	SearchVolume      int          `json:"search_volume"`
	KeywordDifficulty int          `json:"keyword_difficulty"`
	CPC               float64      `json:"cpc"`
	Intent            string       `json:"intent,omitempty"`
	SemanticCluster   string       `json:"semantic_cluster,omitempty"`
	MissingEntities   string       `json:"missing_entities,omitempty"`
	ParentTopic       string       `json:"parent_topic,omitempty"`
	Competitors       []Competitor `json:"competitors,omitempty"`
}

// Match is a search hit: the matched record, its cosine similarity to
// the query embedding, and its 1-based position in the result list.
type Match struct {
	Record *Record `json:"record"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"`
}
