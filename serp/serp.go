// Package serp derives SERP competition analysis from indexed keyword
// records: it extracts competitor pages, computes aggregate difficulty
// metrics and produces content recommendations and opportunities.
package serp

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/orbiseo/orbiseo/index"
	"github.com/orbiseo/orbiseo/intent"
)

const (
	maxOrganicResults    = 20
	maxRelatedSearches   = 15
	maxMissingEntities   = 5
	maxParentTopics      = 3
	maxOpportunityLists  = 10
	maxSemanticClusters  = 5
	entitySourceMatches  = 5
	topicSourceMatches   = 10
	volumeSourceMatches  = 5
	highVolumeThreshold  = 1000
	lowDifficultyCeiling = 30
)

// OrganicResult is one competitor page appearing in the SERP,
// reconstructed from a record's competitor slots.
type OrganicResult struct {
	Position          int    `json:"position"`
	URL               string `json:"url"`
	Domain            string `json:"domain"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	DomainAuthority   int    `json:"domain_authority"`
	Traffic           int    `json:"traffic"`
	Keyword           string `json:"keyword"`
	KeywordDifficulty int    `json:"keyword_difficulty"`
	Backlinks         int    `json:"backlinks"`
	ContentGap        int    `json:"content_gap"`
}

// Metrics are the aggregate SERP competition numbers. Averages ignore
// non-positive values and are sanitized to 0 when undefined.
type Metrics struct {
	AvgDomainAuthority     float64 `json:"avg_domain_authority"`
	TotalCompetitorTraffic int     `json:"total_competitor_traffic"`
	AvgKeywordDifficulty   float64 `json:"avg_keyword_difficulty"`
	AvgBacklinks           float64 `json:"avg_backlinks"`
	TopPosition            int     `json:"top_position"`
	SERPDiversity          int     `json:"serp_diversity"`
	CompetitionLevel       string  `json:"competition_level"`
}

// Opportunities lists keywords and clusters worth targeting.
// The score weighs low-difficulty keywords double.
type Opportunities struct {
	HighVolumeKeywords     []string `json:"high_volume_keywords"`
	LowCompetitionKeywords []string `json:"low_competition_keywords"`
	SemanticClusters       []string `json:"semantic_clusters"`
	TotalOpportunityScore  int      `json:"total_opportunity_score"`
}

// Analysis is the full SERP analysis for one keyword.
type Analysis struct {
	Keyword             string          `json:"keyword"`
	Intent              string          `json:"intent"`
	IntentConfidence    float64         `json:"intent_confidence"`
	OrganicResults      []OrganicResult `json:"organic_results"`
	TotalOrganicResults int             `json:"total_organic_results"`
	RelatedSearches     []string        `json:"related_searches"`
	Metrics             Metrics         `json:"serp_metrics"`
	Recommendations     []string        `json:"ai_recommendations"`
	Opportunities       Opportunities   `json:"content_opportunities"`
}

// Analyze builds the SERP analysis for keyword from its semantic
// matches and classified intent. Matches must be ordered best-first.
func Analyze(keyword string, matches []index.Match, queryIntent intent.Result) Analysis {
	organic := ExtractOrganicResults(matches)

	avgDA := avgPositive(organic, func(r OrganicResult) float64 { return float64(r.DomainAuthority) })

	m := Metrics{
		AvgDomainAuthority:   avgDA,
		AvgKeywordDifficulty: avgPositive(organic, func(r OrganicResult) float64 { return float64(r.KeywordDifficulty) }),
		AvgBacklinks:         avgPositive(organic, func(r OrganicResult) float64 { return float64(r.Backlinks) }),
		TopPosition:          topPosition(organic),
		SERPDiversity:        distinctDomains(organic),
		CompetitionLevel:     competitionLevel(avgDA),
	}
	for _, r := range organic {
		m.TotalCompetitorTraffic += r.Traffic
	}

	analysis := Analysis{
		Keyword:             keyword,
		Intent:              queryIntent.Intent,
		IntentConfidence:    queryIntent.Confidence,
		OrganicResults:      truncateResults(organic, maxOrganicResults),
		TotalOrganicResults: len(organic),
		RelatedSearches:     relatedSearches(keyword, matches),
		Metrics:             m,
		Opportunities:       findOpportunities(matches),
	}
	analysis.Recommendations = recommendations(keyword, matches, m, queryIntent.Intent)

	return analysis
}

// ExtractOrganicResults flattens the competitor slots of all matches
// into a deduplicated (by URL) list ordered by SERP position. Slots
// without a URL or a positive rank are skipped.
func ExtractOrganicResults(matches []index.Match) []OrganicResult {
	var results []OrganicResult
	seen := make(map[string]struct{})

	for _, match := range matches {
		rec := match.Record
		if rec == nil {
			continue
		}
		for _, comp := range rec.Competitors {
			if comp.URL == "" || comp.Rank <= 0 {
				continue
			}
			if _, dup := seen[comp.URL]; dup {
				continue
			}
			seen[comp.URL] = struct{}{}

			results = append(results, OrganicResult{
				Position:          comp.Rank,
				URL:               comp.URL,
				Domain:            comp.Domain,
				Title:             fmt.Sprintf("%s - %s", rec.Keyword, comp.Domain),
				Description:       fmt.Sprintf("Ranking page for %q with DA %d", rec.Keyword, comp.DomainAuthority),
				DomainAuthority:   comp.DomainAuthority,
				Traffic:           comp.Traffic,
				Keyword:           rec.Keyword,
				KeywordDifficulty: rec.KeywordDifficulty,
				Backlinks:         comp.Backlinks,
				ContentGap:        comp.ContentGap,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Position < results[j].Position
	})

	return results
}

// avgPositive averages f over results where f > 0, sanitizing NaN and
// Inf to 0.
func avgPositive(results []OrganicResult, f func(OrganicResult) float64) float64 {
	var sum float64
	var n int
	for _, r := range results {
		if v := f(r); v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	avg := sum / float64(n)
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return 0
	}
	return avg
}

func topPosition(results []OrganicResult) int {
	top := 0
	for _, r := range results {
		if top == 0 || r.Position < top {
			top = r.Position
		}
	}
	return top
}

func distinctDomains(results []OrganicResult) int {
	domains := make(map[string]struct{})
	for _, r := range results {
		domains[r.Domain] = struct{}{}
	}
	return len(domains)
}

func competitionLevel(avgDA float64) string {
	switch {
	case avgDA > 60:
		return "Very High"
	case avgDA > 40:
		return "High"
	case avgDA > 25:
		return "Moderate"
	default:
		return "Low"
	}
}

func truncateResults(results []OrganicResult, n int) []OrganicResult {
	if len(results) > n {
		return results[:n]
	}
	return results
}

// relatedSearches takes the best matching keywords, excluding the
// analyzed keyword itself.
func relatedSearches(keyword string, matches []index.Match) []string {
	var related []string
	for _, m := range matches {
		if len(related) == maxRelatedSearches {
			break
		}
		if m.Record == nil || m.Record.Keyword == "" || m.Record.Keyword == keyword {
			continue
		}
		related = append(related, m.Record.Keyword)
	}
	return related
}

func findOpportunities(matches []index.Match) Opportunities {
	var opp Opportunities

	for _, m := range matches {
		if m.Record == nil {
			continue
		}
		if m.Record.SearchVolume > highVolumeThreshold && len(opp.HighVolumeKeywords) < maxOpportunityLists {
			opp.HighVolumeKeywords = append(opp.HighVolumeKeywords, m.Record.Keyword)
		}
		if m.Record.KeywordDifficulty < lowDifficultyCeiling && len(opp.LowCompetitionKeywords) < maxOpportunityLists {
			opp.LowCompetitionKeywords = append(opp.LowCompetitionKeywords, m.Record.Keyword)
		}
	}

	opp.SemanticClusters = collectDistinct(matches, len(matches), maxSemanticClusters, func(r *index.Record) string {
		return r.SemanticCluster
	})
	opp.TotalOpportunityScore = len(opp.HighVolumeKeywords) + 2*len(opp.LowCompetitionKeywords)

	return opp
}

// collectDistinct gathers distinct non-empty values of f from the first
// fromMatches matches, preserving first-seen order, capped at limit.
// "-" marks unset in exported keyword data.
func collectDistinct(matches []index.Match, fromMatches, limit int, f func(*index.Record) string) []string {
	var out []string
	seen := make(map[string]struct{})

	for i, m := range matches {
		if i == fromMatches || len(out) == limit {
			break
		}
		if m.Record == nil {
			continue
		}
		v := strings.TrimSpace(f(m.Record))
		if v == "" || v == "-" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}

// missingEntities merges the comma-separated entity lists of the best
// matches into a distinct, first-seen-ordered list.
func missingEntities(matches []index.Match) []string {
	var out []string
	seen := make(map[string]struct{})

	for i, m := range matches {
		if i == entitySourceMatches {
			break
		}
		if m.Record == nil {
			continue
		}
		raw := m.Record.MissingEntities
		if raw == "" || raw == "-" {
			continue
		}
		for _, e := range strings.Split(raw, ",") {
			e = strings.TrimSpace(e)
			if e == "" {
				continue
			}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}

	if len(out) > maxMissingEntities {
		out = out[:maxMissingEntities]
	}
	return out
}

// recommendations produces the ordered advice list: intent guidance
// first, then competition, difficulty, backlinks, content gaps, topical
// authority, volume targets, content depth and cluster hubs.
func recommendations(keyword string, matches []index.Match, m Metrics, queryIntent string) []string {
	var recs []string

	switch queryIntent {
	case intent.Informational:
		recs = append(recs,
			fmt.Sprintf("Create comprehensive guide content about %q with tutorials and examples", keyword),
			"Focus on answering common questions and providing educational value",
			"Include how-to guides, definitions, and step-by-step instructions",
		)
	case intent.Transactional:
		recs = append(recs,
			fmt.Sprintf("Optimize product/service pages for %q with clear CTAs", keyword),
			"Include pricing, features, and customer testimonials",
			"Add trust signals like guarantees, secure checkout badges, and reviews",
		)
	case intent.Commercial:
		recs = append(recs,
			fmt.Sprintf("Create comparison and review content for %q", keyword),
			"Include pros/cons, alternatives, and buying guides",
			"Add comparison tables, feature matrices, and expert recommendations",
		)
	case intent.Navigational:
		recs = append(recs,
			fmt.Sprintf("Ensure brand pages are optimized for %q", keyword),
			"Focus on brand authority and direct navigation paths",
			"Optimize homepage and key landing pages for brand searches",
		)
	}

	switch {
	case m.AvgDomainAuthority > 60:
		recs = append(recs,
			fmt.Sprintf("Very high competition (avg DA %.0f). Focus on long-tail variations and niche angles", m.AvgDomainAuthority),
			"Consider targeting keywords with DA < 40 for quicker wins",
		)
	case m.AvgDomainAuthority > 40:
		recs = append(recs,
			fmt.Sprintf("Moderate-high competition (avg DA %.0f). Build topical authority with supporting content", m.AvgDomainAuthority))
	default:
		recs = append(recs,
			fmt.Sprintf("Lower competition (avg DA %.0f). Good opportunity for ranking with quality content", m.AvgDomainAuthority))
	}

	switch {
	case m.AvgKeywordDifficulty > 60:
		recs = append(recs,
			fmt.Sprintf("High keyword difficulty (%.0f). Plan a 6-12 month campaign with a strong backlink strategy", m.AvgKeywordDifficulty))
	case m.AvgKeywordDifficulty > 40:
		recs = append(recs,
			fmt.Sprintf("Moderate keyword difficulty (%.0f). Focus on content quality and on-page optimization", m.AvgKeywordDifficulty))
	default:
		recs = append(recs,
			fmt.Sprintf("Lower keyword difficulty (%.0f). Quick win opportunity with solid content", m.AvgKeywordDifficulty))
	}

	if m.AvgBacklinks > 1000 {
		recs = append(recs,
			fmt.Sprintf("Competitors have strong backlink profiles (avg %.0f links). Prioritize link building", m.AvgBacklinks))
	} else if m.AvgBacklinks > 100 {
		recs = append(recs,
			fmt.Sprintf("Moderate backlink requirement (avg %.0f links). Focus on quality over quantity", m.AvgBacklinks))
	}

	if entities := missingEntities(matches); len(entities) > 0 {
		recs = append(recs, "Cover missing entities: "+strings.Join(entities, ", "))
	}

	topics := collectDistinct(matches, topicSourceMatches, maxParentTopics, func(r *index.Record) string {
		return r.ParentTopic
	})
	if len(topics) > 0 {
		recs = append(recs, "Build topical authority around: "+strings.Join(topics, ", "))
	}

	var targetVolume int
	for i, match := range matches {
		if i == volumeSourceMatches {
			break
		}
		if match.Record != nil {
			targetVolume += match.Record.SearchVolume
		}
	}
	recs = append(recs, fmt.Sprintf("Target search volume: %d (top %d related keywords)", targetVolume, volumeSourceMatches))

	switch {
	case m.AvgKeywordDifficulty > 50:
		recs = append(recs, "Recommended content depth: 2000+ words with comprehensive semantic keyword coverage")
	case m.AvgKeywordDifficulty > 30:
		recs = append(recs, "Recommended content depth: 1500+ words with good semantic keyword coverage")
	default:
		recs = append(recs, "Recommended content depth: 1000+ words with focused keyword targeting")
	}

	clusters := collectDistinct(matches, len(matches), maxParentTopics, func(r *index.Record) string {
		return r.SemanticCluster
	})
	if len(clusters) > 0 {
		recs = append(recs, "Create content hubs around semantic clusters: "+strings.Join(clusters, ", "))
	}

	return recs
}
