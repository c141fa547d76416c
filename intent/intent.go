// Package intent classifies the search intent of a query. The primary
// path embeds the query and compares it against per-intent template
// embeddings; a rule-based classifier backs it up when no embedder is
// available or the embedding signal is too weak.
package intent

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/orbiseo/orbiseo/distance"
	"github.com/orbiseo/orbiseo/embedding"
)

// Intent labels follow the standard SEO taxonomy.
const (
	Informational = "informational"
	Transactional = "transactional"
	Commercial    = "commercial"
	Navigational  = "navigational"
)

const (
	// minConfidence is the embedding-similarity floor below which the
	// rule-based fallback takes over.
	minConfidence = 0.3

	// fallbackConfidence is reported for rule-based classifications.
	fallbackConfidence = 0.6
)

// templates holds representative phrasings per intent. The query is
// scored against each template and an intent scores its best template.
var templates = map[string][]string{
	Informational: {
		"how to do something",
		"what is this",
		"why does this happen",
		"when should I do this",
		"where can I find information",
		"tutorial guide explanation",
		"learn about topic",
		"understand concept",
		"definition meaning",
	},
	Transactional: {
		"buy product now",
		"purchase item online",
		"order service",
		"subscribe download",
		"get discount deal",
		"checkout cart",
		"register sign up",
		"book appointment",
	},
	Commercial: {
		"best product review",
		"top rated comparison",
		"compare products",
		"which is better",
		"product vs alternative",
		"recommended options",
		"affordable cheap",
		"reviews ratings",
	},
	Navigational: {
		"website login",
		"brand official site",
		"company homepage",
		"social media page",
		"specific website",
		"sign in account",
	},
}

// Result is a classified intent with its confidence.
type Result struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Classifier classifies query intent. The zero value is not usable;
// construct with New.
type Classifier struct {
	embedder embedding.Embedder
	logger   *slog.Logger

	mu          sync.Mutex
	templateVec map[string][][]float32
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Classifier. A nil embedder yields a classifier that
// only uses the rule-based path.
func New(embedder embedding.Embedder, opts ...Option) *Classifier {
	c := &Classifier{
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify determines the intent of query. Embedding failures and
// low-confidence embedding results degrade to the rule-based
// classifier; Classify itself never fails.
func (c *Classifier) Classify(ctx context.Context, query string) Result {
	if c.embedder == nil {
		return ClassifyRules(query)
	}

	tmpl := c.templateEmbeddings(ctx)
	if tmpl == nil {
		return ClassifyRules(query)
	}

	queryVec, err := embedding.Embed(ctx, c.embedder, query)
	if err != nil {
		c.logger.Warn("query embedding failed, using rule-based intent", "error", err)
		return ClassifyRules(query)
	}

	best := Result{Intent: Informational}
	for name, tmplVecs := range tmpl {
		score := 0.0
		for _, tv := range tmplVecs {
			if s := float64(distance.Cosine(queryVec, tv)); s > score {
				score = s
			}
		}
		if score > best.Confidence {
			best = Result{Intent: name, Confidence: score}
		}
	}

	if best.Confidence < minConfidence {
		c.logger.Debug("low intent confidence, using rule-based fallback",
			"intent", best.Intent,
			"confidence", best.Confidence,
		)
		return ClassifyRules(query)
	}

	return best
}

// templateEmbeddings lazily embeds every template, batched per intent.
// A failed attempt is not cached: the next Classify retries, so a
// transient provider outage does not pin the classifier to the
// rule-based path for the process lifetime.
func (c *Classifier) templateEmbeddings(ctx context.Context) map[string][][]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.templateVec != nil {
		return c.templateVec
	}

	vecs := make(map[string][][]float32, len(templates))
	for name, phrases := range templates {
		vs, err := c.embedder.BatchEmbed(ctx, phrases)
		if err != nil {
			c.logger.Warn("failed to embed intent templates", "intent", name, "error", err)
			return nil
		}
		vecs[name] = vs
	}

	c.templateVec = vecs
	return vecs
}

var (
	transactionalKeywords = []string{
		"buy", "purchase", "order", "shop", "cart", "checkout", "price",
		"cost", "cheap", "discount", "deal", "sale", "coupon", "free shipping",
		"buy now", "get", "subscribe", "sign up", "register", "download",
	}
	commercialKeywords = []string{
		"best", "top", "review", "comparison", "vs", "versus", "alternative",
		"compare", "better", "recommended", "which", "should i", "worth it",
		"pros and cons", "affordable",
	}
	navigationalPatterns = []string{
		"login", "sign in", "website", "official site", "facebook", "twitter",
		"youtube", "instagram", "linkedin",
	}
	questionWords = []string{"how", "what", "why", "when", "where", "who"}

	informationalKeywords = []string{
		"how", "what", "why", "when", "where", "who", "guide", "tutorial",
		"tips", "learn", "explain", "meaning", "definition", "examples",
		"ways to", "benefits of", "types of", "list of", "ideas",
	}
)

// ClassifyRules is the rule-based classifier: substring keyword lists
// checked in precedence order (transactional, commercial, navigational,
// informational), with a short-query navigational heuristic. Unmatched
// queries default to informational.
func ClassifyRules(query string) Result {
	q := strings.ToLower(query)

	if containsAny(q, transactionalKeywords) {
		return Result{Intent: Transactional, Confidence: fallbackConfidence}
	}
	if containsAny(q, commercialKeywords) {
		return Result{Intent: Commercial, Confidence: fallbackConfidence}
	}
	if containsAny(q, navigationalPatterns) {
		return Result{Intent: Navigational, Confidence: fallbackConfidence}
	}

	// Short queries without a question word are usually brand lookups.
	if len(strings.Fields(q)) <= 2 && !containsAny(q, questionWords) {
		return Result{Intent: Navigational, Confidence: fallbackConfidence}
	}

	if containsAny(q, informationalKeywords) {
		return Result{Intent: Informational, Confidence: fallbackConfidence}
	}

	return Result{Intent: Informational, Confidence: fallbackConfidence}
}

func containsAny(q string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(q, n) {
			return true
		}
	}
	return false
}
