// Package cluster implements semantic keyword clustering: it partitions
// keyword embeddings with k-means and labels each resulting group through
// an external naming provider.
package cluster

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orbiseo/orbiseo/kmeans"
	"github.com/orbiseo/orbiseo/naming"
	"github.com/orbiseo/orbiseo/resource"
)

const (
	// DefaultNamingTimeout bounds a single naming provider call.
	DefaultNamingTimeout = 10 * time.Second

	// DefaultNamingConcurrency bounds the naming fan-out.
	DefaultNamingConcurrency = 4
)

// Clusterer groups keywords by embedding similarity and names each group.
//
// A Clusterer holds no per-call state; concurrent calls operate on
// independent local copies of centroids and assignments.
type Clusterer struct {
	namer             naming.Namer
	ctrl              *resource.Controller
	logger            *slog.Logger
	seed              int64
	maxIterations     int
	namingTimeout     time.Duration
	namingConcurrency int
}

// Option configures a Clusterer.
type Option func(*Clusterer)

// WithController sets the resource controller throttling naming calls.
func WithController(ctrl *resource.Controller) Option {
	return func(c *Clusterer) {
		c.ctrl = ctrl
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Clusterer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSeed fixes the random seed used for centroid initialization and
// empty-cluster reseeding, making clustering runs reproducible.
func WithSeed(seed int64) Option {
	return func(c *Clusterer) {
		c.seed = seed
	}
}

// WithMaxIterations overrides the partitioning iteration limit.
func WithMaxIterations(n int) Option {
	return func(c *Clusterer) {
		c.maxIterations = n
	}
}

// WithNamingTimeout bounds each naming provider call.
func WithNamingTimeout(d time.Duration) Option {
	return func(c *Clusterer) {
		if d > 0 {
			c.namingTimeout = d
		}
	}
}

// WithNamingConcurrency bounds the concurrent naming fan-out.
func WithNamingConcurrency(n int) Option {
	return func(c *Clusterer) {
		if n > 0 {
			c.namingConcurrency = n
		}
	}
}

// New creates a Clusterer using the given naming provider.
// If namer is nil, every cluster receives a fallback label derived from
// its first keyword.
func New(namer naming.Namer, opts ...Option) *Clusterer {
	c := &Clusterer{
		namer:             namer,
		logger:            slog.Default(),
		maxIterations:     kmeans.DefaultMaxIterations,
		namingTimeout:     DefaultNamingTimeout,
		namingConcurrency: DefaultNamingConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cluster partitions keywords into at most count named groups.
//
// Degraded inputs produce a defined result instead of an error: empty or
// mismatched keyword/embedding lists and non-positive counts all yield an
// empty mapping. The returned error is non-nil only when ctx is canceled.
//
// If two clusters receive the same label, the later one wins.
func (c *Clusterer) Cluster(ctx context.Context, keywords []string, embeddings [][]float32, count int) (map[string][]string, error) {
	if len(keywords) == 0 || len(embeddings) == 0 {
		return map[string][]string{}, nil
	}

	if len(keywords) != len(embeddings) {
		c.logger.Warn("keyword/embedding length mismatch, returning empty result",
			"keywords", len(keywords),
			"embeddings", len(embeddings),
		)
		return map[string][]string{}, nil
	}

	// You cannot have more non-empty clusters than points.
	if count > len(keywords) {
		count = len(keywords)
	}
	if count <= 0 {
		return map[string][]string{}, nil
	}

	rng := c.newRNG()

	centroids := kmeans.InitCentroids(rng, embeddings, count)
	if len(centroids) < count {
		c.logger.Warn("fewer distinct embeddings than requested clusters, reducing cluster count",
			"requested", count,
			"effective", len(centroids),
		)
	}

	res, err := kmeans.Partition(ctx, rng, embeddings, centroids, c.maxIterations)
	if err != nil {
		return nil, err
	}

	groups := GroupByAssignment(keywords, res.Assignments, len(centroids))
	if len(groups) == 0 {
		return map[string][]string{}, nil
	}

	labels := c.nameClusters(ctx, groups)

	out := make(map[string][]string, len(groups))
	for i, group := range groups {
		out[labels[i]] = group
	}

	return out, nil
}

// GroupByAssignment groups keywords by their assigned cluster index,
// preserving input order within each group and dropping empty clusters.
// Given the same assignment vector it always yields the same partition.
func GroupByAssignment(keywords []string, assignments []int, k int) [][]string {
	if len(keywords) == 0 || len(assignments) == 0 {
		return nil
	}

	byIndex := make([][]string, k)
	for i, a := range assignments {
		if i >= len(keywords) || a < 0 || a >= k {
			continue
		}
		byIndex[a] = append(byIndex[a], keywords[i])
	}

	groups := make([][]string, 0, k)
	for _, g := range byIndex {
		if len(g) > 0 {
			groups = append(groups, g)
		}
	}

	return groups
}

// nameClusters fans out one naming call per group with bounded concurrency
// and a per-call timeout. A failed or timed-out call falls back to a label
// derived from the group's first keyword; one slow provider call never
// stalls the whole run beyond its own timeout.
func (c *Clusterer) nameClusters(ctx context.Context, groups [][]string) []string {
	labels := make([]string, len(groups))

	if c.namer == nil {
		for i, g := range groups {
			labels[i] = naming.FallbackLabel(g)
		}
		return labels
	}

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.namingConcurrency)

	for i, group := range groups {
		g.Go(func() error {
			label, err := c.nameOne(gctx, group)
			if err != nil {
				c.logger.Warn("cluster naming failed, using fallback label",
					"keywords", len(group),
					"error", err,
				)
				label = naming.FallbackLabel(group)
			}

			mu.Lock()
			labels[i] = label
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; failures degrade to fallback labels.
	_ = g.Wait()

	return labels
}

func (c *Clusterer) nameOne(ctx context.Context, group []string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.namingTimeout)
	defer cancel()

	if c.ctrl != nil {
		if err := c.ctrl.Acquire(callCtx); err != nil {
			return "", err
		}
		defer c.ctrl.Release()
	}

	return c.namer.NameCluster(callCtx, group)
}

func (c *Clusterer) newRNG() *rand.Rand {
	seed := c.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
