package unitgraph

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/orneryd/recipeconv/pkg/metrics"
)

// Unresolved is the rate Resolve returns when no conversion exists.
const Unresolved = -1.0

// Resolution errors.
var (
	ErrUnknownUnit = errors.New("unknown unit")
	ErrUnreachable = errors.New("no conversion path")
)

// RateCache memoises resolved rates between two units. Rates are stored
// without any multiplier applied.
type RateCache interface {
	GetRate(from, to string) (float64, bool)
	PutRate(from, to string, rate float64)
}

// Resolver computes conversion rates between units of a Graph.
//
// Rates for units without a direct edge are derived by multiplying edge
// weights along the first breadth-first path found. Neighbours are visited
// in ascending id order so the chosen path does not depend on map order.
type Resolver struct {
	graph  *Graph
	cache  RateCache
	logger *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRateCache puts a cache in front of graph traversal.
func WithRateCache(c RateCache) ResolverOption {
	return func(r *Resolver) { r.cache = c }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver over g.
func NewResolver(g *Graph, opts ...ResolverOption) *Resolver {
	r := &Resolver{graph: g, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Graph returns the graph the resolver walks.
func (r *Resolver) Graph() *Graph {
	return r.graph
}

// Rate returns how many `to` units make one `from` unit.
//
// Returns ErrUnknownUnit when either label is not in the graph and
// ErrUnreachable when the two units are not connected. Rate(u, u) is 1 for
// any known unit.
//
// Example:
//
//	rate, err := r.Rate("cup", "teaspoon") // 48, nil
//	rate, err = r.Rate("cup", "furlong")   // 0, ErrUnknownUnit
func (r *Resolver) Rate(from, to string) (float64, error) {
	start := time.Now()
	defer func() {
		metrics.RateLookupDuration.Observe(time.Since(start).Seconds())
	}()

	if r.cache != nil {
		if rate, ok := r.cache.GetRate(from, to); ok {
			metrics.RateLookups.WithLabelValues(metrics.ResultHit).Inc()
			return rate, nil
		}
	}

	rate, err := r.traverse(from, to)
	switch {
	case errors.Is(err, ErrUnknownUnit):
		metrics.RateLookups.WithLabelValues(metrics.ResultUnknown).Inc()
		return 0, err
	case errors.Is(err, ErrUnreachable):
		metrics.RateLookups.WithLabelValues(metrics.ResultUnreachable).Inc()
		return 0, err
	}

	metrics.RateLookups.WithLabelValues(metrics.ResultResolved).Inc()
	if r.cache != nil {
		r.cache.PutRate(from, to, rate)
	}
	r.logger.Debug("rate resolved",
		slog.String("from", from),
		slog.String("to", to),
		slog.Float64("rate", rate))
	return rate, nil
}

// Resolve returns Rate(from, to) * multiplier, or Unresolved when no rate
// exists. It never fails; callers compare against Unresolved.
func (r *Resolver) Resolve(from, to string, multiplier float64) float64 {
	rate, err := r.Rate(from, to)
	if err != nil {
		return Unresolved
	}
	return rate * multiplier
}

func (r *Resolver) traverse(from, to string) (float64, error) {
	g := r.graph
	g.mu.RLock()
	defer g.mu.RUnlock()

	start, ok := g.labelIDs[from]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, from)
	}
	dest, ok := g.labelIDs[to]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, to)
	}

	rate := map[int]float64{start: 1}
	queue := []int{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == dest {
			return rate[cur], nil
		}
		for _, next := range sortedNeighbors(g.out[cur]) {
			if _, seen := rate[next]; seen {
				continue
			}
			rate[next] = rate[cur] * g.out[cur][next]
			queue = append(queue, next)
		}
	}
	return 0, fmt.Errorf("%w: %q to %q", ErrUnreachable, from, to)
}

func sortedNeighbors(adj map[int]float64) []int {
	ids := make([]int, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
