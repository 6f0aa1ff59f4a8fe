package unitgraph

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// DefaultTolerance is the relative error CheckConsistency accepts between an
// edge weight and the rate implied by the rest of its component.
const DefaultTolerance = 1e-4

// ErrInconsistentCycle is returned when two paths between the same units
// disagree on the rate.
var ErrInconsistentCycle = errors.New("inconsistent conversion cycle")

// CheckConsistency verifies that every path between two units yields the
// same rate, which the breadth-first resolver relies on.
//
// Every connected component gets a potential p, with p(root) = 1 at its
// lowest id, propagated along edges in both directions. An edge src→dst
// with weight w is consistent when w equals p(dst)/p(src) within the given
// relative tolerance. A non-positive tolerance uses DefaultTolerance.
func CheckConsistency(g *Graph, tolerance float64) error {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]int, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	potential := make(map[int]float64, len(ids))
	for _, root := range ids {
		if _, seen := potential[root]; seen {
			continue
		}
		potential[root] = 1
		queue := []int{root}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range sortedNeighbors(g.out[cur]) {
				if _, seen := potential[next]; !seen {
					potential[next] = potential[cur] * g.out[cur][next]
					queue = append(queue, next)
				}
			}
			for _, prev := range sortedNeighbors(g.in[cur]) {
				if _, seen := potential[prev]; !seen {
					potential[prev] = potential[cur] / g.in[cur][prev]
					queue = append(queue, prev)
				}
			}
		}
	}

	for _, src := range ids {
		for _, dst := range sortedNeighbors(g.out[src]) {
			w := g.out[src][dst]
			implied := potential[dst] / potential[src]
			if !withinTolerance(w, implied, tolerance) {
				return fmt.Errorf("%w: %s→%s is %g but other paths give %g",
					ErrInconsistentCycle, g.nodes[src].Label, g.nodes[dst].Label, w, implied)
			}
		}
	}
	return nil
}

func withinTolerance(got, want, tolerance float64) bool {
	if math.IsNaN(got) || math.IsNaN(want) || math.IsInf(want, 0) {
		return false
	}
	scale := math.Max(math.Abs(got), math.Abs(want))
	if scale == 0 {
		return true
	}
	return math.Abs(got-want)/scale <= tolerance
}
