// Package unitgraph models conversion ratios between units as a directed,
// weighted graph and resolves rates between any two connected units.
//
// Each unit ("cup", "tablespoon", "milliliter") is a node with an integer id
// and a unique label. An edge src→dst with weight w means "1 src = w dst".
// The builder always adds both directions of a ratio, so every edge has a
// reciprocal partner.
//
// Example Usage:
//
//	rows, _ := table.DefaultRatioTable()
//	g, err := unitgraph.Build(rows)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	r := unitgraph.NewResolver(g)
//	rate, err := r.Rate("cup", "teaspoon") // 48
//
// Path consistency:
//
// The resolver walks the graph breadth-first and keeps the first rate it
// finds for each unit. That is only correct when every path between two
// units multiplies out to the same rate, which holds for a forest of
// proportional relationships and for cycles whose ratios agree. Tables that
// introduce cycles should be checked with CheckConsistency.
package unitgraph

import (
	"sort"
	"sync"
)

// Node is a unit in the graph.
type Node struct {
	ID    int
	Label string
}

// Graph is a directed, weighted, node-labelled graph.
//
// Features:
//   - O(1) node and edge existence checks
//   - Adjacency stored in both directions (out and in) for every edge
//   - Incremental edge count
//   - Label → id index with an explicit presence flag
//
// Thread Safety:
//
//	All methods are safe for concurrent use. The converter builds the graph
//	once and only reads it afterwards.
type Graph struct {
	mu       sync.RWMutex
	nodes    map[int]*Node
	out      map[int]map[int]float64
	in       map[int]map[int]float64
	labelIDs map[string]int
	edges    int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[int]*Node),
		out:      make(map[int]map[int]float64),
		in:       make(map[int]map[int]float64),
		labelIDs: make(map[string]int),
	}
}

// AddNode registers a node.
//
// Uniqueness is enforced on the label, not the id: AddNode returns false and
// changes nothing when a node with the same label already exists. Adding a
// new label under an id that is already taken relabels that node and keeps
// its edges.
func (g *Graph) AddNode(id int, label string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.labelIDs[label]; exists {
		return false
	}
	g.labelIDs[label] = id
	if n := g.nodes[id]; n != nil {
		delete(g.labelIDs, n.Label)
		n.Label = label
		return true
	}
	g.nodes[id] = &Node{ID: id, Label: label}
	g.out[id] = make(map[int]float64)
	g.in[id] = make(map[int]float64)
	return true
}

// AddEdge adds the directed edge src→dst.
//
// Returns false when either endpoint is missing or the edge already exists
// in that direction. The reverse edge is never added implicitly.
func (g *Graph) AddEdge(src, dst int, weight float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.nodes[src] == nil || g.nodes[dst] == nil {
		return false
	}
	if _, exists := g.out[src][dst]; exists {
		return false
	}
	if _, exists := g.in[dst][src]; exists {
		return false
	}
	g.out[src][dst] = weight
	g.in[dst][src] = weight
	g.edges++
	return true
}

// RemoveNode removes a node with all of its outgoing and incoming edges.
// Returns false when the node does not exist.
func (g *Graph) RemoveNode(id int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	node := g.nodes[id]
	if node == nil {
		return false
	}

	for dst := range g.out[id] {
		g.removeEdgeUnlocked(id, dst)
	}
	for src := range g.in[id] {
		g.removeEdgeUnlocked(src, id)
	}

	delete(g.out, id)
	delete(g.in, id)
	delete(g.nodes, id)
	if g.labelIDs[node.Label] == id {
		delete(g.labelIDs, node.Label)
	}
	return true
}

// RemoveEdge removes the edge src→dst from both adjacency directions.
// Returns false when the edge is missing from either one.
func (g *Graph) RemoveEdge(src, dst int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.removeEdgeUnlocked(src, dst)
}

func (g *Graph) removeEdgeUnlocked(src, dst int) bool {
	if _, ok := g.out[src][dst]; !ok {
		return false
	}
	if _, ok := g.in[dst][src]; !ok {
		return false
	}
	delete(g.out[src], dst)
	delete(g.in[dst], src)
	g.edges--
	return true
}

// HasEdge reports whether src→dst exists.
func (g *Graph) HasEdge(src, dst int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.out[src][dst]
	return ok
}

// Weight returns the weight of src→dst.
func (g *Graph) Weight(src, dst int) (float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	w, ok := g.out[src][dst]
	return w, ok
}

// OutEdges returns a copy of the edges leaving id, keyed by destination.
// Unknown ids yield an empty map.
func (g *Graph) OutEdges(id int) map[int]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return copyAdjacency(g.out[id])
}

// InEdges returns a copy of the edges entering id, keyed by source.
func (g *Graph) InEdges(id int) map[int]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return copyAdjacency(g.in[id])
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges
}

// NodeID looks up the id registered for label.
func (g *Graph) NodeID(label string) (int, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.labelIDs[label]
	return id, ok
}

// Label returns the label of node id.
func (g *Graph) Label(id int) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n := g.nodes[id]; n != nil {
		return n.Label, true
	}
	return "", false
}

// Nodes returns all nodes ordered by id.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, *n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Labels returns all unit labels ordered by node id.
func (g *Graph) Labels() []string {
	nodes := g.Nodes()
	labels := make([]string, len(nodes))
	for i, n := range nodes {
		labels[i] = n.Label
	}
	return labels
}

// Edge is a directed edge as reported by Edges.
type Edge struct {
	Src    int
	Dst    int
	Weight float64
}

// Edges returns every edge ordered by (Src, Dst).
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := make([]Edge, 0, g.edges)
	for src, adj := range g.out {
		for dst, w := range adj {
			edges = append(edges, Edge{Src: src, Dst: dst, Weight: w})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Src != edges[j].Src {
			return edges[i].Src < edges[j].Src
		}
		return edges[i].Dst < edges[j].Dst
	})
	return edges
}

func copyAdjacency(adj map[int]float64) map[int]float64 {
	c := make(map[int]float64, len(adj))
	for k, v := range adj {
		c[k] = v
	}
	return c
}
