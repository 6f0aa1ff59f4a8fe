package unitgraph

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a stable hex digest of the graph's labelled edges.
//
// Two graphs built from tables with the same ratios share a fingerprint,
// whatever ids their units received. Persistent rate caches namespace keys
// by fingerprint so a changed table never serves stale rates.
func Fingerprint(g *Graph) string {
	type labelled struct {
		src, dst string
		weight   float64
	}

	g.mu.RLock()
	entries := make([]labelled, 0, g.edges)
	for src, adj := range g.out {
		for dst, w := range adj {
			entries = append(entries, labelled{g.nodes[src].Label, g.nodes[dst].Label, w})
		}
	}
	g.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].src != entries[j].src {
			return entries[i].src < entries[j].src
		}
		return entries[i].dst < entries[j].dst
	})

	h, _ := blake2b.New256(nil)
	var buf [8]byte
	for _, e := range entries {
		h.Write([]byte(e.src))
		h.Write([]byte{0})
		h.Write([]byte(e.dst))
		h.Write([]byte{0})
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(e.weight))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
