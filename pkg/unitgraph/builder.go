package unitgraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/orneryd/recipeconv/pkg/convert"
	"github.com/orneryd/recipeconv/pkg/table"
)

// ErrInvalidRatio is returned for a ratio-table cell that is not a positive
// "<quantity> <unit>" pair.
var ErrInvalidRatio = errors.New("invalid ratio")

// ParseQuantityUnit splits a "<quantity> <unit>" cell such as "16 tablespoon"
// or "1 ½ cup". The unit is the last whitespace-separated field, lower-cased;
// everything before it is the quantity, parsed as a decimal or a fraction.
func ParseQuantityUnit(cell string) (float64, string, error) {
	fields := strings.Fields(cell)
	if len(fields) < 2 {
		return 0, "", fmt.Errorf("%w: %q: want \"<quantity> <unit>\"", ErrInvalidRatio, cell)
	}
	unit := strings.ToLower(fields[len(fields)-1])
	qty, err := convert.ParseAmount(strings.Join(fields[:len(fields)-1], " "))
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q: %v", ErrInvalidRatio, cell, err)
	}
	if qty <= 0 {
		return 0, "", fmt.Errorf("%w: %q: quantity must be positive", ErrInvalidRatio, cell)
	}
	return qty, unit, nil
}

// Build constructs a unit graph from ratio rows.
//
// Each distinct unit becomes a node, numbered from 0 in order of first
// appearance. Each row adds two edges: left→right weighted right/left and
// right→left weighted left/right. A repeated unit pair keeps the first
// row's ratio; the graph rejects the duplicate edges.
//
// Example:
//
//	g, err := unitgraph.Build([]table.RatioRow{{Left: "1 cup", Right: "16 tablespoon"}})
//	// nodes: cup=0, tablespoon=1
//	// edges: cup→tablespoon 16, tablespoon→cup 0.0625
func Build(rows []table.RatioRow) (*Graph, error) {
	g := New()
	next := 0

	register := func(unit string) int {
		if g.AddNode(next, unit) {
			next++
		}
		id, _ := g.NodeID(unit)
		return id
	}

	for i, row := range rows {
		q1, u1, err := ParseQuantityUnit(row.Left)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		q2, u2, err := ParseQuantityUnit(row.Right)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		id1, id2 := register(u1), register(u2)
		g.AddEdge(id1, id2, q2/q1)
		g.AddEdge(id2, id1, q1/q2)
	}

	return g, nil
}
