// Package recipe converts volumetric recipe lines into grams.
//
// A Converter holds the ingredient density table and a unit-rate resolver.
// Each ingredient line is parsed into amount, unit and ingredient, scaled by
// a multiplier, and written back out in grams when the ingredient is in the
// density table. Lines that cannot be converted are returned unchanged, so
// one bad line never spoils a recipe.
//
// Example Usage:
//
//	densities, _ := table.DefaultDensityTable()
//	rows, _ := table.DefaultRatioTable()
//	g, _ := unitgraph.Build(rows)
//
//	conv := recipe.New(densities, unitgraph.NewResolver(g))
//	out := conv.ConvertRecipe("1 cup flour\n2 oz butter", 1)
//	// "125 g flour\n56.7 g butter"
//
// Density Matching:
//
// An ingredient matches the first density row whose name occurs anywhere in
// it. Table order is significant: "brown sugar" has to come before "sugar"
// for "1 cup brown sugar" to pick the brown sugar density.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/orneryd/recipeconv/pkg/convert"
	"github.com/orneryd/recipeconv/pkg/logging"
	"github.com/orneryd/recipeconv/pkg/metrics"
	"github.com/orneryd/recipeconv/pkg/pool"
	"github.com/orneryd/recipeconv/pkg/storage"
	"github.com/orneryd/recipeconv/pkg/table"
	"github.com/orneryd/recipeconv/pkg/unitgraph"
)

// Fixed mass conversions.
const (
	OunceToGram = 28.3495
	PoundToGram = 453.592
)

// UnitGram is the unit written for converted lines.
const UnitGram = "g"

// Line conversion errors.
var (
	// ErrParse means the amount or unit could not be read from a line.
	ErrParse = errors.New("cannot parse ingredient line")
	// ErrNoDensity means the ingredient is in the density table but has no
	// factor for the line's unit.
	ErrNoDensity = errors.New("no density for unit")
)

// Converter converts ingredient lines. It is safe for concurrent use once
// constructed.
type Converter struct {
	densities    []table.DensityRow
	resolver     *unitgraph.Resolver
	logger       *slog.Logger
	useUnitGraph bool
	workers      int
	store        *storage.RateStore
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger for pass-through warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithUnitGraphFill resolves a missing density cell through the unit graph.
// With it, "1 cup baking soda" converts using the teaspoon density times 48.
func WithUnitGraphFill(enabled bool) Option {
	return func(c *Converter) { c.useUnitGraph = enabled }
}

// WithWorkers bounds how many recipes ConvertRecipes converts at once.
func WithWorkers(n int) Option {
	return func(c *Converter) { c.workers = n }
}

// New creates a converter. densities is searched in order.
func New(densities []table.DensityRow, resolver *unitgraph.Resolver, opts ...Option) *Converter {
	c := &Converter{
		densities: densities,
		resolver:  resolver,
		logger:    slog.Default(),
		workers:   1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		c.workers = 1
	}
	return c
}

// Resolver returns the unit-rate resolver.
func (c *Converter) Resolver() *unitgraph.Resolver {
	return c.resolver
}

// Units returns the unit names the resolver knows, ordered by node id.
func (c *Converter) Units() []string {
	if c.resolver == nil {
		return nil
	}
	return c.resolver.Graph().Labels()
}

// Densities returns the density table in match order.
func (c *Converter) Densities() []table.DensityRow {
	return c.densities
}

// Close releases the persistent rate store, if the converter owns one.
func (c *Converter) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

// ConvertVolumeToMass converts one ingredient line.
//
// Ounces and pounds convert with fixed factors. Cups, tablespoons and
// teaspoons use the density table; an ingredient that is not in the table
// keeps its unit and only has its amount scaled.
//
// Example:
//
//	c.ConvertVolumeToMass("1 cup flour", 1)           // "125 g flour"
//	c.ConvertVolumeToMass("2 oz butter", 1)           // "56.7 g butter"
//	c.ConvertVolumeToMass("3 cup mystery-powder", 1)  // "3 cup mystery-powder"
//	c.ConvertVolumeToMass("1 cup flour", 2)           // "250 g flour"
func (c *Converter) ConvertVolumeToMass(line string, multiplier float64) (string, error) {
	out, _, err := c.convert(line, multiplier)
	return out, err
}

func (c *Converter) convert(line string, multiplier float64) (string, bool, error) {
	ing, err := ExtractFromLine(line)
	if err != nil {
		return "", false, err
	}

	amount, err := convert.ParseAmount(ing.Amount)
	if err != nil {
		return "", false, fmt.Errorf("%w: amount %q: %w", ErrParse, ing.Amount, err)
	}

	var factor float64
	unit := ing.Unit
	switch unit {
	case UnitOunce:
		factor, unit = OunceToGram, UnitGram
	case UnitPound:
		factor, unit = PoundToGram, UnitGram
	default:
		factor, unit, err = c.IngredientConversion(ing.Name, unit)
		if err != nil {
			return "", false, err
		}
	}

	rendered := convert.FormatAmount(amount * factor * multiplier)
	converted := unit == UnitGram
	if unit == "" {
		return rendered + " " + ing.Name, converted, nil
	}
	return rendered + " " + unit + " " + ing.Name, converted, nil
}

// IngredientConversion returns the factor that turns one unit of ingredient
// into grams, along with the output unit.
//
// The first density row whose name occurs in ingredient wins. When no row
// matches, the factor is 1 and unit comes back unchanged. When the row
// matches but has no factor for unit, the unit graph fill (if enabled) tries
// the cup, tablespoon and teaspoon columns in turn; otherwise ErrNoDensity
// is returned.
func (c *Converter) IngredientConversion(ingredient, unit string) (float64, string, error) {
	row, ok := c.lookupDensity(ingredient)
	if !ok {
		return 1, unit, nil
	}

	if f, ok := row.Factor(unit); ok {
		return f, UnitGram, nil
	}

	if c.useUnitGraph && c.resolver != nil && unit != "" {
		for _, col := range table.Columns {
			f, ok := row.Factor(col)
			if !ok {
				continue
			}
			rate, err := c.resolver.Rate(unit, col)
			if err != nil {
				continue
			}
			return rate * f, UnitGram, nil
		}
	}

	return 0, "", fmt.Errorf("%w: %q has no %q factor", ErrNoDensity, row.Ingredient, unit)
}

func (c *Converter) lookupDensity(ingredient string) (table.DensityRow, bool) {
	for _, row := range c.densities {
		if row.Matches(ingredient) {
			return row, true
		}
	}
	return table.DensityRow{}, false
}

// ConvertLine converts a line and never fails. On any error the original
// line is logged and returned unchanged.
func (c *Converter) ConvertLine(line string, multiplier float64) string {
	return c.convertLine(c.logger, line, multiplier)
}

func (c *Converter) convertLine(logger *slog.Logger, line string, multiplier float64) string {
	out, converted, err := c.convert(line, multiplier)
	if err != nil {
		metrics.LinesTotal.WithLabelValues(metrics.ResultFailed).Inc()
		logger.Warn("could not convert line",
			slog.String("line", line),
			slog.Any("error", err))
		return line
	}
	if converted {
		metrics.LinesTotal.WithLabelValues(metrics.ResultConverted).Inc()
	} else {
		metrics.LinesTotal.WithLabelValues(metrics.ResultPassthrough).Inc()
	}
	return out
}

// ConvertRecipe converts every non-empty line of text independently and
// joins the results with newlines. Empty lines stay empty and trailing
// whitespace is trimmed from the result.
//
// Example:
//
//	c.ConvertRecipe("1 cup flour\n2 oz butter", 1)
//	// "125 g flour\n56.7 g butter"
func (c *Converter) ConvertRecipe(text string, multiplier float64) string {
	return c.ConvertRecipeContext(context.Background(), text, multiplier)
}

// ConvertRecipeContext is ConvertRecipe with warnings written to the logger
// carried by ctx, if any.
func (c *Converter) ConvertRecipeContext(ctx context.Context, text string, multiplier float64) string {
	logger := logging.FromContext(ctx, c.logger)

	out := pool.GetLines()
	defer pool.PutLines(out)
	for _, line := range strings.Split(text, "\n") {
		if line != "" {
			line = c.convertLine(logger, line, multiplier)
		}
		*out = append(*out, line)
	}
	metrics.RecipesTotal.Inc()
	return strings.TrimRightFunc(strings.Join(*out, "\n"), unicode.IsSpace)
}

// ConvertUnitToUnit returns how many `to` units make multiplier `from`
// units, or unitgraph.Unresolved when either unit is unknown or the two are
// not connected.
//
// Example:
//
//	c.ConvertUnitToUnit("cup", "tablespoon", 1) // 16
//	c.ConvertUnitToUnit("cup", "furlong", 1)    // -1
func (c *Converter) ConvertUnitToUnit(from, to string, multiplier float64) float64 {
	if c.resolver == nil {
		return unitgraph.Unresolved
	}
	return c.resolver.Resolve(from, to, multiplier)
}
