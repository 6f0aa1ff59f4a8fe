// Package table loads the two lookup tables the recipe converter runs on.
//
// Unit-ratio table: headerless CSV rows of two "<quantity> <unit>" cells,
// each row stating that the left side equals the right side:
//
//	1 cup,16 tablespoon
//	1 tablespoon,3 teaspoon
//
// Density table: CSV with the header "ingredient,cup,tablespoon,teaspoon";
// every row gives the grams in one cup, tablespoon and teaspoon of an
// ingredient. Blank cells mean the factor is unknown:
//
//	ingredient,cup,tablespoon,teaspoon
//	flour,125,7.8,2.6
//	baking powder,,13.8,4.6
//
// Row order in the density table is significant: ingredients are matched by
// substring and the first matching row wins, so "brown sugar" must come
// before "sugar".
//
// Both tables ship embedded in the binary; DefaultRatioTable and
// DefaultDensityTable return them.
package table

import (
	"embed"
	"errors"
	"fmt"
	"strings"
)

//go:embed data/*.csv
var defaults embed.FS

const (
	defaultRatioFile   = "data/unit_to_unit.csv"
	defaultDensityFile = "data/gram-conversions.csv"
)

// Density table columns, which double as the unit names they convert.
const (
	ColumnCup        = "cup"
	ColumnTablespoon = "tablespoon"
	ColumnTeaspoon   = "teaspoon"
)

// Columns lists the density columns in table order.
var Columns = []string{ColumnCup, ColumnTablespoon, ColumnTeaspoon}

// Errors returned by the loaders.
var (
	ErrMalformedRow  = errors.New("malformed row")
	ErrMissingHeader = errors.New("missing density header")
)

// RatioRow is one line of the unit-ratio table: Left equals Right.
// Each side is a "<quantity> <unit>" string such as "1 cup".
type RatioRow struct {
	Left  string
	Right string
}

// DensityRow holds grams per cup, tablespoon and teaspoon for one
// ingredient. A nil factor means the table has no value for that unit.
type DensityRow struct {
	Ingredient string
	Cup        *float64
	Tablespoon *float64
	Teaspoon   *float64
}

// Factor returns the grams-per-unit factor for one of the density columns.
func (r DensityRow) Factor(unit string) (float64, bool) {
	var f *float64
	switch unit {
	case ColumnCup:
		f = r.Cup
	case ColumnTablespoon:
		f = r.Tablespoon
	case ColumnTeaspoon:
		f = r.Teaspoon
	}
	if f == nil {
		return 0, false
	}
	return *f, true
}

// Matches reports whether the row's ingredient name occurs in ingredient.
func (r DensityRow) Matches(ingredient string) bool {
	return r.Ingredient != "" && strings.Contains(ingredient, r.Ingredient)
}

func rowError(line int, format string, args ...any) error {
	return fmt.Errorf("line %d: %w: %s", line, ErrMalformedRow, fmt.Sprintf(format, args...))
}
