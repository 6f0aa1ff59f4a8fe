// Package convert provides amount parsing and rendering for recipe lines.
//
// Recipe quantities show up in many shapes: plain decimals ("1.5"), ASCII
// fractions ("3/4"), mixed numbers ("1 1/2"), unicode vulgar fractions ("½")
// and mixes of all of them ("1 ½", "1½", "1⁄2" with the fraction slash).
// This package turns any of those into a float64 and renders converted
// amounts back the way the converter prints them.
//
// Key Functions:
//   - ParseDecimal: strict decimal parsing, reports success with a bool
//   - ParseFraction: fraction, mixed-number and vulgar-fraction parsing
//   - ParseAmount: decimal first, fraction second
//   - FormatAmount: whole numbers as integers, everything else to one decimal
//
// Example:
//
//	// Decimal or fraction, whichever fits
//	v, err := convert.ParseAmount("1 ½") // 1.5, nil
//
//	// Render a converted amount
//	s := convert.FormatAmount(56.699) // "56.7"
//
// ELI12:
//
// People write "one and a half" in a lot of ways. This package reads all of
// them and gives back a single number. When the number is printed again it
// is either a whole number ("125") or has exactly one digit after the dot
// ("56.7").
package convert

import (
	"math"
	"strconv"
	"strings"
)

// ParseDecimal parses a plain decimal string.
// Returns (value, true) on success, (0, false) on failure.
//
// Surrounding whitespace is ignored. Scientific notation is accepted because
// strconv.ParseFloat accepts it.
//
// Example:
//
//	f, ok := ParseDecimal("3.14") // Returns (3.14, true)
//	f, ok := ParseDecimal("1/2")  // Returns (0, false)
//	f, ok := ParseDecimal("")     // Returns (0, false)
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseAmount parses a quantity as a decimal first and as a fraction second.
//
// This is the parser used for both unit-table quantities and the amount part
// of an ingredient line.
//
// Example:
//
//	ParseAmount("2")     // 2, nil
//	ParseAmount("1 1/2") // 1.5, nil
//	ParseAmount("¾")     // 0.75, nil
//	ParseAmount("some")  // 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	if f, ok := ParseDecimal(s); ok {
		return f, nil
	}
	return ParseFraction(s)
}

// FormatAmount renders a converted amount.
//
// Whole values render as integers ("125"). Anything else is rounded to one
// decimal place and always keeps that decimal, so 2.96 renders as "3.0"
// rather than "3". Rounding works on the exact binary value with ties to
// even.
func FormatAmount(v float64) string {
	if !math.IsInf(v, 0) && !math.IsNaN(v) && v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
