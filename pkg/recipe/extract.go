package recipe

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/orneryd/recipeconv/pkg/pool"
)

// Unit words the converter recognises. Anything else on a line is treated
// as part of the ingredient.
const (
	UnitCup        = "cup"
	UnitTablespoon = "tablespoon"
	UnitTeaspoon   = "teaspoon"
	UnitOunce      = "ounce"
	UnitPound      = "pound"
)

var compatibleUnits = []string{UnitCup, UnitTablespoon, UnitTeaspoon, UnitOunce, UnitPound}

// abbreviations are applied in order; "lbs" must come before "lb".
var abbreviations = []struct {
	short, long string
}{
	{"tbsp", UnitTablespoon},
	{"tsp", UnitTeaspoon},
	{"oz", UnitOunce},
	{"lbs", UnitPound},
	{"lb", UnitPound},
}

// amount, unit word with an optional plural "s", ingredient
var compatiblePattern = regexp.MustCompile(`(.+?)(cup|tablespoon|teaspoon|ounce|pound)(?:s|)(.*)`)

// Ingredient is one parsed ingredient line.
type Ingredient struct {
	// Amount is the raw quantity text, e.g. "1 1/2" or "¾".
	Amount string
	// Unit is one of the recognised unit words, or empty.
	Unit string
	// Name is everything after the unit.
	Name string
}

// ExtractFromLine splits a lower-cased, abbreviation-normalised line into
// amount, unit and ingredient.
//
// Lines that mention a recognised unit word are split around its first
// occurrence. Other lines are split at the first ASCII letter after the
// first character, and the unit is left empty.
//
// Example:
//
//	ExtractFromLine("2 Tbsp sugar")  // {"2", "tablespoon", "sugar"}
//	ExtractFromLine("3 large eggs")  // {"3", "", "large eggs"}
//	ExtractFromLine("1 dozen eggs")  // {"1", "", "dozen eggs"}
//
// Returns ErrParse when neither pattern matches.
func ExtractFromLine(line string) (Ingredient, error) {
	line = normaliseUnits(strings.ToLower(line))

	if containsUnitWord(line) {
		m := compatiblePattern.FindStringSubmatch(line)
		if m == nil {
			return Ingredient{}, fmt.Errorf("%w: no amount before unit in %q", ErrParse, line)
		}
		return Ingredient{
			Amount: strings.TrimSpace(m[1]),
			Unit:   strings.TrimSpace(m[2]),
			Name:   strings.TrimSpace(m[3]),
		}, nil
	}

	split := firstLetterAfterStart(line)
	if split < 0 {
		return Ingredient{}, fmt.Errorf("%w: no ingredient in %q", ErrParse, line)
	}
	return Ingredient{
		Amount: strings.TrimSpace(line[:split]),
		Name:   strings.TrimSpace(line[split:]),
	}, nil
}

func containsUnitWord(line string) bool {
	for _, u := range compatibleUnits {
		if strings.Contains(line, u) {
			return true
		}
	}
	return false
}

// firstLetterAfterStart returns the byte index of the first ASCII letter at
// index 1 or later, or -1.
func firstLetterAfterStart(s string) int {
	for i := 1; i < len(s); i++ {
		if isASCIILetter(s[i]) {
			return i
		}
	}
	return -1
}

// normaliseUnits expands unit abbreviations that stand as their own word.
// A single trailing "s" is allowed ("tsps"), so "dozen" keeps its "oz" and
// "tspoon" is left alone.
func normaliseUnits(line string) string {
	for _, a := range abbreviations {
		line = replaceWord(line, a.short, a.long)
	}
	return line
}

func replaceWord(s, word, repl string) string {
	if !strings.Contains(s, word) {
		return s
	}
	b := pool.GetBuilder()
	defer pool.PutBuilder(b)
	pos := 0
	for {
		i := strings.Index(s[pos:], word)
		if i < 0 {
			b.WriteString(s[pos:])
			return b.String()
		}
		start := pos + i
		end := start + len(word)
		b.WriteString(s[pos:start])
		if atWordBoundary(s, start, end) {
			b.WriteString(repl)
		} else {
			b.WriteString(word)
		}
		pos = end
	}
}

func atWordBoundary(s string, start, end int) bool {
	if start > 0 && isASCIILetter(s[start-1]) {
		return false
	}
	if end < len(s) && s[end] == 's' {
		end++
	}
	return end >= len(s) || !isASCIILetter(s[end])
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
