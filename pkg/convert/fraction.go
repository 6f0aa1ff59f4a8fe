package convert

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidAmount is returned when a string cannot be read as a quantity.
var ErrInvalidAmount = errors.New("invalid amount")

// fractionSlash is U+2044, used by typeset fractions and by the NFKD
// decomposition of every vulgar fraction character.
const fractionSlash = "⁄"

// ParseFraction parses fraction strings into a float64.
//
// Supported forms:
//   - ASCII fractions: "1/2", "3/4"
//   - Fraction slash: "1⁄2"
//   - Mixed numbers: "1 1/2", "2 3/4"
//   - Vulgar fractions: "½", "⅔", "1 ½", "1½"
//   - Whole numbers and decimals as terms: "3", "1.5", "1 0.5"
//
// Whitespace-separated terms are summed, so "1 1/2" is 1 + 1/2.
//
// Example:
//
//	f, err := ParseFraction("1 1/2") // 1.5, nil
//	f, err := ParseFraction("⅓")     // 0.333..., nil
//	f, err := ParseFraction("1/0")   // 0, ErrInvalidAmount
func ParseFraction(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, fractionSlash, "/"))
	terms := strings.Fields(s)
	if len(terms) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	var total float64
	for _, term := range terms {
		v, err := parseTerm(term)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
		total += v
	}
	return total, nil
}

// VulgarValue returns the numeric value of a single unicode character that
// carries one: vulgar fractions ("½" = 0.5) and digits, including
// superscript and other compatibility forms that decompose to ASCII digits.
func VulgarValue(r rune) (float64, bool) {
	if r >= '0' && r <= '9' {
		return float64(r - '0'), true
	}

	decomposed := norm.NFKD.String(string(r))
	if decomposed == string(r) {
		return 0, false
	}

	if num, den, ok := strings.Cut(decomposed, fractionSlash); ok {
		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, false
		}
		d, err := strconv.Atoi(den)
		if err != nil || d == 0 {
			return 0, false
		}
		return float64(n) / float64(d), true
	}

	// Superscripts, circled digits and friends decompose to plain digits.
	d, err := strconv.Atoi(decomposed)
	if err != nil {
		return 0, false
	}
	return float64(d), true
}

func parseTerm(term string) (float64, error) {
	if num, den, ok := strings.Cut(term, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, err
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, err
		}
		if d == 0 {
			return 0, ErrInvalidAmount
		}
		return n / d, nil
	}

	if f, err := strconv.ParseFloat(term, 64); err == nil {
		return f, nil
	}

	// A trailing vulgar character, either alone ("½") or glued to a whole
	// number ("1½").
	last, size := utf8.DecodeLastRuneInString(term)
	frac, ok := VulgarValue(last)
	if !ok {
		return 0, ErrInvalidAmount
	}
	whole := term[:len(term)-size]
	if whole == "" {
		return frac, nil
	}
	w, err := strconv.ParseFloat(whole, 64)
	if err != nil {
		return 0, err
	}
	return w + frac, nil
}
