package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reQ       = regexp.MustCompile(`^[\p{L}0-9 _'\-]{1,50}$`)
	reSKU     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reCountry = regexp.MustCompile(`^[A-Z]{2}$`)
	reOption  = regexp.MustCompile(`^[\p{L}\p{N} .,'!?&+\-]*$`)
)

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 50 {
		s = string(r[:50])
	}
	return s, reQ.MatchString(s)
}

// Qty parses a quantity field; anything unparsable or below 1 becomes 1.
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 99 {
		return 99
	} // clamp to avoid abuse
	return n
}

// Index parses a cart line index. Negative or non-numeric input is rejected.
func Index(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// SKU validates a product or collection identifier.
func SKU(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reSKU.MatchString(s)
}

// Country validates an ISO 3166-1 alpha-2 code, upper-casing it.
func Country(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reCountry.MatchString(s)
}

// Price parses a non-negative EUR amount ("64.99" or "64,99").
func Price(s string) (float64, bool) {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > 100000 {
		return 0, false
	}
	return f, true
}

// Option validates one free-text variant field (engraving, gift text).
func Option(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	if len([]rune(s)) > max {
		return "", false
	}
	return s, reOption.MatchString(s)
}
