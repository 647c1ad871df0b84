// Package dates provides canonical date parsing and conservative
// canonicalization helpers.
//
// This package is the single home for date logic so that frontmatter
// normalization, schema validation, the audit engine, and the expression
// engine all agree on what a date looks like.
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Layout is the canonical date layout used throughout a vault.
const Layout = "2006-01-02"

var (
	canonicalRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// A canonical date immediately followed by a time component.
	datetimeRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[T ]`)
	// Year-first date with ., / or - separators and 1-2 digit month/day.
	ymdRe = regexp.MustCompile(`^(\d{4})([./-])(\d{1,2})([./-])(\d{1,2})$`)
)

// IsCanonical reports whether s is a valid YYYY-MM-DD date.
func IsCanonical(s string) bool {
	if !canonicalRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(Layout, s)
	return err == nil
}

// Parse parses a canonical YYYY-MM-DD date.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !IsCanonical(s) {
		return time.Time{}, fmt.Errorf("invalid date: %q", s)
	}
	return time.Parse(Layout, s)
}

// Canonicalize suggests the canonical form of a date-like value.
//
// It accepts only unambiguous shapes:
//   - a canonical date carrying a time component is truncated to its date,
//   - a year-first date with ., / or - separators is zero-padded.
//
// Day-first and month-first forms are ambiguous across locales and yield no
// suggestion. A value already canonical yields itself.
func Canonicalize(s string) (string, bool) {
	s = strings.TrimSpace(s)

	if IsCanonical(s) {
		return s, true
	}

	if m := datetimeRe.FindStringSubmatch(s); m != nil {
		if IsCanonical(m[1]) {
			return m[1], true
		}
		return "", false
	}

	if m := ymdRe.FindStringSubmatch(s); m != nil && m[2] == m[4] {
		candidate := m[1] + "-" + pad2(m[3]) + "-" + pad2(m[5])
		if IsCanonical(candidate) {
			return candidate, true
		}
	}

	return "", false
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
