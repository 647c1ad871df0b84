// Package wikilink scans [[target]]-style references in document text.
//
// Grammar:
//
//	[[target]]
//	[[target|display text]]
//
// Targets and display text are trimmed of surrounding whitespace. The scanner
// is line-oriented and does not understand code fences; callers decide which
// regions of a document to scan.
package wikilink

import (
	"regexp"
	"strings"
)

// Match is a wikilink found in a line of text.
type Match struct {
	Target  string
	Display string // empty when no |display part
	Start   int    // byte offset within the line
	End     int
	Literal string
}

// The target may not contain brackets or pipes; the display part may not
// contain brackets.
var re = regexp.MustCompile(`\[\[([^\]\[|]+)(?:\|([^\]]+))?\]\]`)

// ParseExact parses a string that is exactly one wikilink literal.
func ParseExact(s string) (target string, ok bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[[") || !strings.HasSuffix(s, "]]") {
		return "", false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "[["), "]]")
	target = strings.TrimSpace(strings.SplitN(inner, "|", 2)[0])
	if target == "" || strings.ContainsAny(target, "[]") {
		return "", false
	}
	return target, true
}

// FindAll returns the wikilinks in a single line.
func FindAll(line string) []Match {
	var out []Match
	for _, m := range re.FindAllStringSubmatchIndex(line, -1) {
		target := strings.TrimSpace(line[m[2]:m[3]])
		if target == "" {
			continue
		}
		match := Match{
			Target:  target,
			Start:   m[0],
			End:     m[1],
			Literal: line[m[0]:m[1]],
		}
		if m[4] >= 0 {
			match.Display = strings.TrimSpace(line[m[4]:m[5]])
		}
		out = append(out, match)
	}
	return out
}
