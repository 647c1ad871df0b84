package query

import "strings"

// NormalizeKeys rewrites bare references to known hyphenated keys into
// field('<key>') calls so they survive lexing, which would otherwise split
// "creation-date" into an identifier and a subtraction. Only whole tokens
// that exactly match a known key are rewritten; string literals, dot access
// and unknown hyphenated runs are left alone.
func NormalizeKeys(expr string, knownKeys []string) string {
	known := make(map[string]bool, len(knownKeys))
	for _, k := range knownKeys {
		if strings.Contains(k, "-") {
			known[k] = true
		}
	}
	if len(known) == 0 {
		return expr
	}

	var out strings.Builder
	i := 0
	for i < len(expr) {
		ch := expr[i]

		// Copy string literals verbatim.
		if ch == '\'' || ch == '"' {
			j := i + 1
			for j < len(expr) && expr[j] != ch {
				j++
			}
			if j < len(expr) {
				j++
			}
			out.WriteString(expr[i:j])
			i = j
			continue
		}

		if isIdentStart(ch) {
			j := i
			for j < len(expr) && (isIdentChar(expr[j]) || expr[j] == '-') {
				j++
			}
			token := expr[i:j]
			dotAccess := i > 0 && expr[i-1] == '.'
			if known[token] && !dotAccess {
				out.WriteString("field('")
				out.WriteString(token)
				out.WriteString("')")
			} else {
				out.WriteString(token)
			}
			i = j
			continue
		}

		out.WriteByte(ch)
		i++
	}
	return out.String()
}
