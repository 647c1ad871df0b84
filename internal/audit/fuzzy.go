package audit

import (
	"sort"
	"strings"

	"github.com/magpie-md/magpie/internal/frontmatter"
	"github.com/magpie-md/magpie/internal/schema"
)

// match classes, strongest first. Exact, plural and prefix matches are
// deterministic enough to drive an automatic migration; fuzzy matches only
// ever produce suggestions.
const (
	classExact = iota
	classPlural
	classPrefix
	classFuzzy
	classNone
)

type candidate struct {
	name  string // declared spelling
	class int
	dist  int
}

// normalizeKey lower-cases a key and collapses whitespace, hyphen and
// underscore separators so "Due-Date", "due_date" and "due date" all
// normalize to the same form.
func normalizeKey(key string) string {
	fields := strings.FieldsFunc(strings.ToLower(key), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '-' || r == '_'
	})
	return strings.Join(fields, " ")
}

// classify determines how an unknown key relates to one declared field name.
func classify(unknown, declared string) candidate {
	nu, nd := normalizeKey(unknown), normalizeKey(declared)
	dist := editDistance(nu, nd)
	c := candidate{name: declared, dist: dist}

	switch {
	case nu == nd:
		c.class = classExact
	case nu == nd+"s" || nd == nu+"s":
		c.class = classPlural
	case isAbbreviation(nu, nd):
		c.class = classPrefix
	case dist <= threshold(nu, nd):
		c.class = classFuzzy
	default:
		c.class = classNone
	}
	return c
}

// threshold is the relative acceptance bound for fuzzy matches: strict
// enough that coincidental short-string matches are rejected.
func threshold(a, b string) int {
	min := len(a)
	if len(b) < min {
		min = len(b)
	}
	t := min / 5 // floor(0.2 * min)
	if t < 1 {
		t = 1
	}
	return t
}

// isAbbreviation reports whether one normalized form is a prefix of the
// other, with the shorter side long enough to be intentional.
func isAbbreviation(a, b string) bool {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	return len(shorter) >= 3 && strings.HasPrefix(longer, shorter)
}

// Suggest returns up to three declared field names that plausibly match an
// unknown key, ranked exact, then plural, then everything else; ties broken
// by distance then name.
func Suggest(unknown string, declared []string) []string {
	var accepted []candidate
	for _, name := range declared {
		if c := classify(unknown, name); c.class != classNone {
			accepted = append(accepted, c)
		}
	}

	sort.Slice(accepted, func(i, j int) bool {
		a, b := accepted[i], accepted[j]
		// Prefix and fuzzy matches share the lowest rank.
		ra, rb := rankOf(a.class), rankOf(b.class)
		if ra != rb {
			return ra < rb
		}
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		return a.name < b.name
	})

	names := make([]string, 0, 3)
	for _, c := range accepted {
		names = append(names, c.name)
		if len(names) == 3 {
			break
		}
	}
	return names
}

func rankOf(class int) int {
	switch class {
	case classExact:
		return 0
	case classPlural:
		return 1
	default:
		return 2
	}
}

// MigrationTarget decides whether an unknown key's value can be moved to a
// declared field without asking. The move requires a single deterministic
// match (exact, plural or prefix), a currently empty target, and a value
// whose shape the target accepts. Any ambiguity downgrades to suggestion.
func MigrationTarget(unknown string, value frontmatter.Value, res *schema.Resolved, fields map[string]frontmatter.Value) (string, bool) {
	var deterministic []candidate
	for _, field := range res.Fields {
		c := classify(unknown, field.Name)
		if c.class == classExact || c.class == classPlural || c.class == classPrefix {
			deterministic = append(deterministic, c)
		}
	}
	if len(deterministic) != 1 {
		return "", false
	}

	target := deterministic[0].name
	if existing, ok := fields[target]; ok && !existing.IsEmpty() {
		return "", false
	}
	def, ok := res.Field(target)
	if !ok || !def.Compatible(value) {
		return "", false
	}
	return target, true
}

// editDistance is the optimal string alignment distance: insertions,
// deletions, substitutions and adjacent transpositions each cost one, so a
// swapped pair like "statsu" sits one step from "status".
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	rows := make([][]int, la+1)
	for i := range rows {
		rows[i] = make([]int, lb+1)
		rows[i][0] = i
	}
	for j := 0; j <= lb; j++ {
		rows[0][j] = j
	}

	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d := minInt(rows[i-1][j]+1, rows[i][j-1]+1, rows[i-1][j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				if t := rows[i-2][j-2] + 1; t < d {
					d = t
				}
			}
			rows[i][j] = d
		}
	}
	return rows[la][lb]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
