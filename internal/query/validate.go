package query

import (
	"fmt"

	"github.com/magpie-md/magpie/internal/schema"
)

// ValidateComparisons checks an expression's statically extractable
// comparisons against the schema: every referenced field must be declared
// somewhere (or be the builtin "type"/"tags" keys), a comparison against
// "type" must name a resolvable type path, and an equality against a field
// that is a select everywhere must use one of its declared options. Returns
// one error per problem so a report can show them all.
func ValidateComparisons(node Node, sch *schema.File) []error {
	known := make(map[string]bool)
	for _, name := range sch.AllFieldNames() {
		known[name] = true
	}
	known["type"] = true
	known["tags"] = true

	var problems []error
	for _, c := range Comparisons(node) {
		if !known[c.Field] {
			problems = append(problems, fmt.Errorf("filter references unknown field %q", c.Field))
			continue
		}
		if c.Call != "" {
			// Membership and emptiness tests only need the field to exist.
			continue
		}
		if c.Field == "type" {
			if _, err := sch.Resolve(c.Value); err != nil {
				problems = append(problems, fmt.Errorf("filter compares type to unresolvable path %q", c.Value))
			}
			continue
		}
		if c.Negated {
			continue // != against any value is satisfiable
		}
		if values, allSelect := sch.SelectValues(c.Field); allSelect && len(values) > 0 && !containsValue(values, c.Value) {
			problems = append(problems,
				fmt.Errorf("filter compares %q to %q, which is outside its declared options", c.Field, c.Value))
		}
	}
	return problems
}

func containsValue(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
