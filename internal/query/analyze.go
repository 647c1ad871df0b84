package query

// Comparison is a statically extracted field-to-literal test: an equality,
// or one of the field-shaped call forms.
type Comparison struct {
	Field   string
	Value   string
	Negated bool
	// Call names the function form the comparison came from ("contains",
	// "hasTag", "isEmpty"); empty for == and !=. Call forms test membership
	// or emptiness, not equality, so value-set validation skips them.
	Call string
}

// Comparisons walks an expression and collects every comparison between a
// field reference and a literal, regardless of operand order. Used to
// validate dynamic source filters against the schema without evaluating
// them.
func Comparisons(node Node) []Comparison {
	var out []Comparison
	walkComparisons(node, &out)
	return out
}

func walkComparisons(node Node, out *[]Comparison) {
	switch n := node.(type) {
	case *Binary:
		if n.Op == TokenEq || n.Op == TokenNeq {
			if c, ok := comparisonOf(n); ok {
				*out = append(*out, c)
				return
			}
		}
		walkComparisons(n.Left, out)
		walkComparisons(n.Right, out)
	case *Not:
		walkComparisons(n.Expr, out)
	case *Call:
		if c, ok := callComparison(n); ok {
			*out = append(*out, c)
			return
		}
		for _, arg := range n.Args {
			walkComparisons(arg, out)
		}
	case *DateShift:
		walkComparisons(n.Base, out)
	}
}

// callComparison flattens the field-shaped call forms. Calls that do not fit
// the field/value shape (odd argument kinds, the date functions) contribute
// nothing here and their arguments are walked instead.
func callComparison(n *Call) (Comparison, bool) {
	switch n.Name {
	case "contains":
		if len(n.Args) != 2 {
			return Comparison{}, false
		}
		field, fieldOK := fieldName(n.Args[0])
		lit, litOK := literalText(n.Args[1])
		if !fieldOK || !litOK {
			return Comparison{}, false
		}
		return Comparison{Field: field, Value: lit, Call: "contains"}, true
	case "hasTag":
		if len(n.Args) != 1 {
			return Comparison{}, false
		}
		lit, ok := literalText(n.Args[0])
		if !ok {
			return Comparison{}, false
		}
		return Comparison{Field: "tags", Value: lit, Call: "hasTag"}, true
	case "isEmpty":
		if len(n.Args) != 1 {
			return Comparison{}, false
		}
		field, ok := fieldName(n.Args[0])
		if !ok {
			return Comparison{}, false
		}
		return Comparison{Field: field, Call: "isEmpty"}, true
	}
	return Comparison{}, false
}

func comparisonOf(n *Binary) (Comparison, bool) {
	field, fieldOK := fieldName(n.Left)
	lit, litOK := literalText(n.Right)
	if !fieldOK || !litOK {
		// A reversed 'literal == field' comparison means the same thing.
		field, fieldOK = fieldName(n.Right)
		lit, litOK = literalText(n.Left)
	}
	if !fieldOK || !litOK {
		return Comparison{}, false
	}
	return Comparison{Field: field, Value: lit, Negated: n.Op == TokenNeq}, true
}

// fieldName extracts the referenced key from a bare identifier or a
// field('...') call with a literal argument.
func fieldName(node Node) (string, bool) {
	switch n := node.(type) {
	case *Ident:
		return n.Name, true
	case *Call:
		if n.Name == "field" && len(n.Args) == 1 {
			if s, ok := n.Args[0].(*StringLit); ok {
				return s.Value, true
			}
		}
	}
	return "", false
}

func literalText(node Node) (string, bool) {
	switch n := node.(type) {
	case *StringLit:
		return n.Value, true
	case *NumberLit:
		return n.Value, true
	}
	return "", false
}
