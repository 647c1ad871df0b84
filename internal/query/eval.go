package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/magpie-md/magpie/internal/dates"
	"github.com/magpie-md/magpie/internal/frontmatter"
)

// Context supplies everything an expression can observe about a document.
type Context struct {
	Fields map[string]frontmatter.Value
	Path   string
	Now    time.Time
}

// Field looks up a frontmatter value by key.
func (c *Context) Field(name string) (frontmatter.Value, bool) {
	v, ok := c.Fields[name]
	return v, ok
}

func (c *Context) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

// result is an evaluated operand. Comparisons coerce both sides to strings
// unless both carry a date, in which case the dates compare directly.
type result struct {
	isBool bool
	b      bool
	isDate bool
	t      time.Time
	s      string
	field  frontmatter.Value
	isVal  bool
}

// Evaluate runs a parsed expression against a document context.
func Evaluate(node Node, ctx *Context) (bool, error) {
	r, err := eval(node, ctx)
	if err != nil {
		return false, err
	}
	return r.truthy(), nil
}

// EvaluateAll treats multiple expressions as an implicit conjunction.
func EvaluateAll(nodes []Node, ctx *Context) (bool, error) {
	for _, node := range nodes {
		ok, err := Evaluate(node, ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (r result) truthy() bool {
	if r.isBool {
		return r.b
	}
	if r.isDate {
		return true
	}
	if r.isVal {
		return !r.field.IsEmpty()
	}
	return r.s != ""
}

// display renders the operand for string coercion.
func (r result) display() string {
	switch {
	case r.isBool:
		return strconv.FormatBool(r.b)
	case r.isDate:
		return r.t.Format(dates.Layout)
	case r.isVal:
		return r.field.Display()
	default:
		return r.s
	}
}

func eval(node Node, ctx *Context) (result, error) {
	switch n := node.(type) {
	case *Binary:
		return evalBinary(n, ctx)
	case *Not:
		inner, err := eval(n.Expr, ctx)
		if err != nil {
			return result{}, err
		}
		return result{isBool: true, b: !inner.truthy()}, nil
	case *Call:
		return evalCall(n, ctx)
	case *DateShift:
		base, err := evalCall(n.Base, ctx)
		if err != nil {
			return result{}, err
		}
		return result{isDate: true, t: shift(base.t, n)}, nil
	case *Ident:
		v, _ := ctx.Field(n.Name)
		return result{isVal: true, field: v}, nil
	case *StringLit:
		return result{s: n.Value}, nil
	case *NumberLit:
		return result{s: n.Value}, nil
	default:
		return result{}, fmt.Errorf("unsupported expression node %T", node)
	}
}

func evalBinary(n *Binary, ctx *Context) (result, error) {
	switch n.Op {
	case TokenAnd, TokenOr:
		left, err := eval(n.Left, ctx)
		if err != nil {
			return result{}, err
		}
		// Short-circuit so a broken right side never runs when the left
		// already decides the outcome.
		if n.Op == TokenAnd && !left.truthy() {
			return result{isBool: true, b: false}, nil
		}
		if n.Op == TokenOr && left.truthy() {
			return result{isBool: true, b: true}, nil
		}
		right, err := eval(n.Right, ctx)
		if err != nil {
			return result{}, err
		}
		return result{isBool: true, b: right.truthy()}, nil

	case TokenEq, TokenNeq:
		left, err := eval(n.Left, ctx)
		if err != nil {
			return result{}, err
		}
		right, err := eval(n.Right, ctx)
		if err != nil {
			return result{}, err
		}
		eq := operandsEqual(left, right)
		if n.Op == TokenNeq {
			eq = !eq
		}
		return result{isBool: true, b: eq}, nil

	default:
		return result{}, fmt.Errorf("unsupported binary operator %d", n.Op)
	}
}

func operandsEqual(left, right result) bool {
	if left.isDate && right.isDate {
		return left.t.Equal(right.t)
	}
	ls, rs := left.display(), right.display()
	// Numeric forms compare by value so 3 matches 3.0.
	if lf, err := strconv.ParseFloat(ls, 64); err == nil {
		if rf, err := strconv.ParseFloat(rs, 64); err == nil {
			return lf == rf
		}
	}
	return ls == rs
}

func evalCall(n *Call, ctx *Context) (result, error) {
	switch n.Name {
	case "today":
		now := ctx.now()
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return result{isDate: true, t: day}, nil

	case "now":
		return result{isDate: true, t: ctx.now()}, nil

	case "field":
		name, err := stringArg(n, 0, ctx)
		if err != nil {
			return result{}, err
		}
		v, _ := ctx.Field(name)
		return result{isVal: true, field: v}, nil

	case "isEmpty":
		v, err := fieldArg(n.Args[0], ctx)
		if err != nil {
			return result{}, err
		}
		return result{isBool: true, b: v.IsEmpty()}, nil

	case "hasTag":
		tag, err := stringArg(n, 0, ctx)
		if err != nil {
			return result{}, err
		}
		tags, _ := ctx.Field("tags")
		return result{isBool: true, b: valueContains(tags, strings.TrimPrefix(tag, "#"))}, nil

	case "contains":
		v, err := fieldArg(n.Args[0], ctx)
		if err != nil {
			return result{}, err
		}
		needle, err := eval(n.Args[1], ctx)
		if err != nil {
			return result{}, err
		}
		return result{isBool: true, b: valueContains(v, needle.display())}, nil

	default:
		return result{}, fmt.Errorf("unknown function %q", n.Name)
	}
}

// fieldArg resolves an argument that names a field, either as a bare
// identifier or a field('...') call.
func fieldArg(arg Node, ctx *Context) (frontmatter.Value, error) {
	switch a := arg.(type) {
	case *Ident:
		v, _ := ctx.Field(a.Name)
		return v, nil
	case *Call:
		if a.Name == "field" {
			r, err := eval(a.Args[0], ctx)
			if err != nil {
				return frontmatter.Null(), err
			}
			v, _ := ctx.Field(r.display())
			return v, nil
		}
	}
	return frontmatter.Null(), fmt.Errorf("expected a field reference, got %s", arg)
}

func stringArg(call *Call, i int, ctx *Context) (string, error) {
	r, err := eval(call.Args[i], ctx)
	if err != nil {
		return "", err
	}
	return r.display(), nil
}

// valueContains reports membership for lists and substring presence for
// strings. Scalars match by display equality.
func valueContains(v frontmatter.Value, needle string) bool {
	if items, ok := v.AsList(); ok {
		for _, item := range items {
			if item.Display() == needle {
				return true
			}
		}
		return false
	}
	if s, ok := v.AsString(); ok {
		return strings.Contains(s, needle)
	}
	if v.IsNull() {
		return false
	}
	return v.Display() == needle
}

func shift(t time.Time, d *DateShift) time.Time {
	n := d.N
	if d.Negative {
		n = -n
	}
	switch d.Unit {
	case "d":
		return t.AddDate(0, 0, n)
	case "w":
		return t.AddDate(0, 0, 7*n)
	case "mon":
		return t.AddDate(0, n, 0)
	case "y":
		return t.AddDate(n, 0, 0)
	case "h":
		return t.Add(time.Duration(n) * time.Hour)
	case "min":
		return t.Add(time.Duration(n) * time.Minute)
	default:
		return t
	}
}
