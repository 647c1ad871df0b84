package query

import (
	"fmt"
	"strings"
)

// Node is an expression tree node.
type Node interface {
	String() string
}

// Binary is a logical or comparison operation.
type Binary struct {
	Op    TokenType // TokenAnd, TokenOr, TokenEq, TokenNeq
	Left  Node
	Right Node
}

// Not negates its operand.
type Not struct {
	Expr Node
}

// Call is a builtin function application: contains, hasTag, isEmpty,
// today, now, field.
type Call struct {
	Name string
	Args []Node
}

// DateShift is a date function with an offset applied, e.g. today() - 7d.
type DateShift struct {
	Base     *Call
	Negative bool
	N        int
	Unit     string // d, w, mon, y, h, min
}

// Ident is a bare field reference.
type Ident struct {
	Name string
}

// StringLit is a quoted string literal.
type StringLit struct {
	Value string
}

// NumberLit is a numeric literal, kept in source form for display and
// compared numerically during evaluation.
type NumberLit struct {
	Value string
}

func (b *Binary) String() string {
	op := map[TokenType]string{
		TokenAnd: "&&", TokenOr: "||", TokenEq: "==", TokenNeq: "!=",
	}[b.Op]
	return fmt.Sprintf("(%s %s %s)", b.Left, op, b.Right)
}

func (n *Not) String() string { return "!" + n.Expr.String() }

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

func (d *DateShift) String() string {
	sign := "+"
	if d.Negative {
		sign = "-"
	}
	return fmt.Sprintf("%s %s %d%s", d.Base, sign, d.N, d.Unit)
}

func (i *Ident) String() string     { return i.Name }
func (s *StringLit) String() string { return "'" + s.Value + "'" }
func (n *NumberLit) String() string { return n.Value }
