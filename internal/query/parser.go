package query

import (
	"fmt"
	"strconv"
)

// arity maps each builtin to its required argument count.
var arity = map[string]int{
	"contains": 2,
	"hasTag":   1,
	"isEmpty":  1,
	"today":    0,
	"now":      0,
	"field":    1,
}

// shiftUnits are the offsets accepted after today() and now().
var shiftUnits = map[string]bool{
	"d": true, "w": true, "mon": true, "y": true, "h": true, "min": true,
}

// Parser builds an expression tree from filter syntax.
type Parser struct {
	lexer *Lexer
	cur   Token
	peek  Token
}

// Parse parses a single filter expression. The whole input must be consumed.
func Parse(input string) (Node, error) {
	p := &Parser{lexer: NewLexer(input)}
	p.advance()
	p.advance()

	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected %q at position %d", p.cur.Value, p.cur.Pos)
	}
	return node, nil
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: TokenOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: TokenAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Node, error) {
	if p.cur.Type == TokenBang {
		p.advance()
		expr, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Not{Expr: expr}, nil
	}
	return p.parseEquality()
}

func (p *Parser) parseEquality() (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == TokenEq || p.cur.Type == TokenNeq {
		op := p.cur.Type
		p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePrimary() (Node, error) {
	switch p.cur.Type {
	case TokenLParen:
		p.advance()
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != TokenRParen {
			return nil, fmt.Errorf("missing closing parenthesis at position %d", p.cur.Pos)
		}
		p.advance()
		return node, nil

	case TokenString:
		node := &StringLit{Value: p.cur.Value}
		p.advance()
		return node, nil

	case TokenNumber:
		node := &NumberLit{Value: p.cur.Value}
		p.advance()
		return node, nil

	case TokenIdent:
		name := p.cur.Value
		if p.peek.Type == TokenLParen {
			return p.parseCall()
		}
		p.advance()
		return &Ident{Name: name}, nil

	case TokenIllegal:
		if len(p.cur.Value) > 0 && (p.cur.Value[0] == '\'' || p.cur.Value[0] == '"') {
			return nil, fmt.Errorf("unbalanced quote at position %d", p.cur.Pos)
		}
		return nil, fmt.Errorf("unexpected %q at position %d", p.cur.Value, p.cur.Pos)

	default:
		return nil, fmt.Errorf("unexpected %q at position %d", p.cur.Value, p.cur.Pos)
	}
}

func (p *Parser) parseCall() (Node, error) {
	name := p.cur.Value
	pos := p.cur.Pos

	want, known := arity[name]
	if !known {
		return nil, fmt.Errorf("unknown function %q at position %d", name, pos)
	}

	p.advance() // name
	p.advance() // (

	var args []Node
	if p.cur.Type != TokenRParen {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.Type != TokenComma {
				break
			}
			p.advance()
		}
	}
	if p.cur.Type != TokenRParen {
		return nil, fmt.Errorf("%s: missing closing parenthesis at position %d", name, p.cur.Pos)
	}
	p.advance()

	if len(args) != want {
		return nil, fmt.Errorf("%s takes %d argument(s), got %d", name, want, len(args))
	}

	call := &Call{Name: name, Args: args}
	if name == "today" || name == "now" {
		return p.maybeShift(call)
	}
	return call, nil
}

// maybeShift consumes an optional offset after a date call, in either the
// bare form "+ 7d" or the quoted form "+ '7d'".
func (p *Parser) maybeShift(base *Call) (Node, error) {
	if p.cur.Type != TokenPlus && p.cur.Type != TokenMinus {
		return base, nil
	}
	negative := p.cur.Type == TokenMinus
	p.advance()

	if p.cur.Type == TokenString {
		return p.parseQuotedShift(base, negative)
	}
	if p.cur.Type != TokenNumber {
		return nil, fmt.Errorf("date offset needs a count at position %d", p.cur.Pos)
	}
	n, err := strconv.Atoi(p.cur.Value)
	if err != nil {
		return nil, fmt.Errorf("date offset count %q: %w", p.cur.Value, err)
	}
	p.advance()

	if p.cur.Type != TokenIdent || !shiftUnits[p.cur.Value] {
		return nil, fmt.Errorf("unknown date offset unit %q at position %d", p.cur.Value, p.cur.Pos)
	}
	unit := p.cur.Value
	p.advance()

	return &DateShift{Base: base, Negative: negative, N: n, Unit: unit}, nil
}

// parseQuotedShift splits a quoted offset literal like '7d' into its count
// and unit, with the same errors as the bare form.
func (p *Parser) parseQuotedShift(base *Call, negative bool) (Node, error) {
	s := p.cur.Value
	pos := p.cur.Pos

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return nil, fmt.Errorf("date offset needs a count at position %d", pos)
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return nil, fmt.Errorf("date offset count %q: %w", s[:i], err)
	}
	if unit := s[i:]; shiftUnits[unit] {
		p.advance()
		return &DateShift{Base: base, Negative: negative, N: n, Unit: unit}, nil
	}
	return nil, fmt.Errorf("unknown date offset unit %q at position %d", s[i:], pos)
}
