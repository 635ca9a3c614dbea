package expr

import (
	"strconv"
	"strings"
)

// Node is a parsed expression.
type Node interface {
	// Eval computes the value of the expression.
	Eval() (float64, error)
	// Literals appends the integer literals in source order.
	Literals() []int
	String() string
}

// Number is an integer literal.
type Number struct {
	Value int
	Pos   int
}

func (n *Number) Eval() (float64, error) { return float64(n.Value), nil }
func (n *Number) Literals() []int        { return []int{n.Value} }
func (n *Number) String() string         { return strconv.Itoa(n.Value) }

// Binary is an operator applied to two operands.
type Binary struct {
	Op          byte
	Left, Right Node
	Pos         int
}

func (b *Binary) Eval() (float64, error) {
	l, err := b.Left.Eval()
	if err != nil {
		return 0, err
	}
	r, err := b.Right.Eval()
	if err != nil {
		return 0, err
	}

	switch b.Op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, errorf(DivisionByZero, b.Pos, "%s evaluates to zero", b.Right)
		}
		return l / r, nil
	default:
		return 0, errorf(InvalidOperator, b.Pos, "%q", b.Op)
	}
}

func (b *Binary) Literals() []int {
	return append(b.Left.Literals(), b.Right.Literals()...)
}

func (b *Binary) String() string {
	return "(" + b.Left.String() + " " + string(b.Op) + " " + b.Right.String() + ")"
}

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) describe() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return strconv.Quote(t.text)
}

func tokenize(s string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9':
			start := i
			for i < len(s) && s[i] >= '0' && s[i] <= '9' {
				i++
			}
			tokens = append(tokens, token{kind: tokNumber, text: s[start:i], pos: start})
		case strings.IndexByte("+-*/", c) >= 0:
			tokens = append(tokens, token{kind: tokOp, text: s[i : i+1], pos: i})
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return nil, errorf(InvalidOperator, i, "unexpected character %q", c)
		}
	}
	return append(tokens, token{kind: tokEOF, pos: len(s)}), nil
}

// Parse builds the syntax tree for s.
//
//	expr   := term (('+' | '-') term)*
//	term   := factor (('*' | '/') factor)*
//	factor := integer | '(' expr ')'
func Parse(s string) (Node, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}

	if t := p.peek(); t.kind != tokEOF {
		if t.kind == tokRParen {
			return nil, errorf(UnbalancedParens, t.pos, "unmatched %q", t.text)
		}
		return nil, errorf(UnexpectedToken, t.pos, "expected operator, got %s", t.describe())
	}
	return n, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expr() (Node, error) {
	return p.binary(p.term, "+-")
}

func (p *parser) term() (Node, error) {
	return p.binary(p.factor, "*/")
}

func (p *parser) binary(operand func() (Node, error), ops string) (Node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		if t.kind != tokOp || !strings.Contains(ops, t.text) {
			return left, nil
		}
		p.next()

		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: t.text[0], Left: left, Right: right, Pos: t.pos}
	}
}

func (p *parser) factor() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := strconv.Atoi(t.text)
		if err != nil {
			return nil, errorf(UnexpectedToken, t.pos, "number %s out of range", t.text)
		}
		return &Number{Value: v, Pos: t.pos}, nil

	case tokLParen:
		n, err := p.expr()
		if err != nil {
			return nil, err
		}
		closing := p.next()
		if closing.kind != tokRParen {
			if closing.kind == tokEOF {
				return nil, errorf(UnbalancedParens, t.pos, "%q is never closed", "(")
			}
			return nil, errorf(UnexpectedToken, closing.pos, "expected %q, got %s", ")", closing.describe())
		}
		return n, nil

	default:
		return nil, errorf(UnexpectedToken, t.pos, "expected number or %q, got %s", "(", t.describe())
	}
}
