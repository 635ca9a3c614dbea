// Package expr parses and evaluates the arithmetic expressions players type as
// answers: non-negative integer literals, + - * /, and parentheses, with the
// usual precedence and left associativity.
//
// Evaluation never panics. Every failure is an *Error carrying a Kind, so
// callers can tell a division by zero from a typo:
//
//	v, err := expr.Evaluate("8 / (3 - 8 / 3)")
//	if errors.Is(err, expr.ErrDivisionByZero) {
//		...
//	}
package expr

import (
	"fmt"
)

// Kind classifies why an expression could not be evaluated.
type Kind uint8

const (
	// DivisionByZero means a divisor evaluated to exactly zero.
	DivisionByZero Kind = iota + 1
	// InvalidOperator means a character outside digits, + - * /, parentheses
	// and whitespace was found.
	InvalidOperator
	// UnbalancedParens means a parenthesis was never closed or never opened.
	UnbalancedParens
	// UnexpectedToken means the input was empty, ended early, or had a token
	// in a position the grammar does not allow.
	UnexpectedToken
)

func (k Kind) String() string {
	switch k {
	case DivisionByZero:
		return "division by zero"
	case InvalidOperator:
		return "invalid operator"
	case UnbalancedParens:
		return "unbalanced parentheses"
	case UnexpectedToken:
		return "unexpected token"
	default:
		return "unknown"
	}
}

// Sentinel errors for use with errors.Is.
var (
	ErrDivisionByZero   = &Error{Kind: DivisionByZero, Pos: -1}
	ErrInvalidOperator  = &Error{Kind: InvalidOperator, Pos: -1}
	ErrUnbalancedParens = &Error{Kind: UnbalancedParens, Pos: -1}
	ErrUnexpectedToken  = &Error{Kind: UnexpectedToken, Pos: -1}
)

// Error describes an expression that could not be evaluated. Pos is the byte
// offset of the offending input, or -1 when not tied to a position.
type Error struct {
	Kind   Kind
	Pos    int
	Detail string
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Pos >= 0 {
		msg = fmt.Sprintf("%s at position %d", msg, e.Pos)
	}
	return msg
}

// Is matches any *Error with the same Kind, so errors.Is(err,
// ErrDivisionByZero) works regardless of position.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func errorf(kind Kind, pos int, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Detail: fmt.Sprintf(format, args...)}
}

// Evaluate parses and evaluates s.
func Evaluate(s string) (float64, error) {
	n, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return n.Eval()
}

// Literals returns the integer literals of s in the order they appear.
func Literals(s string) ([]int, error) {
	n, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return n.Literals(), nil
}
