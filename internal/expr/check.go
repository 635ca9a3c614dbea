package expr

import (
	"slices"

	"github.com/lox/twentyfour/solver"
)

// Verdict is the outcome of checking a player's answer against a hand.
type Verdict uint8

const (
	// Correct means the answer uses every card exactly once and equals 24.
	Correct Verdict = iota
	// WrongNumbers means the literals do not match the dealt cards.
	WrongNumbers
	// WrongValue means the cards match but the expression is not 24.
	WrongValue
	// Malformed means the answer could not be parsed or evaluated.
	Malformed
)

func (v Verdict) String() string {
	switch v {
	case Correct:
		return "correct"
	case WrongNumbers:
		return "wrong_numbers"
	case WrongValue:
		return "wrong_value"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Result is the detailed outcome of Check.
type Result struct {
	Verdict Verdict
	// Value is the evaluated answer, when it could be evaluated.
	Value float64
	// Err is set for Malformed answers.
	Err error
}

// OK reports whether the answer was correct.
func (r Result) OK() bool {
	return r.Verdict == Correct
}

// Check validates answer against the dealt card values: the multiset of
// integer literals must equal cards, and the expression must evaluate to 24
// within solver.Epsilon.
func Check(answer string, cards []int) Result {
	n, err := Parse(answer)
	if err != nil {
		return Result{Verdict: Malformed, Err: err}
	}

	if !sameMultiset(n.Literals(), cards) {
		return Result{Verdict: WrongNumbers}
	}

	v, err := n.Eval()
	if err != nil {
		return Result{Verdict: Malformed, Err: err}
	}
	if !solver.IsTarget(v) {
		return Result{Verdict: WrongValue, Value: v}
	}
	return Result{Verdict: Correct, Value: v}
}

func sameMultiset(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	a = slices.Clone(a)
	b = slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
