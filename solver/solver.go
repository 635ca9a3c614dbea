// Package solver finds an arithmetic expression over four operands that
// evaluates to 24.
//
// The search is exhaustive: every permutation of the operands is tried, and for
// each permutation every unordered pair of remaining candidates is combined with
// every operator, reducing the candidate set by one until a single value is
// left. The first expression found is returned, so the result is deterministic
// for a given input order.
//
// Pairs are first combined only in candidate order (a op b). If that finds
// nothing, the search is repeated also trying b - a and b / a, so every
// parenthesization is reachable.
//
// # Basic Usage
//
//	expr, ok, err := solver.Solve(
//		[]float64{8, 8, 3, 3},
//		[]string{"8", "8", "3", "3"},
//	)
//	// expr == "(8 / (3 - (8 / 3)))", ok == true
//
// Solve holds no state between calls and may be used from many goroutines.
package solver

import (
	"errors"
	"math"
	"strconv"
)

const (
	// Target is the value every solution must reach.
	Target = 24.0

	// Epsilon is the absolute tolerance used when comparing against Target.
	Epsilon = 1e-6

	// OperandCount is the number of operands a hand is made of.
	OperandCount = 4
)

var (
	// ErrOperandCount is returned when Solve is not given exactly four operands.
	ErrOperandCount = errors.New("solver: exactly 4 operands required")

	// ErrFragmentMismatch is returned when values and fragments differ in length.
	ErrFragmentMismatch = errors.New("solver: values and fragments must be the same length")
)

// IsTarget reports whether v is within Epsilon of Target.
func IsTarget(v float64) bool {
	return math.Abs(v-Target) < Epsilon
}

// Solve searches for an expression combining values with + - * / that
// evaluates to 24. fragments[i] is the text used for values[i] in the returned
// expression.
//
// A hand with no solution is not an error: ok is false and err is nil.
func Solve(values []float64, fragments []string) (expr string, ok bool, err error) {
	if len(values) != len(fragments) {
		return "", false, ErrFragmentMismatch
	}
	if len(values) != OperandCount {
		return "", false, ErrOperandCount
	}

	ops := Operators()
	for _, s := range []search{{ops: ops}, {ops: ops, mirrored: true}} {
		if expr, ok := s.run(values, fragments); ok {
			return expr, true, nil
		}
	}
	return "", false, nil
}

// Solvable reports whether values can be combined to reach 24.
func Solvable(values []float64) bool {
	fragments := make([]string, len(values))
	for i, v := range values {
		fragments[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	_, ok, err := Solve(values, fragments)
	return err == nil && ok
}

// SolveInts is a convenience wrapper around Solve for integer operands, using
// their decimal form as fragments.
func SolveInts(values ...int) (string, bool, error) {
	floats := make([]float64, len(values))
	fragments := make([]string, len(values))
	for i, v := range values {
		floats[i] = float64(v)
		fragments[i] = strconv.Itoa(v)
	}
	return Solve(floats, fragments)
}

// candidates is the working set of (value, fragment) pairs at one depth of the
// search. values[i] is always produced by fragments[i].
type candidates struct {
	values    []float64
	fragments []string
}

func (c *candidates) push(v float64, f string) {
	c.values = append(c.values, v)
	c.fragments = append(c.fragments, f)
}

func (c *candidates) pop() {
	c.values = c.values[:len(c.values)-1]
	c.fragments = c.fragments[:len(c.fragments)-1]
}

func (c *candidates) len() int {
	return len(c.values)
}

// without returns a fresh set holding every element except i and j, in order,
// with room for one more pair.
func (c *candidates) without(i, j int) candidates {
	n := c.len()
	rest := candidates{
		values:    make([]float64, 0, n-1),
		fragments: make([]string, 0, n-1),
	}
	for k := 0; k < n; k++ {
		if k != i && k != j {
			rest.push(c.values[k], c.fragments[k])
		}
	}
	return rest
}

// search walks every permutation of the operands. A plain search only combines
// a pair left to right, in candidate order. A mirrored search also tries b op a
// for the non-commutative operators, which reaches shapes such as
// ((3 * 3) * 3) - 3 where the combined value must sit on the left of a card.
type search struct {
	ops      []Operator
	mirrored bool
}

func (s search) run(values []float64, fragments []string) (string, bool) {
	indices := make([]int, len(values))
	for i := range indices {
		indices[i] = i
	}

	for {
		set := candidates{
			values:    make([]float64, 0, len(values)),
			fragments: make([]string, 0, len(values)),
		}
		for _, idx := range indices {
			set.push(values[idx], fragments[idx])
		}

		if expr, ok := s.reduce(set); ok {
			return expr, true
		}

		if !nextPermutation(indices) {
			return "", false
		}
	}
}

func (s search) reduce(set candidates) (string, bool) {
	if set.len() == 1 {
		if IsTarget(set.values[0]) {
			return set.fragments[0], true
		}
		return "", false
	}

	for i := 0; i < set.len(); i++ {
		for j := i + 1; j < set.len(); j++ {
			a, b := set.values[i], set.values[j]
			fa, fb := set.fragments[i], set.fragments[j]

			rest := set.without(i, j)
			for _, op := range s.ops {
				if expr, found := s.combine(&rest, op, a, b, fa, fb); found {
					return expr, true
				}
				if s.mirrored && !op.Commutative() {
					if expr, found := s.combine(&rest, op, b, a, fb, fa); found {
						return expr, true
					}
				}
			}
		}
	}

	return "", false
}

// combine pushes a op b onto rest, recurses, and pops it again on failure.
// Division by zero is skipped and can never produce a solution.
func (s search) combine(rest *candidates, op Operator, a, b float64, fa, fb string) (string, bool) {
	result, ok := op.Apply(a, b)
	if !ok {
		return "", false
	}

	rest.push(result, "("+fa+" "+op.Symbol()+" "+fb+")")
	defer rest.pop()

	return s.reduce(*rest)
}

// nextPermutation rearranges p into the lexicographically next permutation and
// reports whether one existed. On false, p is left as the last permutation.
func nextPermutation(p []int) bool {
	i := len(p) - 2
	for i >= 0 && p[i] >= p[i+1] {
		i--
	}
	if i < 0 {
		return false
	}

	j := len(p) - 1
	for p[j] <= p[i] {
		j--
	}
	p[i], p[j] = p[j], p[i]

	for l, r := i+1, len(p)-1; l < r; l, r = l+1, r-1 {
		p[l], p[r] = p[r], p[l]
	}
	return true
}
