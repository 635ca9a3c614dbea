package solver_test

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/twentyfour/internal/expr"
	"github.com/lox/twentyfour/solver"
)

func TestSolveScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []int
		want   bool
	}{
		{name: "eight eight three three", values: []int{8, 8, 3, 3}, want: true},
		{name: "four ones", values: []int{1, 1, 1, 1}, want: false},
		{name: "four six two one", values: []int{4, 6, 2, 1}, want: true},
		{name: "needs value left of card", values: []int{3, 3, 3, 3}, want: true},
		{name: "fractions", values: []int{1, 5, 5, 5}, want: true},
		{name: "zeros", values: []int{0, 0, 4, 6}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok, err := solver.SolveInts(tt.values...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			if !tt.want {
				assert.Empty(t, got)
				return
			}
			assertSolution(t, got, tt.values)
		})
	}
}

func TestSolveFirstSolutionOrder(t *testing.T) {
	t.Parallel()

	got, ok, err := solver.SolveInts(4, 6, 2, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "((4 * 6) * (2 - 1))", got)

	got, ok, err = solver.SolveInts(8, 8, 3, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "(8 / (3 - (8 / 3)))", got)
}

func TestSolveUsesFragments(t *testing.T) {
	t.Parallel()

	got, ok, err := solver.Solve([]float64{4, 6, 2, 1}, []string{"4", "6", "2", "A"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "((4 * 6) * (2 - A))", got)
}

func TestSolveDeterministic(t *testing.T) {
	t.Parallel()

	values := []float64{13, 7, 5, 1}
	fragments := []string{"K", "7", "5", "A"}

	first, ok1, err := solver.Solve(values, fragments)
	require.NoError(t, err)
	second, ok2, err := solver.Solve(values, fragments)
	require.NoError(t, err)

	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
}

func TestSolveDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	values := []float64{3, 3, 8, 8}
	fragments := []string{"3", "3", "8", "8"}

	_, _, err := solver.Solve(values, fragments)
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 3, 8, 8}, values)
	assert.Equal(t, []string{"3", "3", "8", "8"}, fragments)
}

func TestSolveMalformedInput(t *testing.T) {
	t.Parallel()

	_, ok, err := solver.Solve([]float64{1, 2, 3}, []string{"1", "2", "3"})
	assert.ErrorIs(t, err, solver.ErrOperandCount)
	assert.False(t, ok)

	_, ok, err = solver.Solve([]float64{1, 2, 3, 4, 5}, []string{"1", "2", "3", "4", "5"})
	assert.ErrorIs(t, err, solver.ErrOperandCount)
	assert.False(t, ok)

	_, ok, err = solver.Solve([]float64{1, 2, 3, 4}, []string{"1", "2", "3"})
	assert.ErrorIs(t, err, solver.ErrFragmentMismatch)
	assert.False(t, ok)
}

func TestTolerance(t *testing.T) {
	t.Parallel()

	assert.True(t, solver.IsTarget(24))
	assert.True(t, solver.IsTarget(24.0000005))
	assert.True(t, solver.IsTarget(23.9999995))
	assert.False(t, solver.IsTarget(24.01))
	assert.False(t, solver.IsTarget(24.000002))

	_, ok, err := solver.Solve([]float64{24.0000005, 1, 1, 1}, []string{"x", "1", "1", "1"})
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = solver.Solve([]float64{24.01, 1, 1, 1}, []string{"x", "1", "1", "1"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSolveNeverDividesByZero(t *testing.T) {
	t.Parallel()

	for a := 0; a <= 13; a++ {
		for b := a; b <= 13; b++ {
			got, ok, err := solver.SolveInts(0, 0, a, b)
			require.NoError(t, err)
			if !ok {
				continue
			}
			assert.NotContains(t, got, "/ 0)", "hand 0 0 %d %d", a, b)

			_, err = expr.Evaluate(got)
			assert.NoError(t, err, "solution %q must evaluate cleanly", got)
		}
	}
}

func TestSolveMatchesOracle(t *testing.T) {
	t.Parallel()

	step := 1
	if testing.Short() {
		step = 7
	}

	n := 0
	for _, hand := range allHands() {
		n++
		if n%step != 0 {
			continue
		}

		got, ok, err := solver.SolveInts(hand...)
		require.NoError(t, err)
		require.Equal(t, oracle(toFloats(hand)), ok, "hand %v", hand)
		if ok {
			assertSolution(t, got, hand)
		}
	}
}

func TestSolvable(t *testing.T) {
	t.Parallel()

	assert.True(t, solver.Solvable([]float64{8, 8, 3, 3}))
	assert.False(t, solver.Solvable([]float64{1, 1, 1, 1}))
	assert.False(t, solver.Solvable([]float64{1, 2, 3}))
}

func TestOperatorApply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		op     solver.Operator
		a, b   float64
		want   float64
		wantOK bool
	}{
		{solver.Add, 3, 5, 8, true},
		{solver.Subtract, 3, 5, -2, true},
		{solver.Multiply, 3, 5, 15, true},
		{solver.Divide, 3, 4, 0.75, true},
		{solver.Divide, 3, 0, 0, false},
	}

	for _, tt := range tests {
		got, ok := tt.op.Apply(tt.a, tt.b)
		assert.Equal(t, tt.wantOK, ok, "%v %s %v", tt.a, tt.op, tt.b)
		assert.InDelta(t, tt.want, got, 1e-12)
	}

	assert.Equal(t, []solver.Operator{solver.Add, solver.Subtract, solver.Multiply, solver.Divide}, solver.Operators())
	assert.Equal(t, "+-*/", solver.Add.Symbol()+solver.Subtract.Symbol()+solver.Multiply.Symbol()+solver.Divide.Symbol())
}

func BenchmarkSolveUnsolvable(b *testing.B) {
	values := []float64{1, 1, 1, 1}
	fragments := []string{"1", "1", "1", "1"}
	for i := 0; i < b.N; i++ {
		_, _, _ = solver.Solve(values, fragments)
	}
}

// assertSolution checks the solution evaluates to 24 and uses exactly the
// hand's values.
func assertSolution(t *testing.T, solution string, hand []int) {
	t.Helper()

	v, err := expr.Evaluate(solution)
	require.NoError(t, err, "solution %q", solution)
	assert.True(t, solver.IsTarget(v), "solution %q evaluates to %v", solution, v)

	lits, err := expr.Literals(solution)
	require.NoError(t, err)
	want := append([]int(nil), hand...)
	sort.Ints(want)
	sort.Ints(lits)
	assert.Equal(t, want, lits, "solution %q", solution)
}

// allHands returns every multiset of four values from 1..13.
func allHands() [][]int {
	var hands [][]int
	for a := 1; a <= 13; a++ {
		for b := a; b <= 13; b++ {
			for c := b; c <= 13; c++ {
				for d := c; d <= 13; d++ {
					hands = append(hands, []int{a, b, c, d})
				}
			}
		}
	}
	return hands
}

func toFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// oracle is an independent brute force over every ordered pair.
func oracle(nums []float64) bool {
	if len(nums) == 1 {
		return math.Abs(nums[0]-24) < 1e-6
	}
	for i := range nums {
		for j := range nums {
			if i == j {
				continue
			}
			var rest []float64
			for k := range nums {
				if k != i && k != j {
					rest = append(rest, nums[k])
				}
			}
			a, b := nums[i], nums[j]
			results := []float64{a + b, a - b, a * b}
			if b != 0 {
				results = append(results, a/b)
			}
			for _, r := range results {
				if oracle(append(append([]float64(nil), rest...), r)) {
					return true
				}
			}
		}
	}
	return false
}
