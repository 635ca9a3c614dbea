// Package batch grades files of hands, one hand per line.
//
// Each non-empty line is written back with a prefix: "+ " when the hand can
// make 24, "- " when it cannot, and "! Invalid input: ..." in place of the
// line when it is not four valid card tokens. A final "<solved>/<total>" line
// summarises the run.
package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/twentyfour/internal/deck"
	"github.com/lox/twentyfour/internal/fileutil"
	"github.com/lox/twentyfour/solver"
)

// Status is the grading outcome of one line.
type Status uint8

const (
	Solved Status = iota
	Unsolved
	Invalid
)

func (s Status) String() string {
	switch s {
	case Solved:
		return "solved"
	case Unsolved:
		return "unsolved"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Prefix returns the output marker for the status.
func (s Status) Prefix() string {
	switch s {
	case Solved:
		return "+ "
	case Unsolved:
		return "- "
	default:
		return "! "
	}
}

// LineResult is the grade of a single input line.
type LineResult struct {
	Line     string
	Status   Status
	Solution string
	// Err explains an Invalid line.
	Err error
}

// Output formats the result as a line of the results file. With
// showSolution, solved lines are followed by " = <solution>".
func (r LineResult) Output(showSolution bool) string {
	switch r.Status {
	case Invalid:
		return r.Status.Prefix() + "Invalid input: " + r.Err.Error()
	case Solved:
		if showSolution {
			return r.Status.Prefix() + r.Line + " = " + r.Solution
		}
	}
	return r.Status.Prefix() + r.Line
}

// Grade parses and solves a single line. Invalid lines never reach the
// solver. Solutions use the tokens as written, so "A" stays "A".
func Grade(line string) LineResult {
	h, err := deck.ParseHand(line)
	if err != nil {
		return LineResult{Line: line, Status: Invalid, Err: err}
	}

	expr, ok, err := solver.Solve(h.Values(), h.Tokens())
	if err != nil {
		return LineResult{Line: line, Status: Invalid, Err: err}
	}
	if !ok {
		return LineResult{Line: line, Status: Unsolved}
	}
	return LineResult{Line: line, Status: Solved, Solution: expr}
}

// Summary counts graded lines. Invalid lines count towards Total only.
type Summary struct {
	Solved  int
	Invalid int
	Total   int
}

// String formats the summary line, e.g. "3/5".
func (s Summary) String() string {
	return fmt.Sprintf("%d/%d", s.Solved, s.Total)
}

// Summarize counts results by status.
func Summarize(results []LineResult) Summary {
	var sum Summary
	for _, res := range results {
		sum.Total++
		switch res.Status {
		case Solved:
			sum.Solved++
		case Invalid:
			sum.Invalid++
		}
	}
	return sum
}

// Grader grades many lines concurrently while keeping output in input order.
type Grader struct {
	workers       int
	showSolutions bool
	logger        *log.Logger
}

// Option configures a Grader.
type Option func(*Grader)

// WithWorkers bounds the number of lines solved at once.
func WithWorkers(n int) Option {
	return func(g *Grader) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithSolutions appends the solution to solved lines.
func WithSolutions(show bool) Option {
	return func(g *Grader) {
		g.showSolutions = show
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(g *Grader) {
		g.logger = logger.WithPrefix("batch")
	}
}

// New returns a Grader using one worker per CPU by default.
func New(opts ...Option) *Grader {
	g := &Grader{
		workers: runtime.GOMAXPROCS(0),
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GradeLines grades lines, skipping empty ones. Results are in input order.
func (g *Grader) GradeLines(ctx context.Context, lines []string) ([]LineResult, error) {
	var pending []string
	for _, line := range lines {
		if line != "" {
			pending = append(pending, line)
		}
	}

	results := make([]LineResult, len(pending))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	for i, line := range pending {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Grade(line)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Run grades every line of r and writes the results and summary to w.
func (g *Grader) Run(ctx context.Context, r io.Reader, w io.Writer) (Summary, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return Summary{}, fmt.Errorf("read input: %w", err)
	}

	results, err := g.GradeLines(ctx, lines)
	if err != nil {
		return Summary{}, err
	}

	sum := Summarize(results)
	for _, res := range results {
		if res.Status == Invalid {
			g.logger.Debug("Invalid line", "line", res.Line, "error", res.Err)
		}
		if _, err := fmt.Fprintln(w, res.Output(g.showSolutions)); err != nil {
			return sum, fmt.Errorf("write result: %w", err)
		}
	}

	if _, err := fmt.Fprintln(w, sum.String()); err != nil {
		return sum, fmt.Errorf("write summary: %w", err)
	}
	return sum, nil
}

// RunFile grades the file at in and atomically writes the results to out.
// An empty out defaults to the input name with a "_result" suffix.
func (g *Grader) RunFile(ctx context.Context, in, out string) (Summary, error) {
	if out == "" {
		out = DefaultOutput(in)
	}

	f, err := os.Open(in)
	if err != nil {
		return Summary{}, fmt.Errorf("cannot open input file: %w", err)
	}
	defer f.Close()

	var sum Summary
	err = fileutil.WriteAtomic(out, 0o644, func(w io.Writer) error {
		var runErr error
		sum, runErr = g.Run(ctx, f, w)
		return runErr
	})
	if err != nil {
		return sum, err
	}

	g.logger.Info("Batch complete", "input", in, "output", out, "solved", sum.Solved, "invalid", sum.Invalid, "total", sum.Total)
	return sum, nil
}

// DefaultOutput returns the results path for an input file: test.txt becomes
// test_result.txt.
func DefaultOutput(in string) string {
	return fileutil.DerivedPath(in, "_result")
}
