package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/muesli/termenv"

	"github.com/lox/twentyfour/internal/batch"
	"github.com/lox/twentyfour/internal/client"
)

const prompt = "Please enter 4 numbers (A, 2-10, J, Q, K), separated by spaces:"

type SolveCmd struct {
	Cards   []string      `arg:"" optional:"" help:"Four card values (A, 2-10, J, Q, K)"`
	Server  string        `help:"Solve on a twentyfour server instead of locally (e.g. http://localhost:8080)"`
	Timeout time.Duration `default:"10s" help:"Timeout for each request to the server"`
}

// solveFunc grades one input line. Errors are reserved for failures that are
// not the line's fault.
type solveFunc func(line string) (batch.LineResult, error)

func localSolve(line string) (batch.LineResult, error) {
	return batch.Grade(line), nil
}

// remoteSolve solves lines on the server behind c. Hands the server rejects
// are reported as invalid lines, as they would be locally.
func remoteSolve(ctx context.Context, c *client.Client, timeout time.Duration) solveFunc {
	return func(line string) (batch.LineResult, error) {
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		res := batch.LineResult{Line: line}
		sol, err := c.Solve(reqCtx, strings.Fields(line))
		var serverErr *client.ServerError
		switch {
		case errors.As(err, &serverErr) && serverErr.Code == "invalid_hand":
			res.Status = batch.Invalid
			res.Err = errors.New(serverErr.Message)
			return res, nil
		case err != nil:
			return res, err
		}

		res.Status = batch.Unsolved
		if sol.Found {
			res.Status = batch.Solved
			res.Solution = sol.Solution
		}
		return res, nil
	}
}

func (c *SolveCmd) Run(cli *CLI) error {
	out := termenv.NewOutput(os.Stdout)

	solve := solveFunc(localSolve)
	if c.Server != "" {
		cfg, err := cli.loadConfig()
		if err != nil {
			return err
		}
		logger, err := cli.logger(cfg, os.Stderr)
		if err != nil {
			return err
		}

		ctx := context.Background()
		dialCtx, cancel := context.WithTimeout(ctx, c.Timeout)
		defer cancel()

		conn, err := client.Dial(dialCtx, c.Server, client.WithLogger(logger))
		if err != nil {
			return err
		}
		defer conn.Close()

		solve = remoteSolve(ctx, conn, c.Timeout)
	}

	if len(c.Cards) > 0 {
		res, err := solve(strings.Join(c.Cards, " "))
		if err != nil {
			return err
		}
		if res.Status == batch.Invalid {
			return res.Err
		}
		printSolution(out, res)
		return nil
	}

	return solveInteractive(os.Stdin, out, solve)
}

// solveInteractive prompts until a valid hand is entered, then reports
// whether it can make 24. Empty and invalid lines are reported and prompted
// for again.
func solveInteractive(in io.Reader, out *termenv.Output, solve solveFunc) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintln(out, prompt)
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := scanner.Text()
		if line == "" {
			fmt.Fprintln(out, out.String("Empty input. Please try again.").Foreground(out.Color("3")))
			continue
		}

		res, err := solve(line)
		if err != nil {
			return err
		}
		if res.Status == batch.Invalid {
			fmt.Fprintln(out, out.String(res.Output(false)).Foreground(out.Color("1")))
			continue
		}

		printSolution(out, res)
		return nil
	}
}

func printSolution(out *termenv.Output, res batch.LineResult) {
	if res.Status != batch.Solved {
		fmt.Fprintln(out, out.String("No solution found.").Foreground(out.Color("1")).Bold())
		return
	}
	fmt.Fprintln(out, out.String("Solution found!").Foreground(out.Color("2")).Bold())
	fmt.Fprintf(out, "Expression: %s = 24\n", res.Solution)
}
