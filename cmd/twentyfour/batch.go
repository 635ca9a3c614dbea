package main

import (
	"fmt"
	"os"

	"github.com/lox/twentyfour/cmd/twentyfour/shared"
	"github.com/lox/twentyfour/internal/batch"
)

type BatchCmd struct {
	Input         string `short:"i" default:"test.txt" help:"File of hands, one per line"`
	Output        string `short:"o" help:"Results file (default: <input>_result.txt)"`
	Workers       int    `short:"w" help:"Lines solved at once (default: number of CPUs)"`
	ShowSolutions bool   `help:"Append the solution to solved lines"`
}

func (c *BatchCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	logger, err := cli.logger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	out := c.Output
	if out == "" {
		out = batch.DefaultOutput(c.Input)
	}

	grader := batch.New(
		batch.WithWorkers(c.Workers),
		batch.WithSolutions(c.ShowSolutions),
		batch.WithLogger(logger),
	)
	sum, err := grader.RunFile(ctx, c.Input, out)
	if err != nil {
		return err
	}

	fmt.Printf("Processing complete! Results saved to %s (%s solved)\n", out, sum)
	return nil
}
