package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lox/twentyfour/internal/dealer"
	"github.com/lox/twentyfour/internal/randutil"
)

type DealCmd struct {
	Count        int    `short:"n" default:"1" help:"Number of hands to deal"`
	Seed         *int64 `help:"Deterministic RNG seed (optional)"`
	ShowSolution bool   `help:"Print a solution after each hand"`
}

func (c *DealCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	logger, err := cli.logger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	seedFlag := c.Seed
	if seedFlag == nil {
		seedFlag = cfg.SeedFlag()
	}
	rng, seed := randutil.NewFromFlag(seedFlag)
	logger.Debug("Dealing", "seed", seed, "count", c.Count)

	d := dealer.New(rng, dealer.WithLogger(logger))
	for range c.Count {
		deal, err := d.Deal(context.Background())
		if err != nil {
			return err
		}
		if c.ShowSolution {
			fmt.Printf("%s = %s\n", deal.Hand, deal.Solution)
		} else {
			fmt.Println(deal.Hand)
		}
	}
	return nil
}
