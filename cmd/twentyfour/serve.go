package main

import (
	"os"

	"github.com/lox/twentyfour/cmd/twentyfour/shared"
	"github.com/lox/twentyfour/internal/highscore"
	"github.com/lox/twentyfour/internal/randutil"
	"github.com/lox/twentyfour/internal/server"
)

type ServeCmd struct {
	Addr string `short:"a" help:"Server address (default from config, :8080)"`
	Seed *int64 `help:"Deterministic RNG seed for the server (optional)"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	logger, err := cli.logger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	addr := cfg.Server.Address
	if c.Addr != "" {
		addr = c.Addr
	}

	seedFlag := c.Seed
	if seedFlag == nil {
		seedFlag = cfg.SeedFlag()
	}
	rng, seed := randutil.NewFromFlag(seedFlag)
	logger.Info("Starting server", "addr", addr, "seed", seed, "timeLimit", cfg.TimeLimit())

	s := server.NewServer(logger, rng,
		server.WithHighScoreStore(highscore.NewStore(cfg.Storage.HighScoreFile)),
		server.WithSessionOptions(sessionOptions(cfg, 0)...),
	)

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	return s.ListenAndServe(ctx, addr)
}
