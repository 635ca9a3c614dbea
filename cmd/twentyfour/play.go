package main

import (
	"fmt"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/twentyfour/cmd/twentyfour/shared"
	"github.com/lox/twentyfour/internal/dealer"
	"github.com/lox/twentyfour/internal/game"
	"github.com/lox/twentyfour/internal/highscore"
	"github.com/lox/twentyfour/internal/randutil"
	"github.com/lox/twentyfour/internal/tui"
)

type PlayCmd struct {
	Seed      *int64        `help:"Deterministic RNG seed (optional)"`
	TimeLimit time.Duration `help:"Round time limit, one of the configured choices (default from config)"`
}

func (c *PlayCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}

	if c.TimeLimit != 0 && !slices.Contains(cfg.TimeChoices(), c.TimeLimit) {
		return fmt.Errorf("--time-limit %s: %w %v", c.TimeLimit, game.ErrInvalidTimeLimit, cfg.TimeChoices())
	}

	logFile, err := shared.OpenLogFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer logFile.Close()

	logger, err := cli.logger(cfg, logFile)
	if err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	seedFlag := c.Seed
	if seedFlag == nil {
		seedFlag = cfg.SeedFlag()
	}
	rng, seed := randutil.NewFromFlag(seedFlag)
	logger.Info("Starting game", "seed", seed, "highScoreFile", cfg.Storage.HighScoreFile)

	opts := append(sessionOptions(cfg, c.TimeLimit), game.WithLogger(logger))
	session, err := game.NewSession(
		dealer.New(rng, dealer.WithLogger(logger)),
		highscore.NewStore(cfg.Storage.HighScoreFile),
		opts...,
	)
	if err != nil {
		return err
	}

	model := tui.NewModel(ctx, session, logger)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run game: %w", err)
	}
	return nil
}
