package main

import (
	"io"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/twentyfour/cmd/twentyfour/shared"
	"github.com/lox/twentyfour/internal/config"
	"github.com/lox/twentyfour/internal/game"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Config  string           `short:"c" default:"twentyfour.hcl" help:"Path to HCL configuration file"`
	Debug   bool             `help:"Enable debug logging"`
	Version kong.VersionFlag `short:"v" help:"Show version"`

	Solve SolveCmd `cmd:"" help:"Solve a hand, or prompt for hands when none is given"`
	Batch BatchCmd `cmd:"" help:"Grade a file of hands, one per line"`
	Deal  DealCmd  `cmd:"" help:"Deal random solvable hands"`
	Play  PlayCmd  `cmd:"" help:"Play the timed game in the terminal"`
	Serve ServeCmd `cmd:"" help:"Serve games over WebSocket"`
}

// loadConfig reads and validates the configuration file.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logger creates the command logger at the configured level.
func (c *CLI) logger(cfg *config.Config, w io.Writer) (*log.Logger, error) {
	logger := shared.SetupLogger(c.Debug, w)
	if err := shared.ApplyLevel(logger, cfg.Log.Level, c.Debug); err != nil {
		return nil, err
	}
	return logger, nil
}

// sessionOptions turns the configuration into game session options.
func sessionOptions(cfg *config.Config, timeLimit time.Duration) []game.Option {
	if timeLimit == 0 {
		timeLimit = cfg.TimeLimit()
	}
	return []game.Option{
		game.WithScoring(game.Scoring{
			Base:               cfg.Scoring.Base,
			FirstTryBonus:      cfg.Scoring.FirstTryBonus,
			ComboBonus:         cfg.Scoring.ComboBonus,
			TimeBonusPerSecond: cfg.Scoring.TimeBonusPerSecond,
		}),
		game.WithTimeLimits(timeLimit, cfg.TimeChoices()...),
	}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("twentyfour"),
		kong.Description("Solve, grade and play the game of 24"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
