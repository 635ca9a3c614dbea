// Package config loads the optional twentyfour.hcl configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "twentyfour.hcl"

// Config is the complete configuration.
type Config struct {
	Game    *GameSettings    `hcl:"game,block"`
	Scoring *ScoringSettings `hcl:"scoring,block"`
	Storage *StorageSettings `hcl:"storage,block"`
	Log     *LogSettings     `hcl:"log,block"`
	Server  *ServerSettings  `hcl:"server,block"`
}

// GameSettings controls rounds. Durations are whole seconds.
type GameSettings struct {
	TimeLimit   int   `hcl:"time_limit,optional"`
	TimeChoices []int `hcl:"time_choices,optional"`
	Seed        int64 `hcl:"seed,optional"`
}

// ScoringSettings controls how correct answers are scored.
type ScoringSettings struct {
	Base               int `hcl:"base,optional"`
	FirstTryBonus      int `hcl:"first_try_bonus,optional"`
	ComboBonus         int `hcl:"combo_bonus,optional"`
	TimeBonusPerSecond int `hcl:"time_bonus_per_second,optional"`
}

// scoringBlock is the scoring block as written. Pointers tell an explicit 0
// apart from an omitted attribute.
type scoringBlock struct {
	Base               *int `hcl:"base,optional"`
	FirstTryBonus      *int `hcl:"first_try_bonus,optional"`
	ComboBonus         *int `hcl:"combo_bonus,optional"`
	TimeBonusPerSecond *int `hcl:"time_bonus_per_second,optional"`
}

// merge returns d with the attributes set in b applied over it.
func (b *scoringBlock) merge(d ScoringSettings) *ScoringSettings {
	for _, f := range []struct {
		src *int
		dst *int
	}{
		{b.Base, &d.Base},
		{b.FirstTryBonus, &d.FirstTryBonus},
		{b.ComboBonus, &d.ComboBonus},
		{b.TimeBonusPerSecond, &d.TimeBonusPerSecond},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return &d
}

// fileConfig mirrors Config for decoding.
type fileConfig struct {
	Game    *GameSettings    `hcl:"game,block"`
	Scoring *scoringBlock    `hcl:"scoring,block"`
	Storage *StorageSettings `hcl:"storage,block"`
	Log     *LogSettings     `hcl:"log,block"`
	Server  *ServerSettings  `hcl:"server,block"`
}

// StorageSettings locates persisted state.
type StorageSettings struct {
	HighScoreFile string `hcl:"high_score_file,optional"`
}

// LogSettings controls logging.
type LogSettings struct {
	Level string `hcl:"level,optional"`
	File  string `hcl:"file,optional"`
}

// ServerSettings controls the WebSocket server.
type ServerSettings struct {
	Address string `hcl:"address,optional"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Game: &GameSettings{
			TimeLimit:   60,
			TimeChoices: []int{30, 60, 90, 120},
		},
		Scoring: &ScoringSettings{
			Base:               10,
			FirstTryBonus:      5,
			ComboBonus:         2,
			TimeBonusPerSecond: 0,
		},
		Storage: &StorageSettings{
			HighScoreFile: "highscore.txt",
		},
		Log: &LogSettings{
			Level: "info",
		},
		Server: &ServerSettings{
			Address: ":8080",
		},
	}
}

// Load reads filename. A missing file yields Default; values absent from the
// file are taken from Default.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	d := Default()
	cfg := Config{
		Game:    fc.Game,
		Storage: fc.Storage,
		Log:     fc.Log,
		Server:  fc.Server,
	}
	if fc.Scoring != nil {
		cfg.Scoring = fc.Scoring.merge(*d.Scoring)
	}
	cfg.applyDefaults(d)
	return &cfg, nil
}

// Every block is optional; a missing block takes its defaults wholesale.
func (c *Config) applyDefaults(d *Config) {
	if c.Game == nil {
		c.Game = d.Game
	}
	if c.Scoring == nil {
		c.Scoring = d.Scoring
	}
	if c.Storage == nil {
		c.Storage = d.Storage
	}
	if c.Log == nil {
		c.Log = d.Log
	}
	if c.Server == nil {
		c.Server = d.Server
	}

	if c.Game.TimeLimit == 0 {
		c.Game.TimeLimit = d.Game.TimeLimit
	}
	if len(c.Game.TimeChoices) == 0 {
		c.Game.TimeChoices = d.Game.TimeChoices
	}
	if c.Storage.HighScoreFile == "" {
		c.Storage.HighScoreFile = d.Storage.HighScoreFile
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
}

// Validate checks the configuration for values the game cannot use.
func (c *Config) Validate() error {
	if len(c.Game.TimeChoices) == 0 {
		return fmt.Errorf("at least one time choice must be configured")
	}
	found := false
	for _, choice := range c.Game.TimeChoices {
		if choice <= 0 {
			return fmt.Errorf("time choices must be positive, got %d", choice)
		}
		if choice == c.Game.TimeLimit {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("time limit %d is not one of the time choices %v", c.Game.TimeLimit, c.Game.TimeChoices)
	}

	if c.Scoring.Base <= 0 {
		return fmt.Errorf("base score must be positive")
	}
	if c.Scoring.FirstTryBonus < 0 || c.Scoring.ComboBonus < 0 || c.Scoring.TimeBonusPerSecond < 0 {
		return fmt.Errorf("score bonuses cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	return nil
}

// TimeLimit returns the configured round duration.
func (c *Config) TimeLimit() time.Duration {
	return time.Duration(c.Game.TimeLimit) * time.Second
}

// TimeChoices returns the selectable round durations.
func (c *Config) TimeChoices() []time.Duration {
	out := make([]time.Duration, len(c.Game.TimeChoices))
	for i, s := range c.Game.TimeChoices {
		out[i] = time.Duration(s) * time.Second
	}
	return out
}

// SeedFlag returns the configured seed, or nil when none is set.
func (c *Config) SeedFlag() *int64 {
	if c.Game.Seed == 0 {
		return nil
	}
	seed := c.Game.Seed
	return &seed
}
