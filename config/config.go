package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hexsim/hexsim/board"
	"github.com/hexsim/hexsim/worker"
)

const (
	ConfigDebug            = "debug"
	ConfigBoardSize        = "board-size"
	ConfigSimulations      = "simulations"
	ConfigWorkers          = "workers"
	ConfigLocalWorkers     = "local-workers"
	ConfigInteractiveSetup = "interactive-setup"
	ConfigRoundLog         = "round-log"
	ConfigHumanSide        = "human-side"
	ConfigCPUProfile       = "cpu-profile"
)

const (
	DefaultBoardSize   = 7
	DefaultSimulations = 4000
	MinSimulations     = 100
	MaxSimulations     = 1000000
)

var ErrInvalidSetting = errors.New("invalid setting")

type Config struct {
	*viper.Viper
}

// DefaultWorkers is the number of online CPUs, clamped to the pool limits.
func DefaultWorkers() int {
	return worker.ClampWorkers(runtime.NumCPU())
}

// Load reads flags from args, then HEX_* environment variables, then the
// defaults.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()

	fs := pflag.NewFlagSet("hex", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.Int(ConfigBoardSize, DefaultBoardSize, "board side length")
	fs.Int(ConfigSimulations, DefaultSimulations, "playouts per computer move")
	fs.Int(ConfigWorkers, DefaultWorkers(), "number of worker processes")
	fs.Bool(ConfigLocalWorkers, false, "run workers as goroutines instead of processes")
	fs.Bool(ConfigInteractiveSetup, true, "ask for board size, simulations and workers before the game")
	fs.String(ConfigRoundLog, "", "append a YAML record of every evaluation round to this file")
	fs.String(ConfigHumanSide, board.SideA.String(), "the human's side, X (left-right) or O (top-bottom)")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix("hex")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()
	return nil
}

// HumanSide parses the human-side setting.
func (c *Config) HumanSide() (board.Cell, error) {
	return board.SideFromString(c.GetString(ConfigHumanSide))
}

// Validate range checks the numeric settings and the human side.
func (c *Config) Validate() error {
	checks := []struct {
		key    string
		lo, hi int
	}{
		{ConfigBoardSize, board.MinSide, board.MaxSide},
		{ConfigSimulations, MinSimulations, MaxSimulations},
		{ConfigWorkers, 1, worker.MaxWorkers},
	}
	for _, ch := range checks {
		v := c.GetInt(ch.key)
		if v < ch.lo || v > ch.hi {
			return fmt.Errorf("%w: %s is %d, want %d to %d", ErrInvalidSetting, ch.key, v, ch.lo, ch.hi)
		}
	}
	if _, err := c.HumanSide(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidSetting, ConfigHumanSide, err)
	}
	return nil
}

// SanitizedSettings is the settings map for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
