package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hexsim/hexsim/board"
	"github.com/hexsim/hexsim/config"
	"github.com/hexsim/hexsim/game"
	"github.com/hexsim/hexsim/worker"
)

// Settings are the choices made before a game starts.
type Settings struct {
	Size        int
	Simulations int
	Workers     int
}

// Setup asks for each setting in turn; an empty line keeps the value in s.
func (sc *ShellController) Setup(ctx context.Context, s Settings) (Settings, error) {
	var err error
	if s.Size, err = sc.promptInt(ctx, "Board size", s.Size, board.MinSide, board.MaxSide); err != nil {
		return s, err
	}
	if s.Simulations, err = sc.promptInt(ctx, "Simulations per move", s.Simulations,
		config.MinSimulations, config.MaxSimulations); err != nil {
		return s, err
	}
	if s.Workers, err = sc.promptInt(ctx, "Worker processes", s.Workers, 1, worker.MaxWorkers); err != nil {
		return s, err
	}
	return s, nil
}

func (sc *ShellController) promptInt(ctx context.Context, label string, def, lo, hi int) (int, error) {
	sc.l.SetPrompt(fmt.Sprintf("%s (%d-%d) [%d]: ", label, lo, hi, def))
	for {
		line, err := sc.readLine(ctx)
		if err != nil {
			return def, err
		}
		if line == "" {
			return def, nil
		}
		if strings.EqualFold(line, "q") {
			return def, game.ErrQuit
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < lo || n > hi {
			sc.showMessage(fmt.Sprintf("Please enter a number from %d to %d.", lo, hi))
			continue
		}
		return n, nil
	}
}
