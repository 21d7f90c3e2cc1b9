// Package shell is the terminal front end: a readline prompt that reads the
// human's moves and a few commands, and prints the board after every turn.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"

	"github.com/hexsim/hexsim/board"
	"github.com/hexsim/hexsim/game"
	"github.com/hexsim/hexsim/parallel"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errOccupied          = errors.New("that cell is occupied")
	errNoGame            = errors.New("no game in progress")
)

// lineReader is the part of a readline instance the shell uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(p string)
	Stderr() io.Writer
	Close() error
}

type Response struct {
	message string
}

func Msg(message string) *Response {
	return &Response{message: message}
}

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

type ShellController struct {
	l    lineReader
	game *game.Game
	eval *parallel.Evaluator
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// NewShellController opens a readline prompt on the terminal.
func NewShellController() (*ShellController, error) {
	sc := &ShellController{}
	l, err := readline.NewEx(&readline.Config{
		Prompt:              "hex> ",
		HistoryFile:         filepath.Join(os.TempDir(), "hex-readline.tmp"),
		EOFPrompt:           "exit",
		InterruptPrompt:     "^C",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
		AutoComplete:        NewShellCompleter(sc),
	})
	if err != nil {
		return nil, err
	}
	sc.l = l
	return sc, nil
}

func newShellController(l lineReader) *ShellController {
	return &ShellController{l: l}
}

// SetGame attaches the game the hint and ranking commands look at. eval
// may be nil.
func (sc *ShellController) SetGame(g *game.Game, eval *parallel.Evaluator) {
	sc.game = g
	sc.eval = eval
}

func (sc *ShellController) Close() error {
	return sc.l.Close()
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.l.Stderr())
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// readLine returns the next trimmed line. An interrupt or end of input
// means the human wants out.
func (sc *ShellController) readLine(ctx context.Context) (string, error) {
	line, err := sc.l.Readline()
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return "", cerr
		}
		if err == readline.ErrInterrupt || err == io.EOF {
			return "", game.ErrQuit
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		fields = strings.Fields(line)
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := &shellcmd{cmd: fields[0], options: map[string]string{}}
	for i := 1; i < len(fields); i++ {
		if !strings.HasPrefix(fields[i], "-") {
			cmd.args = append(cmd.args, fields[i])
			continue
		}
		if i+1 >= len(fields) {
			return nil, errWrongOptionSyntax
		}
		cmd.options[strings.TrimPrefix(fields[i], "-")] = fields[i+1]
		i++
	}
	return cmd, nil
}

// Show prints the board and a status line.
func (sc *ShellController) Show(b *board.Board, status string) {
	sc.showMessage("")
	sc.showMessage(b.ToDisplayText())
	sc.showMessage(status)
}

// ReadMove prompts until the human enters an empty cell or quits. Other
// commands are answered in between.
func (sc *ShellController) ReadMove(ctx context.Context, b *board.Board) (int, error) {
	side := board.SideA
	if sc.game != nil {
		side = sc.game.Human()
	}
	sc.l.SetPrompt(fmt.Sprintf("%s to move (e.g. A1, help, Q to quit)> ", side))
	for {
		if err := ctx.Err(); err != nil {
			return -1, err
		}
		line, err := sc.readLine(ctx)
		if err != nil {
			return -1, err
		}
		idx, err := sc.handle(ctx, b, line)
		switch {
		case errors.Is(err, game.ErrQuit):
			return -1, err
		case errors.Is(err, errNoData):
			sc.showMessage("Empty input.")
		case err != nil:
			sc.showError(err)
		case idx >= 0:
			return idx, nil
		}
	}
}

// handle answers one line typed at the move prompt. It returns a cell
// index when the line is a playable move, and -1 otherwise.
func (sc *ShellController) handle(ctx context.Context, b *board.Board, line string) (int, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return -1, err
	}
	var resp *Response
	switch strings.ToLower(cmd.cmd) {
	case "q":
		// Q alone quits; "q 3" is a cell on wide boards.
		if len(cmd.args) > 0 {
			return sc.parseMove(b, line)
		}
		return -1, game.ErrQuit
	case "quit", "exit", "bye":
		return -1, game.ErrQuit
	case "help", "?":
		resp, err = sc.help(cmd)
	case "board", "show":
		resp = Msg(b.ToDisplayText())
	case "hint":
		resp, err = sc.hint(ctx, cmd)
	case "ranking", "rank":
		resp, err = sc.ranking(cmd)
	case "info":
		resp, err = sc.info(cmd)
	default:
		return sc.parseMove(b, line)
	}
	if err != nil {
		return -1, err
	}
	if resp != nil {
		sc.showMessage(resp.message)
	}
	return -1, nil
}

func (sc *ShellController) parseMove(b *board.Board, line string) (int, error) {
	idx, err := b.ParseMove(line)
	if err != nil {
		return -1, err
	}
	if b.At(idx) != board.Empty {
		return -1, fmt.Errorf("%w: %s", errOccupied, b.CoordString(idx))
	}
	return idx, nil
}
