// Package game runs a hex game between a human and the computer. It knows
// the turn order and when the game is over; how the board is shown and how
// the human's moves are read is up to a Presenter.
package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hexsim/hexsim/board"
	"github.com/hexsim/hexsim/montecarlo"
	"github.com/hexsim/hexsim/parallel"
)

var (
	// ErrQuit is returned by a Presenter when the human gives up.
	ErrQuit = errors.New("game ended by the user")
	// ErrBoardFull means there is no legal move left.
	ErrBoardFull = errors.New("no moves left")
	// ErrGameOver means a move was attempted after the game was decided.
	ErrGameOver = errors.New("game is over")
	// ErrNotYourTurn means a side tried to move out of turn.
	ErrNotYourTurn = errors.New("not this side's turn")
)

const quitStatus = "Game ended by the user."

// Presenter shows the game to the human and reads their moves.
type Presenter interface {
	// Show displays the board with a one-line status.
	Show(b *board.Board, status string)
	// ReadMove returns the index of an empty cell, or ErrQuit.
	ReadMove(ctx context.Context, b *board.Board) (int, error)
}

// MoveEvaluator scores every empty cell for a side.
// parallel.Evaluator is the usual implementation.
type MoveEvaluator interface {
	Evaluate(ctx context.Context, b *board.Board, side board.Cell, budget int) (*montecarlo.Stats, *parallel.Round)
}

// SideName describes a side together with the edges it joins.
func SideName(c board.Cell) string {
	switch c {
	case board.SideA:
		return "X (left-right)"
	case board.SideB:
		return "O (top-bottom)"
	}
	return "nobody"
}

// Game is one game in progress. SideA always moves first.
type Game struct {
	board    *board.Board
	human    board.Cell
	computer board.Cell
	budget   int
	eval     MoveEvaluator

	onturn  board.Cell
	turnnum int
	winner  board.Cell

	lastStats *montecarlo.Stats
	lastRound *parallel.Round
}

// New sets up an empty board of the given size. budget is the number of
// playouts the computer spends per move.
func New(size int, human board.Cell, budget int, eval MoveEvaluator) (*Game, error) {
	if !human.IsSide() {
		return nil, fmt.Errorf("human side: %w", board.ErrInvalidSide)
	}
	b, err := board.New(size)
	if err != nil {
		return nil, err
	}
	return &Game{
		board:    b,
		human:    human,
		computer: human.Opponent(),
		budget:   budget,
		eval:     eval,
		onturn:   board.SideA,
		winner:   board.Empty,
	}, nil
}

func (g *Game) Board() *board.Board {
	return g.board
}

func (g *Game) Human() board.Cell {
	return g.human
}

func (g *Game) Computer() board.Cell {
	return g.computer
}

// OnTurn is the side to move.
func (g *Game) OnTurn() board.Cell {
	return g.onturn
}

// Turn counts the moves played so far.
func (g *Game) Turn() int {
	return g.turnnum
}

// Winner is Empty until a side has connected.
func (g *Game) Winner() board.Cell {
	return g.winner
}

// Budget is the computer's playout budget per move.
func (g *Game) Budget() int {
	return g.budget
}

// LastEvaluation returns the computer's most recent evaluation, or nils
// before its first move.
func (g *Game) LastEvaluation() (*montecarlo.Stats, *parallel.Round) {
	return g.lastStats, g.lastRound
}

// Evaluate scores the current position for side without moving.
func (g *Game) Evaluate(ctx context.Context, side board.Cell) (*montecarlo.Stats, *parallel.Round) {
	return g.eval.Evaluate(ctx, g.board, side, g.budget)
}

// Over reports whether the game has ended, and why.
func (g *Game) Over() (bool, error) {
	if g.winner != board.Empty {
		return true, nil
	}
	if !g.board.HasFree() {
		return true, ErrBoardFull
	}
	return false, nil
}

func (g *Game) play(idx int, side board.Cell) error {
	if over, _ := g.Over(); over {
		return ErrGameOver
	}
	if side != g.onturn {
		return ErrNotYourTurn
	}
	if err := g.board.Place(idx, side); err != nil {
		return err
	}
	g.turnnum++
	if board.Connects(g.board, side) {
		g.winner = side
	}
	g.onturn = side.Opponent()
	return nil
}

// PlayHuman places the human's mark on idx.
func (g *Game) PlayHuman(idx int) error {
	return g.play(idx, g.human)
}

// PlayComputer evaluates the position and plays the best cell. If that
// cell cannot be taken, the first empty cell is played instead.
func (g *Game) PlayComputer(ctx context.Context) (int, error) {
	if over, err := g.Over(); over {
		if err != nil {
			return -1, err
		}
		return -1, ErrGameOver
	}
	if g.onturn != g.computer {
		return -1, ErrNotYourTurn
	}
	st, round := g.eval.Evaluate(ctx, g.board, g.computer, g.budget)
	g.lastStats, g.lastRound = st, round

	move := montecarlo.SelectMove(st.Scores)
	if err := g.play(move, g.computer); err != nil {
		fallback := g.board.FirstFree()
		zerolog.Ctx(ctx).Warn().Err(err).Int("selected", move).Int("fallback", fallback).
			Msg("selected-move-unplayable")
		move = fallback
		if err := g.play(move, g.computer); err != nil {
			return -1, err
		}
	}
	return move, nil
}

// Run plays the game to the end. It returns the winner, or ErrQuit,
// ErrBoardFull or the context's error when the game ends without one.
func (g *Game) Run(ctx context.Context, p Presenter) (board.Cell, error) {
	logger := zerolog.Ctx(ctx)
	status := fmt.Sprintf("You are %s, the computer is %s.", SideName(g.human), SideName(g.computer))
	for {
		if err := ctx.Err(); err != nil {
			p.Show(g.board, quitStatus)
			return board.Empty, err
		}
		if over, err := g.Over(); over {
			if err != nil {
				p.Show(g.board, "No moves left.")
				return board.Empty, err
			}
			p.Show(g.board, fmt.Sprintf("%s wins.", SideName(g.winner)))
			return g.winner, nil
		}

		if g.onturn == g.human {
			p.Show(g.board, status)
			idx, err := p.ReadMove(ctx, g.board)
			if err != nil {
				if errors.Is(err, ErrQuit) || ctx.Err() != nil {
					p.Show(g.board, quitStatus)
				}
				return board.Empty, err
			}
			if err := g.PlayHuman(idx); err != nil {
				status = "That cell is occupied or off the board."
				continue
			}
			status = fmt.Sprintf("You played %s at %s.", g.human, g.board.CoordString(idx))
			continue
		}

		p.Show(g.board, "The computer is thinking...")
		move, err := g.PlayComputer(ctx)
		if err != nil {
			return board.Empty, err
		}
		logger.Debug().Str("move", g.board.CoordString(move)).Int("turn", g.turnnum).Msg("computer-moved")
		status = fmt.Sprintf("The computer plays %s.", g.board.CoordString(move))
	}
}
