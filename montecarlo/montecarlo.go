// Package montecarlo picks hex moves by simulation. Every empty cell is
// tried as the next move and followed by uniformly random playouts; the
// playout budget is split in two passes, a flat quick pass over all
// candidates and an adaptive pass that gives more playouts to the
// candidates that did well in the quick pass.
package montecarlo

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/hexsim/hexsim/board"
)

const (
	// MinQuickPlayouts is the floor on phase-one playouts per candidate.
	MinQuickPlayouts = 10
)

// Engine runs the two-pass evaluation. An Engine owns its random source
// and scratch boards, so it must not be shared between goroutines; use one
// per worker.
type Engine struct {
	rng Rand

	scratch    board.Board
	base       board.Board
	candidates []int
	empties    []int
	quick      []int64

	playoutCount uint64
}

// NewEngine returns an engine drawing from rng. A nil rng gets a freshly
// seeded one.
func NewEngine(rng Rand) *Engine {
	if rng == nil {
		rng = NewRand()
	}
	return &Engine{
		rng:        rng,
		candidates: make([]int, 0, board.MaxCells),
		empties:    make([]int, 0, board.MaxCells),
		quick:      make([]int64, board.MaxCells),
	}
}

// PlayoutCount is the number of playouts run over the engine's lifetime.
func (e *Engine) PlayoutCount() uint64 {
	return e.playoutCount
}

// QuickPlayouts is the phase-one playout count per candidate for a budget
// spread over n candidates.
func QuickPlayouts(budget, n int) int {
	if n <= 0 {
		return 0
	}
	quick := budget / (n * 2)
	if quick < MinQuickPlayouts {
		quick = MinQuickPlayouts
	}
	return quick
}

// ExtraPlayouts is the phase-two allocation for a candidate whose quick
// score is q, given the best quick score, the budget left after phase one
// and the number of candidates. Moves near the best get a larger share,
// every move gets something while the best quick score is positive, and
// the split is uniform otherwise.
func ExtraPlayouts(q, best, remaining int64, n int) int64 {
	if n <= 0 || remaining <= 0 {
		return 0
	}
	var extra int64
	if best > 0 {
		extra = (q + best + 1) * remaining / (int64(n) * (2*best + 1))
	} else {
		extra = remaining / int64(n)
	}
	if extra < 0 {
		return 0
	}
	return extra
}

// Evaluate scores every empty cell of b as the next move for side, spending
// about budget playouts in total. Occupied cells get Sentinel. b is not
// modified.
func (e *Engine) Evaluate(ctx context.Context, b *board.Board, side board.Cell, budget int) *Stats {
	logger := zerolog.Ctx(ctx)
	st := NewStats(b)

	e.candidates = b.Empties(e.candidates[:0])
	nc := len(e.candidates)
	if nc == 0 || budget <= 0 || !side.IsSide() {
		return st
	}
	tstart := time.Now()
	startCount := e.playoutCount
	other := side.Opponent()
	e.base.CopyFrom(b)

	// Phase one: a flat quick pass over every candidate.
	quick := QuickPlayouts(budget, nc)
	for _, pos := range e.candidates {
		e.quick[pos] = e.score(pos, side, other, int64(quick))
		st.Playouts[pos] = int64(quick)
	}

	// Phase two: spread what is left according to the quick results.
	remaining := int64(budget) - int64(quick)*int64(nc)
	best := int64(math.MinInt64)
	for _, pos := range e.candidates {
		best = max(best, e.quick[pos])
	}
	for _, pos := range e.candidates {
		extra := ExtraPlayouts(e.quick[pos], best, remaining, nc)
		if extra > 0 {
			st.Scores[pos] += e.score(pos, side, other, extra)
			st.Playouts[pos] += extra
		}
		st.Scores[pos] += e.quick[pos]
	}

	elapsed := time.Since(tstart)
	n := e.playoutCount - startCount
	logger.Debug().Int("candidates", nc).Int("budget", budget).Int("quick", quick).
		Int64("best-quick", best).Uint64("playouts", n).
		Float64("pps", float64(n)/elapsed.Seconds()).Msg("evaluate-done")
	return st
}

// score places side on pos in the base position, runs n playouts with
// other to move and returns wins minus losses for side.
func (e *Engine) score(pos int, side, other board.Cell, n int64) int64 {
	e.base.Set(pos, side)
	defer e.base.Set(pos, board.Empty)

	var total int64
	for r := int64(0); r < n; r++ {
		// A playout that somehow produced no winner counts as a loss.
		if playout(&e.scratch, &e.base, other, e.rng, e.empties) == side {
			total++
		} else {
			total--
		}
	}
	e.playoutCount += uint64(n)
	return total
}
