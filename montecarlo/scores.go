package montecarlo

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/hexsim/hexsim/board"
	"github.com/hexsim/hexsim/stats"
)

// Sentinel marks a cell that is not a legal move. It is never summed or
// compared as if it were a real score.
const Sentinel = math.MinInt64

var ErrShapeMismatch = errors.New("score vectors have different shapes")

// ScoreVector holds one accumulated win-minus-loss count per cell.
type ScoreVector []int64

// Legal reports whether idx holds a real score.
func (v ScoreVector) Legal(idx int) bool {
	return idx >= 0 && idx < len(v) && v[idx] != Sentinel
}

// Candidates counts the non-sentinel cells.
func (v ScoreVector) Candidates() int {
	return lo.CountBy(v, func(s int64) bool { return s != Sentinel })
}

// Stats is the result of evaluating a position: a score vector and, per
// cell, how many playouts went into that score.
type Stats struct {
	Size     int
	Scores   ScoreVector
	Playouts []int64
}

// NewStats returns the starting vector for b: Sentinel on occupied cells,
// zero everywhere else.
func NewStats(b *board.Board) *Stats {
	n := b.NumCells()
	st := &Stats{
		Size:     b.Size(),
		Scores:   make(ScoreVector, n),
		Playouts: make([]int64, n),
	}
	for i := 0; i < n; i++ {
		if b.At(i) != board.Empty {
			st.Scores[i] = Sentinel
		}
	}
	return st
}

// Merge adds a partial result into st. A cell that is Sentinel on either
// side stays Sentinel.
func (st *Stats) Merge(partial *Stats) error {
	if partial.Size != st.Size || len(partial.Scores) != len(st.Scores) ||
		len(partial.Playouts) != len(st.Playouts) {
		return fmt.Errorf("%w: size %d vs %d", ErrShapeMismatch, st.Size, partial.Size)
	}
	for i, s := range partial.Scores {
		if s == Sentinel || st.Scores[i] == Sentinel {
			st.Scores[i] = Sentinel
			continue
		}
		st.Scores[i] += s
		st.Playouts[i] += partial.Playouts[i]
	}
	return nil
}

// TotalPlayouts sums the playouts over legal cells.
func (st *Stats) TotalPlayouts() int64 {
	var total int64
	for i, p := range st.Playouts {
		if st.Scores.Legal(i) {
			total += p
		}
	}
	return total
}

// WinLoss returns the score and playout count for one cell.
func (st *Stats) WinLoss(idx int) stats.WinLoss {
	if !st.Scores.Legal(idx) {
		return stats.WinLoss{}
	}
	return stats.WinLoss{Score: st.Scores[idx], Playouts: st.Playouts[idx]}
}

// SelectMove returns the index of the highest score. Ties go to the lowest
// index. If every cell is Sentinel it returns 0; callers must detect a
// full board on their own.
func SelectMove(scores ScoreVector) int {
	move := -1
	for i, s := range scores {
		if s == Sentinel {
			continue
		}
		if move < 0 || s > scores[move] {
			move = i
		}
	}
	if move < 0 {
		return 0
	}
	return move
}
