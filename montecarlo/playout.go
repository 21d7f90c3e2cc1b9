package montecarlo

import (
	"github.com/hexsim/hexsim/board"
)

// Playout plays uniformly random moves from b, toMove first, until a side
// connects, and returns the winner. b is never modified. Empty is returned
// only for an unusable board or side.
func Playout(b *board.Board, toMove board.Cell, rng Rand) board.Cell {
	var scratch board.Board
	return playout(&scratch, b, toMove, rng, nil)
}

// playout runs one game on scratch, a board the caller owns. empties is
// reusable storage for the exhaustive tail.
func playout(scratch, b *board.Board, toMove board.Cell, rng Rand, empties []int) board.Cell {
	n := b.NumCells()
	if n <= 0 || !toMove.IsSide() {
		return board.Empty
	}
	scratch.CopyFrom(b)
	if w := board.Winner(scratch); w != board.Empty {
		return w
	}

	mover := toMove
	maxAttempts := 3 * n
	for attempts := 0; attempts < maxAttempts; attempts++ {
		idx := rng.Intn(n)
		if scratch.At(idx) != board.Empty {
			continue
		}
		scratch.Set(idx, mover)
		// Only the mover's connectivity can change with this placement.
		if board.Connects(scratch, mover) {
			return mover
		}
		mover = mover.Opponent()
	}

	// The attempt cap ran out before the game was decided. Finish it by
	// drawing from the remaining empty cells directly, which has the same
	// distribution as continued rejection sampling. A full hex board always
	// has a winner, so this loop ends with one.
	empties = scratch.Empties(empties[:0])
	for len(empties) > 0 {
		k := rng.Intn(len(empties))
		idx := empties[k]
		empties[k] = empties[len(empties)-1]
		empties = empties[:len(empties)-1]

		scratch.Set(idx, mover)
		if board.Connects(scratch, mover) {
			return mover
		}
		mover = mover.Opponent()
	}
	return board.Empty
}
