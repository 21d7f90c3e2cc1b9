package board

// This file contains some sample positions, used solely for testing.

import "strings"

// SamplePosition is a board written one row per line, in the characters
// FromRows reads.
type SamplePosition string

const (
	// DoubleThreat has B2 as the winning cell for both sides.
	DoubleThreat SamplePosition = `
+ O +
X + X
+ O +
`
	// DecidedBeforeFull has X joined along the top row while C2 is still
	// empty.
	DecidedBeforeFull SamplePosition = `
X X X
O O +
O X O
`
	// LastCell has a single empty cell, C3.
	LastCell SamplePosition = `
X O O
X O X
O X +
`
	// ChainDiagonal has X on the diagonal that runs up to the right, where
	// each cell touches the next, so X joins left and right.
	ChainDiagonal SamplePosition = `
+ + + X
+ + X +
+ X + +
X + + +
`
	// BrokenDiagonal has X on the other diagonal, whose cells only meet at
	// corners, so nothing is joined.
	BrokenDiagonal SamplePosition = `
X + + +
+ X + +
+ + X +
+ + + X
`
)

// Board builds the position.
func (p SamplePosition) Board() (*Board, error) {
	rows := strings.Fields(strings.ReplaceAll(strings.TrimSpace(string(p)), " ", ""))
	return FromRows(rows...)
}
