// Package board holds the hex board representation and the connection rule
// that decides the game.
package board

import (
	"errors"
	"fmt"
)

const (
	// MaxSide is the largest supported board edge. The whole board must fit
	// in MaxCells so that a snapshot always has a bounded size on the wire.
	MaxSide  = 26
	MaxCells = MaxSide * MaxSide
	// MinSide is the smallest board on which both sides can still connect.
	MinSide = 2
)

// A Cell is the content of a single hex. It doubles as the identity of a
// side, since a side is exactly the mark it leaves on the board.
type Cell byte

const (
	Empty Cell = '+'
	// SideA connects the left and right edges.
	SideA Cell = 'X'
	// SideB connects the top and bottom edges.
	SideB Cell = 'O'
)

func (c Cell) String() string {
	return string(rune(c))
}

// Opponent returns the other side. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case SideA:
		return SideB
	case SideB:
		return SideA
	}
	return Empty
}

// IsSide is true for SideA and SideB.
func (c Cell) IsSide() bool {
	return c == SideA || c == SideB
}

// Valid is true for the three legal cell values.
func (c Cell) Valid() bool {
	return c == Empty || c.IsSide()
}

// SideFromString parses "X"/"O" (any case).
func SideFromString(s string) (Cell, error) {
	switch s {
	case "X", "x":
		return SideA, nil
	case "O", "o":
		return SideB, nil
	}
	return Empty, fmt.Errorf("%w: %q", ErrInvalidSide, s)
}

var (
	ErrInvalidSize  = errors.New("invalid board size")
	ErrInvalidSide  = errors.New("invalid side")
	ErrOutOfBounds  = errors.New("position out of bounds")
	ErrOccupied     = errors.New("cell already occupied")
	ErrInvalidCells = errors.New("invalid cell contents")
)

// Board is a size x size rhombus of hexes stored row-major in a fixed
// buffer. Index = row*size + col.
type Board struct {
	size  int
	cells [MaxCells]Cell
}

// New returns an empty board. It returns an error if size is outside
// [MinSide, MaxSide].
func New(size int) (*Board, error) {
	if size < MinSide || size > MaxSide {
		return nil, fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidSize, size, MinSide, MaxSide)
	}
	b := &Board{size: size}
	b.Clear()
	return b, nil
}

// FromCells builds a board from a row-major snapshot of exactly size*size
// cells, such as the one carried in a worker request.
func FromCells(size int, cells []byte) (*Board, error) {
	b, err := New(size)
	if err != nil {
		return nil, err
	}
	if len(cells) != size*size {
		return nil, fmt.Errorf("%w: got %d cells for size %d", ErrInvalidCells, len(cells), size)
	}
	for i, c := range cells {
		if !Cell(c).Valid() {
			return nil, fmt.Errorf("%w: %q at %d", ErrInvalidCells, c, i)
		}
		b.cells[i] = Cell(c)
	}
	return b, nil
}

// FromRows is a convenience for tests and fixtures: each string is a row,
// using the display characters X, O and + (spaces are ignored).
func FromRows(rows ...string) (*Board, error) {
	cells := make([]byte, 0, len(rows)*len(rows))
	for _, r := range rows {
		for i := 0; i < len(r); i++ {
			if r[i] == ' ' {
				continue
			}
			cells = append(cells, r[i])
		}
	}
	return FromCells(len(rows), cells)
}

func (b *Board) Size() int {
	if b == nil {
		return 0
	}
	return b.size
}

// NumCells is size*size.
func (b *Board) NumCells() int {
	return b.Size() * b.Size()
}

// Clear empties every cell in the playable area.
func (b *Board) Clear() {
	for i := 0; i < b.size*b.size; i++ {
		b.cells[i] = Empty
	}
}

// At returns the cell at idx. Out-of-range indices read as Empty.
func (b *Board) At(idx int) Cell {
	if idx < 0 || idx >= b.NumCells() {
		return Empty
	}
	return b.cells[idx]
}

// Set writes a cell without any rule checks. The simulation code uses it to
// place and lift tentative marks.
func (b *Board) Set(idx int, c Cell) {
	b.cells[idx] = c
}

// Place puts side's mark on an empty cell.
func (b *Board) Place(idx int, side Cell) error {
	if !side.IsSide() {
		return fmt.Errorf("%w: %v", ErrInvalidSide, side)
	}
	if idx < 0 || idx >= b.NumCells() {
		return fmt.Errorf("%w: %d", ErrOutOfBounds, idx)
	}
	if b.cells[idx] != Empty {
		return fmt.Errorf("%w: %s", ErrOccupied, b.CoordString(idx))
	}
	b.cells[idx] = side
	return nil
}

// HasFree is true while at least one empty cell remains.
func (b *Board) HasFree() bool {
	return b.FirstFree() >= 0
}

// FirstFree returns the lowest empty index, or -1 on a full board.
func (b *Board) FirstFree() int {
	for i := 0; i < b.NumCells(); i++ {
		if b.cells[i] == Empty {
			return i
		}
	}
	return -1
}

// Empties appends the indices of all empty cells to dst and returns it.
func (b *Board) Empties(dst []int) []int {
	for i := 0; i < b.NumCells(); i++ {
		if b.cells[i] == Empty {
			dst = append(dst, i)
		}
	}
	return dst
}

// Copy returns an independent copy.
func (b *Board) Copy() *Board {
	c := *b
	return &c
}

// CopyFrom overwrites b with other without allocating.
func (b *Board) CopyFrom(other *Board) {
	b.size = other.size
	copy(b.cells[:other.size*other.size], other.cells[:other.size*other.size])
}

// Cells returns the row-major snapshot of the playable area.
func (b *Board) Cells() []byte {
	out := make([]byte, b.NumCells())
	for i := range out {
		out[i] = byte(b.cells[i])
	}
	return out
}

// ToIndex converts a column/row pair to a cell index, or -1 when off board.
func (b *Board) ToIndex(x, y int) int {
	return toIndex(b.size, x, y)
}

// ToXY converts an index to its column and row.
func (b *Board) ToXY(idx int) (x, y int) {
	return idx % b.size, idx / b.size
}

func toIndex(size, x, y int) int {
	if x < 0 || x >= size || y < 0 || y >= size {
		return -1
	}
	return size*y + x
}
