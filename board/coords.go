package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrBadCoords = errors.New("moves look like a column letter and a row number, e.g. A1")

// CoordString renders an index as a human coordinate such as "C4".
func (b *Board) CoordString(idx int) string {
	x, y := b.ToXY(idx)
	return fmt.Sprintf("%c%d", 'A'+x, y+1)
}

// ParseMove turns a human coordinate into a cell index. The column letter
// may be lower case and may be separated from the row by spaces; the row is
// 1-based. It does not check whether the cell is empty.
func (b *Board) ParseMove(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return -1, ErrBadCoords
	}
	col := unicode.ToUpper(rune(s[0]))
	if col < 'A' || col >= 'A'+rune(b.size) {
		return -1, fmt.Errorf("%w: column %q is off the board", ErrBadCoords, s[0])
	}
	rest := strings.TrimSpace(s[1:])
	if rest == "" {
		return -1, ErrBadCoords
	}
	row, err := strconv.Atoi(rest)
	if err != nil {
		return -1, fmt.Errorf("%w: %q is not a row number", ErrBadCoords, rest)
	}
	if row < 1 || row > b.size {
		return -1, fmt.Errorf("%w: row %d is off the board", ErrBadCoords, row)
	}
	return b.ToIndex(int(col-'A'), row-1), nil
}
