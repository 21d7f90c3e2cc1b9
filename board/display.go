package board

import (
	"fmt"
	"strings"
)

// ToDisplayText draws the board as a rhombus: column letters on top, and
// every row shifted right by one more half-cell than the previous one.
func (b *Board) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString("  ")
	for n := 0; n < b.size; n++ {
		fmt.Fprintf(&sb, "%c   ", 'A'+n)
	}
	sb.WriteString("\n")
	for y := 0; y < b.size; y++ {
		sb.WriteString(strings.Repeat("  ", y))
		fmt.Fprintf(&sb, "%d", y+1)
		for x := 0; x < b.size; x++ {
			fmt.Fprintf(&sb, "   %c", b.cells[y*b.size+x])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (b *Board) String() string {
	return b.ToDisplayText()
}
