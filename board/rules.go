package board

// neighbourOffsets are the six hex neighbours of (x, y) on a rhombus board.
var neighbourOffsets = [6][2]int{
	{0, -1}, {1, -1}, {1, 0}, {0, 1}, {-1, 1}, {-1, 0},
}

// Connects reports whether side has joined its two edges: left to right for
// SideA, top to bottom for SideB. An unset board or a non-side simply has no
// connection yet.
func Connects(b *Board, side Cell) bool {
	if b == nil || b.size <= 0 || !side.IsSide() {
		return false
	}
	size := b.size
	horizontal := side == SideA

	var stack [MaxCells]int
	var visited [MaxCells]bool
	top := 0
	for k := 0; k < size; k++ {
		pos := k // row 0, column k
		if horizontal {
			pos = k * size // column 0, row k
		}
		if b.cells[pos] == side {
			stack[top] = pos
			top++
			visited[pos] = true
		}
	}

	for top > 0 {
		top--
		pos := stack[top]
		x, y := pos%size, pos/size
		if (horizontal && x == size-1) || (!horizontal && y == size-1) {
			return true
		}
		for _, off := range neighbourOffsets {
			nb := toIndex(size, x+off[0], y+off[1])
			if nb < 0 || visited[nb] || b.cells[nb] != side {
				continue
			}
			visited[nb] = true
			stack[top] = nb
			top++
		}
	}
	return false
}

// Winner returns the side that has connected its edges, or Empty. SideA is
// checked first; on a legally played board at most one side can connect.
func Winner(b *Board) Cell {
	if Connects(b, SideA) {
		return SideA
	}
	if Connects(b, SideB) {
		return SideB
	}
	return Empty
}
