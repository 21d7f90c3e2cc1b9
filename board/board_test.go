package board

import (
	"math/rand/v2"
	"testing"

	"github.com/matryer/is"
)

// unionFind is a reference connectivity check that shares no code with
// Connects: it unions same-side neighbours and then compares edge roots.
type unionFind []int

func (u unionFind) find(i int) int {
	for u[i] != i {
		u[i] = u[u[i]]
		i = u[i]
	}
	return i
}

func (u unionFind) union(a, b int) {
	u[u.find(a)] = u.find(b)
}

func bruteForceConnects(b *Board, side Cell) bool {
	n := b.Size()
	uf := make(unionFind, n*n)
	for i := range uf {
		uf[i] = i
	}
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if b.At(y*n+x) != side {
				continue
			}
			// right, down and down-left cover every undirected hex edge.
			for _, d := range [][2]int{{1, 0}, {0, 1}, {-1, 1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= n || ny >= n {
					continue
				}
				if b.At(ny*n+nx) == side {
					uf.union(y*n+x, ny*n+nx)
				}
			}
		}
	}
	for s := 0; s < n; s++ {
		for e := 0; e < n; e++ {
			var from, to int
			if side == SideA {
				from, to = s*n, e*n+n-1
			} else {
				from, to = s, (n-1)*n+e
			}
			if b.At(from) == side && b.At(to) == side && uf.find(from) == uf.find(to) {
				return true
			}
		}
	}
	return false
}

func TestConnectsExhaustiveSmallBoards(t *testing.T) {
	is := is.New(t)
	values := []Cell{Empty, SideA, SideB}
	for size := 2; size <= 3; size++ {
		cells := size * size
		total := 1
		for i := 0; i < cells; i++ {
			total *= 3
		}
		b, err := New(size)
		is.NoErr(err)
		for code := 0; code < total; code++ {
			c := code
			for i := 0; i < cells; i++ {
				b.Set(i, values[c%3])
				c /= 3
			}
			for _, side := range []Cell{SideA, SideB} {
				if Connects(b, side) != bruteForceConnects(b, side) {
					t.Fatalf("mismatch for side %v on\n%v", side, b.ToDisplayText())
				}
			}
		}
	}
}

func TestConnectsRandomBoards(t *testing.T) {
	rng := rand.New(rand.NewPCG(17, 42))
	values := []Cell{Empty, SideA, SideB}
	for _, size := range []int{4, 5} {
		b, _ := New(size)
		for iter := 0; iter < 20000; iter++ {
			for i := 0; i < size*size; i++ {
				b.Set(i, values[rng.IntN(3)])
			}
			for _, side := range []Cell{SideA, SideB} {
				if Connects(b, side) != bruteForceConnects(b, side) {
					t.Fatalf("mismatch for side %v on\n%v", side, b.ToDisplayText())
				}
			}
		}
	}
}

func TestConnectsHexAdjacency(t *testing.T) {
	is := is.New(t)
	// (0,1) and (1,0) touch through the (x+1, y-1) neighbour.
	b, err := FromRows("+X", "X+")
	is.NoErr(err)
	is.True(Connects(b, SideA))
	is.True(!Connects(b, SideB))

	// (0,0) and (1,1) do not touch on a hex grid.
	b, err = FromRows("X+", "+X")
	is.NoErr(err)
	is.True(!Connects(b, SideA))

	b, err = FromRows("O+", "O+")
	is.NoErr(err)
	is.True(Connects(b, SideB))
	is.Equal(Winner(b), SideB)
}

func TestConnectsInvalidInput(t *testing.T) {
	is := is.New(t)
	is.True(!Connects(nil, SideA))
	b, _ := New(3)
	is.True(!Connects(b, Empty))
	is.True(!Connects(&Board{}, SideB))
	is.Equal(Winner(b), Empty)
}

func TestAlreadyConnectedBeforeLastMove(t *testing.T) {
	is := is.New(t)
	b, err := DecidedBeforeFull.Board()
	is.NoErr(err)
	is.Equal(b.FirstFree(), 5)
	// The connection along row 1 exists before the last empty cell is filled.
	is.True(Connects(b, SideA))
	is.Equal(Winner(b), SideA)
}

func TestSamplePositions(t *testing.T) {
	is := is.New(t)
	b, err := ChainDiagonal.Board()
	is.NoErr(err)
	is.Equal(b.Size(), 4)
	is.True(Connects(b, SideA))

	b, err = BrokenDiagonal.Board()
	is.NoErr(err)
	is.True(!Connects(b, SideA))
	is.Equal(len(b.Empties(nil)), 12)

	b, err = DoubleThreat.Board()
	is.NoErr(err)
	is.Equal(Winner(b), Empty)
	for _, side := range []Cell{SideA, SideB} {
		c := b.Copy()
		is.NoErr(c.Place(4, side))
		is.Equal(Winner(c), side)
	}

	b, err = LastCell.Board()
	is.NoErr(err)
	is.Equal(b.Empties(nil), []int{8})
}

func TestPlace(t *testing.T) {
	is := is.New(t)
	b, err := New(7)
	is.NoErr(err)
	is.NoErr(b.Place(3, SideA))
	is.Equal(b.At(3), SideA)

	err = b.Place(3, SideB)
	is.True(err != nil)
	is.Equal(b.At(3), SideA) // occupied cells are never overwritten

	is.True(b.Place(-1, SideA) != nil)
	is.True(b.Place(49, SideA) != nil)
	is.True(b.Place(4, Empty) != nil)
}

func TestNewRejectsBadSizes(t *testing.T) {
	is := is.New(t)
	for _, size := range []int{-1, 0, 1, MaxSide + 1} {
		_, err := New(size)
		is.True(err != nil)
	}
	_, err := FromCells(3, []byte("XXO"))
	is.True(err != nil)
	_, err = FromCells(2, []byte("XO+Z"))
	is.True(err != nil)
}

func TestEmptiesAndCopy(t *testing.T) {
	is := is.New(t)
	b, err := FromRows("X+", "+O")
	is.NoErr(err)
	is.Equal(b.Empties(nil), []int{1, 2})

	c := b.Copy()
	c.Set(1, SideB)
	is.Equal(b.At(1), Empty)
	is.Equal(b.Cells(), []byte("X++O"))
}
