package montecarlo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/hexsim/hexsim/board"
)

// RankedMove is one legal cell with its simulation results.
type RankedMove struct {
	Index    int
	Coord    string
	Score    int64
	Playouts int64
	WinProb  float64
	// Low and High bound WinProb at the ranking's confidence level.
	Low  float64
	High float64
}

// Rank orders the legal cells of st best first, using the same ordering as
// SelectMove (score, then lowest index). confidence is a percentage used
// for the win-probability interval.
func Rank(b *board.Board, st *Stats, confidence float64) []RankedMove {
	legal := lo.Filter(lo.Range(len(st.Scores)), func(i int, _ int) bool {
		return st.Scores.Legal(i)
	})
	moves := lo.Map(legal, func(i int, _ int) RankedMove {
		wl := st.WinLoss(i)
		low, high := wl.Interval(confidence)
		return RankedMove{
			Index:    i,
			Coord:    b.CoordString(i),
			Score:    wl.Score,
			Playouts: wl.Playouts,
			WinProb:  wl.WinProb(),
			Low:      low,
			High:     high,
		}
	})
	sort.SliceStable(moves, func(i, j int) bool {
		return moves[i].Score > moves[j].Score
	})
	return moves
}

func rankingHeader() string {
	return "      Move   Score  Playouts  Win%      Interval\n"
}

func rankingRow(idx int, m RankedMove) string {
	return fmt.Sprintf("%4d: %-6s%7d%10d  %6.2f  [%6.2f, %6.2f]", idx+1, m.Coord, m.Score,
		m.Playouts, 100*m.WinProb, 100*m.Low, 100*m.High)
}

// RankingText formats at most n ranked moves as a table.
func RankingText(moves []RankedMove, n int) string {
	var sb strings.Builder
	sb.WriteString(rankingHeader())
	for i, m := range moves {
		if i >= n {
			break
		}
		sb.WriteString(rankingRow(i, m))
		sb.WriteString("\n")
	}
	return sb.String()
}
