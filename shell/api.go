package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"

	"github.com/hexsim/hexsim/montecarlo"
	"github.com/hexsim/hexsim/parallel"
)

const (
	defaultTopMoves   = 10
	rankingConfidence = 95
	histogramBins     = 10
	histogramWidth    = 40
)

func topOption(cmd *shellcmd) (int, error) {
	s, ok := cmd.options["top"]
	if !ok {
		if len(cmd.args) > 0 {
			s = cmd.args[0]
		} else {
			return defaultTopMoves, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("-top needs a positive number, not %q", s)
	}
	return n, nil
}

func roundSummary(st *montecarlo.Stats, round *parallel.Round) string {
	where := "in this process"
	if round.Workers > 0 {
		where = fmt.Sprintf("on %d workers", round.Workers)
	}
	s := fmt.Sprintf("%d playouts %s in %v", st.TotalPlayouts(), where, round.Elapsed.Round(time.Millisecond))
	if round.Fallback {
		s += fmt.Sprintf(" (recomputed locally: %v)", round.Cause)
	}
	return s
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	if len(cmd.args) == 0 {
		usage(&sb)
	} else {
		usageTopic(&sb, cmd.args[0])
	}
	return Msg(sb.String()), nil
}

// hint evaluates the position for the human without moving.
func (sc *ShellController) hint(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	top, err := topOption(cmd)
	if err != nil {
		return nil, err
	}
	sc.showMessage("Thinking...")
	st, round := sc.game.Evaluate(ctx, sc.game.Human())
	ranked := montecarlo.Rank(sc.game.Board(), st, rankingConfidence)
	if len(ranked) == 0 {
		return nil, errors.New("there are no moves left")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Suggested move for %s: %s\n", sc.game.Human(), ranked[0].Coord)
	sb.WriteString(montecarlo.RankingText(ranked, top))
	sb.WriteString(roundSummary(st, round))
	return Msg(sb.String()), nil
}

// ranking shows the computer's last evaluation.
func (sc *ShellController) ranking(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	top, err := topOption(cmd)
	if err != nil {
		return nil, err
	}
	st, round := sc.game.LastEvaluation()
	if st == nil {
		return nil, errors.New("the computer has not moved yet")
	}
	ranked := montecarlo.Rank(sc.game.Board(), st, rankingConfidence)
	var sb strings.Builder
	sb.WriteString(montecarlo.RankingText(ranked, top))
	sb.WriteString(roundSummary(st, round))
	sb.WriteString("\n")
	sb.WriteString(winHistogram(ranked))
	return Msg(sb.String()), nil
}

// winHistogram plots how the win probabilities of all candidates spread.
func winHistogram(ranked []montecarlo.RankedMove) string {
	probs := lo.Map(ranked, func(m montecarlo.RankedMove, _ int) float64 {
		return 100 * m.WinProb
	})
	if len(lo.Uniq(probs)) < 2 {
		return "All candidates share the same win probability.\n"
	}
	var sb strings.Builder
	sb.WriteString("Win% of all candidates:\n")
	h := histogram.Hist(histogramBins, probs)
	if err := histogram.Fprint(&sb, h, histogram.Linear(histogramWidth)); err != nil {
		return "Could not draw the histogram: " + err.Error() + "\n"
	}
	return sb.String()
}

func (sc *ShellController) info(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Board: %dx%d, turn %d\n", sc.game.Board().Size(), sc.game.Board().Size(), sc.game.Turn())
	fmt.Fprintf(&sb, "Simulations per move: %d\n", sc.game.Budget())
	if sc.eval != nil {
		timing := sc.eval.Timing()
		fmt.Fprintf(&sb, "Workers: %d\n", sc.eval.Workers())
		if timing.Iterations() > 0 {
			fmt.Fprintf(&sb, "Rounds: %d, %.3fs ± %.3fs each\n", timing.Iterations(), timing.Mean(), timing.Stdev())
		}
	}
	return Msg(strings.TrimSuffix(sb.String(), "\n")), nil
}
