package stats

import "math"

// WinLoss summarises a run of playouts that each scored +1 (win) or -1
// (anything else). Score is the signed sum, Playouts the number of samples.
type WinLoss struct {
	Score    int64
	Playouts int64
}

// Wins recovers the number of +1 samples.
func (w WinLoss) Wins() int64 {
	if w.Playouts == 0 {
		return 0
	}
	return (w.Score + w.Playouts) / 2
}

// WinProb is the observed fraction of wins, 0 with no samples.
func (w WinLoss) WinProb() float64 {
	if w.Playouts == 0 {
		return 0
	}
	return float64(w.Wins()) / float64(w.Playouts)
}

// StandardError is the binomial standard error of WinProb.
func (w WinLoss) StandardError() float64 {
	if w.Playouts == 0 {
		return 0
	}
	p := w.WinProb()
	return math.Sqrt(p * (1 - p) / float64(w.Playouts))
}

// Interval returns a normal-approximation confidence interval around
// WinProb, clamped to [0, 1]. confidence is a percentage, e.g. 99.
func (w WinLoss) Interval(confidence float64) (float64, float64) {
	p := w.WinProb()
	e := ZVal(confidence) * w.StandardError()
	return math.Max(0, p-e), math.Min(1, p+e)
}

// Distinguishable reports whether two win probabilities differ by more
// than their combined standard error allows at the given confidence.
func Distinguishable(a, b WinLoss, confidence float64) bool {
	if a.Playouts == 0 || b.Playouts == 0 {
		return false
	}
	se := math.Sqrt(a.StandardError()*a.StandardError() + b.StandardError()*b.StandardError())
	if se == 0 {
		return a.WinProb() != b.WinProb()
	}
	return math.Abs(a.WinProb()-b.WinProb()) > ZVal(confidence)*se
}
