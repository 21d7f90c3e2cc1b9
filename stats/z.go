package stats

import "gonum.org/v1/gonum/stat/distuv"

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// Common two-tailed z-values.
var (
	Z95 = ZVal(95)
	Z99 = ZVal(99)
)

// ZVal returns the two-tailed z-value for a confidence level given in
// percent (0 to 100).
func ZVal(confidence float64) float64 {
	area := (1 + (confidence / 100)) / 2
	return stdNormal.Quantile(area)
}
