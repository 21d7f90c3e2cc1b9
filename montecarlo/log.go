package montecarlo

import (
	"io"

	"gopkg.in/yaml.v3"
)

// LogRound is a record of one move decision, meant for serializing to a
// log file for debugging and tuning.
type LogRound struct {
	Round     string    `yaml:"round"`
	Side      string    `yaml:"side"`
	Size      int       `yaml:"size"`
	Budget    int       `yaml:"budget"`
	Shares    []int     `yaml:"shares,omitempty,flow"`
	Fallback  string    `yaml:"fallback,omitempty"`
	ElapsedMs int64     `yaml:"elapsed_ms"`
	Playouts  int64     `yaml:"playouts"`
	Top       []LogMove `yaml:"top"`
}

// LogMove is a single ranked candidate in a LogRound.
type LogMove struct {
	Move     string  `yaml:"move"`
	Score    int64   `yaml:"score"`
	Playouts int64   `yaml:"playouts"`
	WinProb  float64 `yaml:"win"`
}

// NewLogMoves keeps the best n moves of a ranking.
func NewLogMoves(ranked []RankedMove, n int) []LogMove {
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]LogMove, n)
	for i := range out {
		out[i] = LogMove{
			Move:     ranked[i].Coord,
			Score:    ranked[i].Score,
			Playouts: ranked[i].Playouts,
			WinProb:  ranked[i].WinProb,
		}
	}
	return out
}

// WriteLogRound appends r to w as its own YAML document.
func WriteLogRound(w io.Writer, r LogRound) error {
	out, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, "---\n"); err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
