// Package parallel spreads one move evaluation over a worker pool and
// merges the partial results. Any channel failure abandons the round's
// partial results, shuts the pool down and recomputes the whole round in
// this process, so a caller always gets a complete score vector.
package parallel

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hexsim/hexsim/board"
	"github.com/hexsim/hexsim/montecarlo"
	"github.com/hexsim/hexsim/stats"
	"github.com/hexsim/hexsim/wire"
	"github.com/hexsim/hexsim/worker"
)

const (
	// logTopMoves is how many ranked moves a round log entry keeps.
	logTopMoves   = 5
	logConfidence = 99
)

// Round describes how one evaluation was carried out.
type Round struct {
	ID string
	// Workers is the number of workers the budget was split over; zero
	// when the round ran in this process from the start.
	Workers int
	Shares  []int
	// Fallback is set when the parallel attempt failed and the round was
	// recomputed locally; Cause says why.
	Fallback bool
	Cause    error
	Elapsed  time.Duration
}

// Evaluator is the parallel orchestrator. It owns its pool and a local
// engine for single-process rounds.
type Evaluator struct {
	pool     *worker.Pool
	engine   *montecarlo.Engine
	roundLog io.Writer
	timing   stats.Statistic
}

// NewEvaluator uses pool for parallel rounds; a nil pool means every round
// runs on engine. A nil engine gets an entropy-seeded one.
func NewEvaluator(pool *worker.Pool, engine *montecarlo.Engine) *Evaluator {
	if engine == nil {
		engine = montecarlo.NewEngine(nil)
	}
	return &Evaluator{pool: pool, engine: engine}
}

// SetRoundLog makes every round append a YAML record to w.
func (e *Evaluator) SetRoundLog(w io.Writer) {
	e.roundLog = w
}

// Workers is the number of live workers.
func (e *Evaluator) Workers() int {
	return e.pool.Size()
}

// Timing holds the wall-clock seconds of every round so far.
func (e *Evaluator) Timing() *stats.Statistic {
	return &e.timing
}

// Close shuts the pool down. Later rounds run in this process.
func (e *Evaluator) Close(ctx context.Context) error {
	return e.pool.Close(ctx)
}

// SplitBudget divides total over w workers: total/w each, with the first
// total%w getting one more, and never less than one.
func SplitBudget(total, w int) []int {
	if w <= 0 {
		return nil
	}
	shares := make([]int, w)
	for i := range shares {
		s := total / w
		if i < total%w {
			s++
		}
		shares[i] = max(s, 1)
	}
	return shares
}

// Evaluate scores every empty cell of b as side's next move. It never
// fails; a broken pool is shut down and the round recomputed locally.
func (e *Evaluator) Evaluate(ctx context.Context, b *board.Board, side board.Cell, budget int) (*montecarlo.Stats, *Round) {
	round := &Round{ID: uuid.New().String()}
	logger := zerolog.Ctx(ctx).With().Str("round", round.ID).Logger()
	ctx = logger.WithContext(ctx)
	tstart := time.Now()

	var st *montecarlo.Stats
	if e.pool.Size() == 0 || budget <= 0 || b.Size() <= 0 {
		st = e.engine.Evaluate(ctx, b, side, budget)
	} else {
		var err error
		st, err = e.evaluatePool(ctx, b, side, budget, round)
		if err != nil {
			round.Fallback = true
			round.Cause = err
			logger.Warn().Err(err).Msg("parallel-round-failed-recomputing-locally")
			if cerr := e.pool.Close(ctx); cerr != nil {
				logger.Debug().Err(cerr).Msg("pool-shutdown-errors")
			}
			st = e.engine.Evaluate(ctx, b, side, budget)
		}
	}

	round.Elapsed = time.Since(tstart)
	e.timing.Push(round.Elapsed.Seconds())
	logger.Debug().Int("workers", round.Workers).Int("budget", budget).
		Bool("fallback", round.Fallback).Int64("playouts", st.TotalPlayouts()).
		Dur("elapsed", round.Elapsed).Msg("round-done")

	if e.roundLog != nil {
		if err := e.writeRound(b, side, budget, st, round); err != nil {
			logger.Warn().Err(err).Msg("round-log-write-failed")
		}
	}
	return st, round
}

// evaluatePool sends one request per worker, then collects the responses
// in the same order and merges them. The first failure aborts the round.
func (e *Evaluator) evaluatePool(ctx context.Context, b *board.Board, side board.Cell, budget int, round *Round) (*montecarlo.Stats, error) {
	conns := e.pool.Conns()
	round.Workers = len(conns)
	round.Shares = SplitBudget(budget, len(conns))
	result := montecarlo.NewStats(b)

	for i, c := range conns {
		if err := c.Send(wire.EvaluateRequest(b, side, round.Shares[i])); err != nil {
			return nil, fmt.Errorf("dispatching to worker %d: %w", c.ID(), err)
		}
	}
	for _, c := range conns {
		resp, err := c.Recv()
		if err != nil {
			return nil, fmt.Errorf("collecting from worker %d: %w", c.ID(), err)
		}
		part, err := resp.Stats()
		if err != nil {
			return nil, fmt.Errorf("worker %d: %w", c.ID(), err)
		}
		if err := result.Merge(part); err != nil {
			return nil, fmt.Errorf("worker %d: %w", c.ID(), err)
		}
	}
	zerolog.Ctx(ctx).Debug().Ints("shares", round.Shares).Msg("round-merged")
	return result, nil
}

func (e *Evaluator) writeRound(b *board.Board, side board.Cell, budget int, st *montecarlo.Stats, round *Round) error {
	lr := montecarlo.LogRound{
		Round:     round.ID,
		Side:      side.String(),
		Size:      b.Size(),
		Budget:    budget,
		Shares:    round.Shares,
		ElapsedMs: round.Elapsed.Milliseconds(),
		Playouts:  st.TotalPlayouts(),
		Top:       montecarlo.NewLogMoves(montecarlo.Rank(b, st, logConfidence), logTopMoves),
	}
	if round.Cause != nil {
		lr.Fallback = round.Cause.Error()
	}
	return montecarlo.WriteLogRound(e.roundLog, lr)
}
