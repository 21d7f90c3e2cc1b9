// Package worker runs statistics engines behind a message channel and keeps
// a pool of them for the parallel orchestrator.
package worker

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/hexsim/hexsim/montecarlo"
	"github.com/hexsim/hexsim/wire"
)

// Serve is the worker loop. It reads requests from r and answers each valid
// evaluate request with one response on w. It returns nil after a stop
// request and an error when the channel fails; invalid requests are
// skipped without a reply.
func Serve(ctx context.Context, r io.Reader, w io.Writer, engine *montecarlo.Engine) error {
	logger := zerolog.Ctx(ctx)
	for {
		req, err := wire.ReadRequest(r)
		if err != nil {
			return fmt.Errorf("reading request: %w", err)
		}
		switch req.Command {
		case wire.CmdStop:
			logger.Debug().Uint64("playouts", engine.PlayoutCount()).Msg("worker-stopping")
			return nil

		case wire.CmdEvaluate:
			if err := req.Validate(); err != nil {
				logger.Warn().Err(err).Msg("ignoring-request")
				continue
			}
			b, err := req.Position()
			if err != nil {
				logger.Warn().Err(err).Msg("ignoring-request")
				continue
			}
			st := engine.Evaluate(ctx, b, req.Side, req.Budget)
			if err := wire.WriteResponse(w, wire.NewResponse(st)); err != nil {
				return fmt.Errorf("writing response: %w", err)
			}

		default:
			logger.Warn().Stringer("command", req.Command).Msg("ignoring-unknown-command")
		}
	}
}

// Main runs the worker loop of a worker process on its standard streams.
// Standard output carries frames only; logs go to standard error.
func Main(ctx context.Context) error {
	cfg := DefaultWorkerConfig()
	logger := zerolog.Ctx(ctx).With().Int("worker", cfg.ID).Int("pid", os.Getpid()).Logger()
	ctx = logger.WithContext(ctx)

	logger.Debug().Bool("seeded", cfg.Seed != 0).Msg("worker-started")
	return Serve(ctx, os.Stdin, os.Stdout, cfg.NewEngine())
}
