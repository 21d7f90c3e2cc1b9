package worker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/hexsim/hexsim/wire"
)

// MaxWorkers caps the size of a pool.
const MaxWorkers = 32

// ClampWorkers forces n into [1, MaxWorkers].
func ClampWorkers(n int) int {
	return max(1, min(n, MaxWorkers))
}

// Pool is a fixed set of running workers. It is owned by one orchestrator
// and is not safe for concurrent use.
type Pool struct {
	conns []*Conn
}

// NewPool starts n workers, clamped to [1, MaxWorkers]. If any worker fails
// to start, the ones that did start are shut down and an error is returned.
func NewPool(ctx context.Context, sp Spawner, n int) (*Pool, error) {
	n = ClampWorkers(n)
	conns := make([]*Conn, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := range conns {
		g.Go(func() error {
			c, err := sp.Spawn(gctx, i)
			if err != nil {
				return fmt.Errorf("spawning worker %d: %w", i, err)
			}
			conns[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p := &Pool{conns: lo.Compact(conns)}
		if cerr := p.Close(ctx); cerr != nil {
			zerolog.Ctx(ctx).Debug().Err(cerr).Msg("reaping-partial-pool")
		}
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Int("workers", n).Msg("pool-started")
	return &Pool{conns: conns}, nil
}

// Size is the number of live workers. A nil or closed pool has none.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.conns)
}

// Conns returns the workers in dispatch order.
func (p *Pool) Conns() []*Conn {
	if p == nil {
		return nil
	}
	return p.conns
}

// Close shuts every worker down: it sends stop to each one, ignoring
// failures, closes every channel, then waits for all of them to exit. The
// pool is empty afterwards. The returned error collects abnormal exits.
func (p *Pool) Close(ctx context.Context) error {
	if p.Size() == 0 {
		return nil
	}
	logger := zerolog.Ctx(ctx)
	stop := wire.StopRequest()
	for _, c := range p.conns {
		if err := c.Send(stop); err != nil {
			logger.Debug().Err(err).Int("worker", c.ID()).Msg("stop-not-delivered")
		}
	}
	for _, c := range p.conns {
		if err := c.Close(); err != nil {
			logger.Debug().Err(err).Int("worker", c.ID()).Msg("close-failed")
		}
	}
	var g errgroup.Group
	for _, c := range p.conns {
		g.Go(c.Wait)
	}
	err := g.Wait()
	logger.Debug().Int("workers", len(p.conns)).Err(err).Msg("pool-closed")
	p.conns = nil
	return err
}
