package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/hexsim/hexsim/board"
	"github.com/hexsim/hexsim/montecarlo"
	"github.com/hexsim/hexsim/wire"
)

const envTestWorker = "HEXSIM_TEST_WORKER"

// TestMain lets the test binary double as a worker process.
func TestMain(m *testing.M) {
	if os.Getenv(envTestWorker) == "1" {
		if err := Main(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func seeded(id int) *montecarlo.Engine {
	return montecarlo.NewEngine(montecarlo.NewSeededRand(uint64(100 + id)))
}

func TestServe(t *testing.T) {
	is := is.New(t)
	b, _ := board.New(4)
	is.NoErr(b.Place(5, board.SideA))

	var in bytes.Buffer
	is.NoErr(wire.WriteRequest(&in, wire.EvaluateRequest(b, board.SideB, 400)))
	bad := wire.EvaluateRequest(b, board.SideB, 0)
	is.NoErr(wire.WriteRequest(&in, bad))
	is.NoErr(wire.WriteRequest(&in, &wire.Request{Command: 7}))
	is.NoErr(wire.WriteRequest(&in, wire.EvaluateRequest(b, board.SideA, 100)))
	is.NoErr(wire.WriteRequest(&in, wire.StopRequest()))
	// Never read: the loop must return at stop.
	is.NoErr(wire.WriteRequest(&in, wire.EvaluateRequest(b, board.SideA, 100)))

	var out bytes.Buffer
	is.NoErr(Serve(context.Background(), &in, &out, seeded(0)))

	// One reply per valid evaluate request, nothing for the others.
	for range 2 {
		resp, err := wire.ReadResponse(&out)
		is.NoErr(err)
		st, err := resp.Stats()
		is.NoErr(err)
		is.Equal(st.Size, 4)
		is.Equal(st.Scores[5], int64(montecarlo.Sentinel))
		is.True(st.TotalPlayouts() > 0)
	}
	_, err := wire.ReadResponse(&out)
	is.True(errors.Is(err, io.EOF))
}

func TestServeChannelFailures(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	err := Serve(ctx, &bytes.Buffer{}, io.Discard, seeded(0))
	is.True(errors.Is(err, io.EOF))

	b, _ := board.New(3)
	var in bytes.Buffer
	is.NoErr(wire.WriteRequest(&in, wire.EvaluateRequest(b, board.SideB, 50)))
	err = Serve(ctx, &in, failingWriter{}, seeded(0))
	is.True(err != nil)

	var corrupt bytes.Buffer
	is.NoErr(wire.WriteRequest(&corrupt, wire.StopRequest()))
	raw := corrupt.Bytes()
	raw[len(raw)-1] ^= 1
	err = Serve(ctx, bytes.NewReader(raw), io.Discard, seeded(0))
	is.True(errors.Is(err, wire.ErrChecksum))
}

func evaluateAll(t *testing.T, p *Pool, b *board.Board) {
	is := is.New(t)
	for _, c := range p.Conns() {
		is.NoErr(c.Send(wire.EvaluateRequest(b, board.SideB, 200)))
	}
	for _, c := range p.Conns() {
		resp, err := c.Recv()
		is.NoErr(err)
		st, err := resp.Stats()
		is.NoErr(err)
		is.Equal(st.Size, b.Size())
		is.Equal(st.Scores.Candidates(), b.NumCells()-1)
	}
}

func TestLocalPool(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	p, err := NewPool(ctx, &LocalSpawner{NewEngine: seeded}, 3)
	is.NoErr(err)
	is.Equal(p.Size(), 3)

	b, _ := board.New(5)
	is.NoErr(b.Place(0, board.SideA))
	evaluateAll(t, p, b)
	evaluateAll(t, p, b)

	is.NoErr(p.Close(ctx))
	is.Equal(p.Size(), 0)
	is.NoErr(p.Close(ctx))
}

func TestPoolClampsSize(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	for _, tc := range []struct{ ask, want int }{{0, 1}, {-4, 1}, {5, 5}, {100, MaxWorkers}} {
		p, err := NewPool(ctx, &LocalSpawner{NewEngine: seeded}, tc.ask)
		is.NoErr(err)
		is.Equal(p.Size(), tc.want)
		is.NoErr(p.Close(ctx))
	}
}

// countingSpawner fails for one id and counts the workers it started and
// the ones that were reaped.
type countingSpawner struct {
	inner   Spawner
	failID  int
	spawned atomic.Int32
	reaped  atomic.Int32
}

func (s *countingSpawner) Spawn(ctx context.Context, id int) (*Conn, error) {
	if id == s.failID {
		return nil, errors.New("no more processes")
	}
	c, err := s.inner.Spawn(ctx, id)
	if err != nil {
		return nil, err
	}
	s.spawned.Add(1)
	return NewConn(id, c.req, c.resp, func() error {
		defer s.reaped.Add(1)
		return c.Wait()
	}), nil
}

func TestPoolSpawnFailureReapsStarted(t *testing.T) {
	is := is.New(t)
	sp := &countingSpawner{inner: &LocalSpawner{NewEngine: seeded}, failID: 2}
	p, err := NewPool(context.Background(), sp, 4)
	is.True(err != nil)
	is.Equal(p.Size(), 0)
	is.Equal(sp.reaped.Load(), sp.spawned.Load())
}

func TestPoolCloseWithDeadWorker(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	p, err := NewPool(ctx, &LocalSpawner{NewEngine: seeded}, 2)
	is.NoErr(err)

	// Kill worker 0 by closing its request channel early.
	c := p.Conns()[0]
	is.NoErr(c.req.Close())
	werr := c.Wait()
	is.True(errors.Is(werr, io.EOF))

	// Close still reaps both and reports the abnormal exit.
	err = p.Close(ctx)
	is.True(err != nil)
	is.Equal(p.Size(), 0)
}

func TestProcessPool(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns worker processes")
	}
	is := is.New(t)
	ctx := context.Background()
	sp := &ProcessSpawner{Env: []string{envTestWorker + "=1", EnvWorkerSeed + "=9"}}
	p, err := NewPool(ctx, sp, 2)
	is.NoErr(err)

	b, _ := board.New(5)
	is.NoErr(b.Place(12, board.SideA))
	evaluateAll(t, p, b)

	is.NoErr(p.Close(ctx))
	is.Equal(p.Size(), 0)
}

func TestProcessSpawnerMissingBinary(t *testing.T) {
	is := is.New(t)
	sp := &ProcessSpawner{Path: "/nonexistent/hex", Attempts: 2, Delay: time.Millisecond}
	_, err := NewPool(context.Background(), sp, 1)
	is.True(err != nil)
}

func TestWorkerConfigSeeds(t *testing.T) {
	is := is.New(t)
	t.Setenv(EnvWorkerID, "3")
	t.Setenv(EnvWorkerSeed, "42")
	cfg := DefaultWorkerConfig()
	is.Equal(cfg.ID, 3)
	is.Equal(cfg.Seed, uint64(42))

	b, _ := board.New(4)
	a := cfg.NewEngine().Evaluate(context.Background(), b, board.SideA, 300)
	c := cfg.NewEngine().Evaluate(context.Background(), b, board.SideA, 300)
	is.Equal(a.Scores, c.Scores)

	t.Setenv(EnvWorkerSeed, "not a number")
	is.Equal(DefaultWorkerConfig().Seed, uint64(0))
}
