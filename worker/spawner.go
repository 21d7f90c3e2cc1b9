package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/hexsim/hexsim/montecarlo"
	"github.com/hexsim/hexsim/wire"
)

// WorkerArg is the argument that puts the hex binary in worker mode.
const WorkerArg = "worker"

// Conn is the orchestrator's end of one worker: a request channel, a
// response channel and a handle to wait for the worker to exit.
type Conn struct {
	id   int
	req  io.WriteCloser
	resp io.ReadCloser
	wait func() error

	closeOnce sync.Once
	closeErr  error
}

// NewConn assembles a Conn. wait must block until the worker has exited
// and may be called more than once.
func NewConn(id int, req io.WriteCloser, resp io.ReadCloser, wait func() error) *Conn {
	return &Conn{id: id, req: req, resp: resp, wait: wait}
}

func (c *Conn) ID() int {
	return c.id
}

// Send writes one whole request frame.
func (c *Conn) Send(req *wire.Request) error {
	return wire.WriteRequest(c.req, req)
}

// Recv reads one whole response frame.
func (c *Conn) Recv() (*wire.Response, error) {
	return wire.ReadResponse(c.resp)
}

// Close closes both channel ends. The worker sees end of stream on its
// request channel.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = errors.Join(c.req.Close(), c.resp.Close())
	})
	return c.closeErr
}

// Wait blocks until the worker has exited and returns its exit error.
func (c *Conn) Wait() error {
	return c.wait()
}

// A Spawner starts workers.
type Spawner interface {
	Spawn(ctx context.Context, id int) (*Conn, error)
}

// ProcessSpawner runs each worker as a separate OS process talking over its
// standard input and output.
type ProcessSpawner struct {
	// Path is the worker binary; empty means the running executable.
	Path string
	// Args defaults to just WorkerArg.
	Args []string
	// Env is added to the parent's environment.
	Env []string
	// Stderr receives the worker's logs; nil means the parent's stderr.
	Stderr io.Writer
	// Attempts and Delay control how process start is retried.
	Attempts uint
	Delay    time.Duration
}

func (s *ProcessSpawner) Spawn(ctx context.Context, id int) (*Conn, error) {
	logger := zerolog.Ctx(ctx)
	path := s.Path
	if path == "" {
		ex, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("locating worker binary: %w", err)
		}
		path = ex
	}
	args := s.Args
	if args == nil {
		args = []string{WorkerArg}
	}
	stderr := s.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	attempts := s.Attempts
	if attempts == 0 {
		attempts = 3
	}
	delay := s.Delay
	if delay == 0 {
		delay = 50 * time.Millisecond
	}

	var conn *Conn
	err := retry.Do(
		func() error {
			cmd := exec.Command(path, args...)
			cmd.Env = append(os.Environ(), s.Env...)
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%d", EnvWorkerID, id))
			cmd.Stderr = stderr
			stdin, err := cmd.StdinPipe()
			if err != nil {
				return err
			}
			stdout, err := cmd.StdoutPipe()
			if err != nil {
				stdin.Close()
				return err
			}
			if err := cmd.Start(); err != nil {
				return err
			}
			var once sync.Once
			var waitErr error
			conn = NewConn(id, stdin, stdout, func() error {
				once.Do(func() { waitErr = cmd.Wait() })
				return waitErr
			})
			logger.Debug().Int("worker", id).Int("pid", cmd.Process.Pid).Msg("worker-process-started")
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			logger.Warn().Err(err).Uint("n", n).Int("worker", id).Msg("worker-start-failed-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("starting worker process: %w", err)
	}
	return conn, nil
}

// LocalSpawner runs each worker as a goroutine in this process. The worker
// shares nothing with the orchestrator; it only sees the frames written to
// its pipes.
type LocalSpawner struct {
	// NewEngine builds the engine for worker id; nil means an
	// entropy-seeded engine.
	NewEngine func(id int) *montecarlo.Engine
}

func (s *LocalSpawner) Spawn(ctx context.Context, id int) (*Conn, error) {
	reqR, reqW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating request pipe: %w", err)
	}
	respR, respW, err := os.Pipe()
	if err != nil {
		reqR.Close()
		reqW.Close()
		return nil, fmt.Errorf("creating response pipe: %w", err)
	}

	var engine *montecarlo.Engine
	if s.NewEngine != nil {
		engine = s.NewEngine(id)
	} else {
		engine = montecarlo.NewEngine(nil)
	}

	logger := zerolog.Ctx(ctx).With().Int("worker", id).Logger()
	wctx := logger.WithContext(ctx)
	done := make(chan error, 1)
	go func() {
		err := Serve(wctx, reqR, respW, engine)
		reqR.Close()
		respW.Close()
		done <- err
	}()

	var once sync.Once
	var waitErr error
	return NewConn(id, reqW, respR, func() error {
		once.Do(func() { waitErr = <-done })
		return waitErr
	}), nil
}
