// Package wire defines the messages exchanged between the orchestrator and
// its workers, and how they are framed on a byte stream.
//
// A message is encoded as protobuf wire fields, so either end can skip
// fields it does not know about. Each payload travels in a frame:
//
//	uint32 big-endian payload length | payload | uint64 big-endian xxhash64(payload)
package wire

import (
	"errors"
	"fmt"

	"github.com/hexsim/hexsim/board"
	"github.com/hexsim/hexsim/montecarlo"
)

// Version is the only message version this package reads or writes.
const Version = 1

// MaxFrameSize bounds a payload. The largest legal message is a response
// for a full 26x26 board with every score at its widest varint encoding.
const MaxFrameSize = 1 << 16

var (
	ErrVersion       = errors.New("unsupported message version")
	ErrChecksum      = errors.New("frame checksum mismatch")
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	ErrMalformed     = errors.New("malformed message")
	ErrInvalidParams = errors.New("invalid request parameters")
)

type Command uint8

const (
	CmdStop     Command = 0
	CmdEvaluate Command = 1
)

func (c Command) String() string {
	switch c {
	case CmdStop:
		return "stop"
	case CmdEvaluate:
		return "evaluate"
	}
	return fmt.Sprintf("command(%d)", uint8(c))
}

// Request asks a worker to evaluate a position, or to stop.
type Request struct {
	Command Command
	Size    int
	Budget  int
	Side    board.Cell
	// Board holds Size*Size cell bytes in row-major order.
	Board []byte
}

// StopRequest tells a worker to exit its loop.
func StopRequest() *Request {
	return &Request{Command: CmdStop}
}

// EvaluateRequest snapshots b into a request.
func EvaluateRequest(b *board.Board, side board.Cell, budget int) *Request {
	return &Request{
		Command: CmdEvaluate,
		Size:    b.Size(),
		Budget:  budget,
		Side:    side,
		Board:   b.Cells(),
	}
}

// Validate checks an evaluate request before any work is done for it.
func (r *Request) Validate() error {
	switch {
	case r.Size <= 0 || r.Size > board.MaxSide:
		return fmt.Errorf("%w: board size %d", ErrInvalidParams, r.Size)
	case r.Budget <= 0:
		return fmt.Errorf("%w: budget %d", ErrInvalidParams, r.Budget)
	case !r.Side.IsSide():
		return fmt.Errorf("%w: side %q", ErrInvalidParams, byte(r.Side))
	case len(r.Board) != r.Size*r.Size:
		return fmt.Errorf("%w: %d cells for size %d", ErrInvalidParams, len(r.Board), r.Size)
	}
	return nil
}

// Position rebuilds the board carried by the request.
func (r *Request) Position() (*board.Board, error) {
	return board.FromCells(r.Size, r.Board)
}

// Response carries a worker's partial result back.
type Response struct {
	Command  Command
	Size     int
	Scores   []int64
	Playouts []int64
}

// NewResponse wraps an evaluation result.
func NewResponse(st *montecarlo.Stats) *Response {
	return &Response{
		Command:  CmdEvaluate,
		Size:     st.Size,
		Scores:   st.Scores,
		Playouts: st.Playouts,
	}
}

// Stats converts the response back into an evaluation result. It fails if
// the vectors do not describe a Size*Size board.
func (r *Response) Stats() (*montecarlo.Stats, error) {
	n := r.Size * r.Size
	if r.Size <= 0 || r.Size > board.MaxSide || len(r.Scores) != n || len(r.Playouts) != n {
		return nil, fmt.Errorf("%w: size %d with %d scores and %d playout counts",
			ErrMalformed, r.Size, len(r.Scores), len(r.Playouts))
	}
	return &montecarlo.Stats{
		Size:     r.Size,
		Scores:   montecarlo.ScoreVector(r.Scores),
		Playouts: r.Playouts,
	}, nil
}
