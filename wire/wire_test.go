package wire

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/hexsim/hexsim/board"
	"github.com/hexsim/hexsim/montecarlo"
)

func TestRequestRoundTrip(t *testing.T) {
	b, err := board.FromRows(
		"X + +",
		"+ O +",
		"+ + +",
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteRequest(&buf, EvaluateRequest(b, board.SideB, 1234)))
	require.NoError(t, WriteRequest(&buf, StopRequest()))

	req, err := ReadRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, CmdEvaluate, req.Command)
	assert.Equal(t, 3, req.Size)
	assert.Equal(t, 1234, req.Budget)
	assert.Equal(t, board.SideB, req.Side)
	assert.NoError(t, req.Validate())
	pos, err := req.Position()
	require.NoError(t, err)
	assert.Equal(t, b.Cells(), pos.Cells())

	req, err = ReadRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, CmdStop, req.Command)

	_, err = ReadRequest(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestResponseRoundTripKeepsSentinel(t *testing.T) {
	b, _ := board.FromRows("X+", "++")
	st := montecarlo.NewStats(b)
	st.Scores[1], st.Playouts[1] = -17, 40
	st.Scores[3], st.Playouts[3] = 22, 40

	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, NewResponse(st)))
	resp, err := ReadResponse(&buf)
	require.NoError(t, err)

	got, err := resp.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, got.Size)
	assert.Equal(t, montecarlo.ScoreVector{montecarlo.Sentinel, -17, 0, 22}, got.Scores)
	assert.Equal(t, []int64{0, 40, 0, 40}, got.Playouts)
}

func TestLargestResponseFits(t *testing.T) {
	b, _ := board.New(board.MaxSide)
	st := montecarlo.NewStats(b)
	for i := range st.Scores {
		st.Scores[i] = montecarlo.Sentinel
		st.Playouts[i] = 1 << 62
	}
	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, NewResponse(st)))
	_, err := ReadResponse(&buf)
	require.NoError(t, err)
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	payload := StopRequest().AppendMarshal(nil)
	payload = protowire.AppendTag(payload, 99, protowire.BytesType)
	payload = protowire.AppendBytes(payload, []byte("from a newer peer"))
	payload = protowire.AppendTag(payload, 98, protowire.VarintType)
	payload = protowire.AppendVarint(payload, 7)

	var req Request
	require.NoError(t, req.Unmarshal(payload))
	assert.Equal(t, CmdStop, req.Command)
}

func TestVersionRejected(t *testing.T) {
	payload := protowire.AppendTag(nil, fieldVersion, protowire.VarintType)
	payload = protowire.AppendVarint(payload, 2)
	var req Request
	assert.ErrorIs(t, req.Unmarshal(payload), ErrVersion)

	// No version field at all.
	var resp Response
	assert.ErrorIs(t, resp.Unmarshal(nil), ErrVersion)
}

func TestFrameErrors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRequest(&buf, StopRequest()))
	frame := buf.Bytes()

	corrupt := append([]byte(nil), frame...)
	corrupt[lengthSize] ^= 0xff
	_, err := ReadFrame(bytes.NewReader(corrupt))
	assert.ErrorIs(t, err, ErrChecksum)

	_, err = ReadFrame(bytes.NewReader(frame[:len(frame)-1]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = ReadFrame(bytes.NewReader(frame[:2]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	huge := []byte{0xff, 0xff, 0xff, 0xff}
	_, err = ReadFrame(bytes.NewReader(huge))
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	assert.ErrorIs(t, WriteFrame(io.Discard, make([]byte, MaxFrameSize+1)), ErrFrameTooLarge)
}

func TestMalformedPayload(t *testing.T) {
	payload := StopRequest().AppendMarshal(nil)
	// A bytes field whose length runs past the end of the message.
	payload = protowire.AppendTag(payload, fieldBoard, protowire.BytesType)
	payload = protowire.AppendVarint(payload, 50)
	var req Request
	assert.ErrorIs(t, req.Unmarshal(payload), ErrMalformed)
}

func TestValidate(t *testing.T) {
	cells := func(n int) []byte { return bytes.Repeat([]byte{byte(board.Empty)}, n) }
	cases := []struct {
		name string
		req  Request
		ok   bool
	}{
		{"ok", Request{CmdEvaluate, 3, 10, board.SideA, cells(9)}, true},
		{"zero size", Request{CmdEvaluate, 0, 10, board.SideA, nil}, false},
		{"too big", Request{CmdEvaluate, board.MaxSide + 1, 10, board.SideA, cells(27 * 27)}, false},
		{"zero budget", Request{CmdEvaluate, 3, 0, board.SideA, cells(9)}, false},
		{"negative budget", Request{CmdEvaluate, 3, -5, board.SideA, cells(9)}, false},
		{"bad side", Request{CmdEvaluate, 3, 10, board.Empty, cells(9)}, false},
		{"short board", Request{CmdEvaluate, 3, 10, board.SideB, cells(8)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrInvalidParams))
			}
		})
	}
}

func TestResponseShapeChecked(t *testing.T) {
	resp := &Response{Command: CmdEvaluate, Size: 3, Scores: make([]int64, 9), Playouts: make([]int64, 4)}
	_, err := resp.Stats()
	assert.ErrorIs(t, err, ErrMalformed)
}
