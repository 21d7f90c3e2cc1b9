package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/hexsim/hexsim/board"
)

// Field numbers. Request and response share 1-3.
const (
	fieldVersion  protowire.Number = 1
	fieldCommand  protowire.Number = 2
	fieldSize     protowire.Number = 3
	fieldBudget   protowire.Number = 4
	fieldSide     protowire.Number = 5
	fieldBoard    protowire.Number = 6
	fieldScores   protowire.Number = 4
	fieldPlayouts protowire.Number = 5
)

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendHeader(b []byte, cmd Command, size int) []byte {
	b = appendVarintField(b, fieldVersion, Version)
	b = appendVarintField(b, fieldCommand, uint64(cmd))
	return appendVarintField(b, fieldSize, uint64(size))
}

// AppendMarshal appends the encoded request to b.
func (r *Request) AppendMarshal(b []byte) []byte {
	b = appendHeader(b, r.Command, r.Size)
	if r.Command == CmdStop {
		return b
	}
	b = appendVarintField(b, fieldBudget, protowire.EncodeZigZag(int64(r.Budget)))
	b = appendVarintField(b, fieldSide, uint64(r.Side))
	b = protowire.AppendTag(b, fieldBoard, protowire.BytesType)
	return protowire.AppendBytes(b, r.Board)
}

// AppendMarshal appends the encoded response to b.
func (r *Response) AppendMarshal(b []byte) []byte {
	b = appendHeader(b, r.Command, r.Size)

	var packed []byte
	for _, s := range r.Scores {
		packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(s))
	}
	b = protowire.AppendTag(b, fieldScores, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)

	packed = packed[:0]
	for _, p := range r.Playouts {
		packed = protowire.AppendVarint(packed, uint64(p))
	}
	b = protowire.AppendTag(b, fieldPlayouts, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

// fieldFunc handles one decoded field and returns the bytes consumed, or a
// negative protowire error code. It returns 0 for fields it does not know.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) int

// decodeFields walks every field of a message. Common header fields are
// decoded here; everything else goes to fn, and unknown fields are skipped.
func decodeFields(b []byte, cmd *Command, size *int, fn fieldFunc) error {
	var version uint64
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		var v uint64
		m := 0
		switch {
		case num == fieldVersion && typ == protowire.VarintType:
			version, m = protowire.ConsumeVarint(b)
		case num == fieldCommand && typ == protowire.VarintType:
			v, m = protowire.ConsumeVarint(b)
			*cmd = Command(v)
		case num == fieldSize && typ == protowire.VarintType:
			v, m = protowire.ConsumeVarint(b)
			// Range checks belong to Validate; only keep the value sane here.
			*size = int(min(v, math.MaxInt32))
		default:
			m = fn(num, typ, b)
			if m == 0 {
				m = protowire.ConsumeFieldValue(num, typ, b)
			}
		}
		if m < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	if version != Version {
		return fmt.Errorf("%w: %d", ErrVersion, version)
	}
	return nil
}

// Unmarshal decodes a request payload into r.
func (r *Request) Unmarshal(b []byte) error {
	*r = Request{}
	return decodeFields(b, &r.Command, &r.Size, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch {
		case num == fieldBudget && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Budget = int(protowire.DecodeZigZag(v))
			return n
		case num == fieldSide && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Side = board.Cell(v)
			return n
		case num == fieldBoard && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n >= 0 {
				r.Board = append([]byte(nil), v...)
			}
			return n
		}
		return 0
	})
}

// Unmarshal decodes a response payload into r.
func (r *Response) Unmarshal(b []byte) error {
	*r = Response{}
	var packedErr error
	err := decodeFields(b, &r.Command, &r.Size, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if typ != protowire.BytesType || (num != fieldScores && num != fieldPlayouts) {
			return 0
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n
		}
		vals, err := unpackVarints(v, num == fieldScores)
		if err != nil {
			packedErr = err
			return n
		}
		if num == fieldScores {
			r.Scores = vals
		} else {
			r.Playouts = vals
		}
		return n
	})
	if err != nil {
		return err
	}
	return packedErr
}

func unpackVarints(b []byte, zigzag bool) ([]int64, error) {
	out := make([]int64, 0, len(b))
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: packed value: %v", ErrMalformed, protowire.ParseError(n))
		}
		if zigzag {
			out = append(out, protowire.DecodeZigZag(v))
		} else {
			out = append(out, int64(v))
		}
		b = b[n:]
	}
	return out, nil
}
