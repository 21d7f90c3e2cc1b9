package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cespare/xxhash"
)

const (
	lengthSize   = 4
	checksumSize = 8
)

// WriteFrame writes payload as one frame with a single Write call, so a
// frame is never interleaved with another writer's bytes.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	buf := make([]byte, lengthSize, lengthSize+len(payload)+checksumSize)
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)
	buf = binary.BigEndian.AppendUint64(buf, xxhash.Sum64(payload))
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one frame and returns its verified payload. A stream that
// ends cleanly before the frame starts gives io.EOF; one that ends inside a
// frame gives io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [lengthSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	buf := make([]byte, int(n)+checksumSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	payload := buf[:n]
	if sum := binary.BigEndian.Uint64(buf[n:]); sum != xxhash.Sum64(payload) {
		return nil, ErrChecksum
	}
	return payload, nil
}

func WriteRequest(w io.Writer, req *Request) error {
	return WriteFrame(w, req.AppendMarshal(nil))
}

func ReadRequest(r io.Reader) (*Request, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	req := &Request{}
	if err := req.Unmarshal(payload); err != nil {
		return nil, err
	}
	return req, nil
}

func WriteResponse(w io.Writer, resp *Response) error {
	return WriteFrame(w, resp.AppendMarshal(nil))
}

func ReadResponse(r io.Reader) (*Response, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	resp := &Response{}
	if err := resp.Unmarshal(payload); err != nil {
		return nil, err
	}
	return resp, nil
}
