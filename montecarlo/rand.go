package montecarlo

import (
	"encoding/binary"
	"os"
	"time"

	"lukechampine.com/frand"
)

// Rand is the uniform random source used by playouts. Implementations are
// not expected to be safe for concurrent use.
type Rand interface {
	// Intn returns a uniform value in [0, n). n is always positive.
	Intn(n int) int
}

const (
	rngBufSize = 1024
	rngRounds  = 12
)

// NewRand returns a generator seeded from system entropy mixed with the
// wall clock and the process id, so workers started in the same instant
// still get independent streams.
func NewRand() Rand {
	seed := frand.Bytes(32)
	mix := binary.LittleEndian.Uint64(seed[:8]) ^ uint64(time.Now().UnixNano())
	binary.LittleEndian.PutUint64(seed[:8], mix)
	mix = binary.LittleEndian.Uint64(seed[8:16]) ^ uint64(os.Getpid())
	binary.LittleEndian.PutUint64(seed[8:16], mix)
	return frand.NewCustom(seed, rngBufSize, rngRounds)
}

// NewSeededRand returns a deterministic generator; the same seed always
// yields the same stream.
func NewSeededRand(seed uint64) Rand {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	return frand.NewCustom(key[:], rngBufSize, rngRounds)
}
