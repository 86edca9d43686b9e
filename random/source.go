package random

import (
	"encoding/binary"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jonboulle/clockwork"
)

// Source picks an index in [0, n). Salt parts let callers bind a draw to
// the state it decides (tier, instance, count and so on).
type Source interface {
	Intn(n int, salt ...[]byte) int
}

// Func adapts an ordinary function to Source.
type Func func(n int, salt ...[]byte) int

func (f Func) Intn(n int, salt ...[]byte) int { return f(n, salt...) }

// Keccak mixes a process seed, the current time, a draw counter and the salt
// through keccak256. It is predictable to anyone who knows the seed and
// must not guard anything of value beyond tie breaks and byes.
type Keccak struct {
	mu      sync.Mutex
	seed    [8]byte
	clock   clockwork.Clock
	counter uint64
}

func NewKeccak(seed int64, clock clockwork.Clock) *Keccak {
	k := &Keccak{clock: clock}
	binary.BigEndian.PutUint64(k.seed[:], uint64(seed))
	return k
}

func (k *Keccak) Intn(n int, salt ...[]byte) int {
	if n <= 1 {
		return 0
	}
	k.mu.Lock()
	k.counter++
	var buf [24]byte
	copy(buf[:8], k.seed[:])
	binary.BigEndian.PutUint64(buf[8:16], uint64(k.clock.Now().UnixNano()))
	binary.BigEndian.PutUint64(buf[16:], k.counter)
	k.mu.Unlock()

	parts := make([][]byte, 0, len(salt)+1)
	parts = append(parts, buf[:])
	parts = append(parts, salt...)
	h := crypto.Keccak256Hash(parts...)

	v := new(big.Int).SetBytes(h.Bytes())
	return int(v.Mod(v, big.NewInt(int64(n))).Int64())
}

// Uint8s is a helper for building salt from small ids.
func Uint8s(v ...uint8) []byte {
	return v
}

// Uint64 encodes v as an 8 byte big-endian salt part.
func Uint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
