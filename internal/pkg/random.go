package pkg

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Random is the process wide random source. It is safe for concurrent use.
type Random struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandom seeds the source with seed, or with the clock when seed is zero.
func NewRandom(seed uint64) *Random {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &Random{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), //nolint: gosec // game randomness
	}
}

// IntN returns a value in [0, n). It panics when n <= 0.
func (that *Random) IntN(n int) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.rnd.IntN(n)
}

func (that *Random) Bool() bool {
	return that.IntN(2) == 0
}
