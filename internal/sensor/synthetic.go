package sensor

import (
	"math/rand/v2"
	"sync"
)

// Temperature bounds of the synthetic transmitters.
const (
	MinTemp = 100
	MaxTemp = 500 // exclusive
)

// Source produces one temperature value for a sensor.
type Source interface {
	Read(idx int) int
}

// Synthetic draws uniformly distributed integers from [MinTemp, MaxTemp).
// It never fails; a real Modbus client would replace it.
type Synthetic struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthetic creates a source. A zero seed uses a random seed.
func NewSynthetic(seed uint64) *Synthetic {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Synthetic{rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

// Read returns the next temperature for the given sensor.
func (s *Synthetic) Read(_ int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MinTemp + s.rng.IntN(MaxTemp-MinTemp)
}
