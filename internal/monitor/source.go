package monitor

import (
	"math/rand"
	"sync"
	"time"

	"github.com/luki/cardiodash/internal/series"
)

// SampleSource produces the next live reading. The dashboard pulls one
// sample per simulator tick.
type SampleSource interface {
	Next() series.Sample
}

// RandomSource stands in for a device feed with uniform rates in [60,100).
type RandomSource struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewRandomSource creates a source seeded with seed.
func NewRandomSource(seed int64) *RandomSource {
	return &RandomSource{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

func (r *RandomSource) Next() series.Sample {
	r.mu.Lock()
	rate := 60 + r.rng.Intn(40)
	r.mu.Unlock()
	return series.Sample{HeartRate: rate, Time: r.now()}
}
