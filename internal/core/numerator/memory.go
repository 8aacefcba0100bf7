package numerator

import (
	"context"
	"sync"
	"time"

	"trendzportal/internal/core/tenant"
)

// MemoryGenerator keeps sequences in process. Used with the in-memory store
// and in unit tests.
type MemoryGenerator struct {
	mu   sync.Mutex
	seqs map[string]int64
}

// NewMemoryGenerator creates an empty generator.
func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{seqs: make(map[string]int64)}
}

func (g *MemoryGenerator) GetNextNumber(_ context.Context, tn tenant.ID, cfg Config, _ *Options, period time.Time) (string, error) {
	key := string(tn) + ":" + cfg.Key(period)
	g.mu.Lock()
	g.seqs[key]++
	n := g.seqs[key]
	g.mu.Unlock()
	return cfg.Number(period, n)
}

func (g *MemoryGenerator) SetNextNumber(_ context.Context, tn tenant.ID, cfg Config, period time.Time, value int64) error {
	g.mu.Lock()
	// the stored value is the last issued number
	g.seqs[string(tn)+":"+cfg.Key(period)] = value - 1
	g.mu.Unlock()
	return nil
}

var _ Generator = (*MemoryGenerator)(nil)
