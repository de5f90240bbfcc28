package chaos

import (
	"math/rand"
	"time"

	"github.com/yanun0323/errors"
)

// Config controls fault injection into an inbound event stream.
type Config struct {
	Seed          int64
	DropRate      float64
	DuplicateRate float64
	// ReorderWindow buffers this many events and releases them in random order.
	ReorderWindow int
}

// Engine drops, duplicates and reorders events.
type Engine[T any] struct {
	cfg     Config
	rng     *rand.Rand
	pending []T
}

// NewEngine creates a chaos engine with validation.
func NewEngine[T any](cfg Config) (*Engine[T], error) {
	if cfg.ReorderWindow <= 0 {
		cfg.ReorderWindow = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	return &Engine[T]{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.DropRate < 0 || c.DropRate > 1 {
		return errors.New("dropRate must be between 0 and 1")
	}
	if c.DuplicateRate < 0 || c.DuplicateRate > 1 {
		return errors.New("duplicateRate must be between 0 and 1")
	}
	if c.ReorderWindow <= 0 {
		return errors.New("reorderWindow must be >= 1")
	}
	return nil
}

// Process applies chaos to a single event and returns the events to deliver now.
func (e *Engine[T]) Process(ev T) []T {
	if e == nil {
		return []T{ev}
	}
	if e.shouldDrop() {
		return nil
	}
	if e.cfg.ReorderWindow <= 1 {
		return e.applyDuplicate(ev)
	}
	e.pending = append(e.pending, ev)
	if len(e.pending) < e.cfg.ReorderWindow {
		return nil
	}
	return e.applyDuplicate(e.take())
}

// Flush returns any buffered events after processing completes.
func (e *Engine[T]) Flush() []T {
	if e == nil || len(e.pending) == 0 {
		return nil
	}
	out := make([]T, 0, len(e.pending))
	for len(e.pending) > 0 {
		out = append(out, e.applyDuplicate(e.take())...)
	}
	return out
}

func (e *Engine[T]) take() T {
	idx := e.rng.Intn(len(e.pending))
	ev := e.pending[idx]
	e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
	return ev
}

func (e *Engine[T]) shouldDrop() bool {
	return e.cfg.DropRate > 0 && e.rng.Float64() < e.cfg.DropRate
}

func (e *Engine[T]) applyDuplicate(ev T) []T {
	out := []T{ev}
	if e.cfg.DuplicateRate > 0 && e.rng.Float64() < e.cfg.DuplicateRate {
		out = append(out, ev)
	}
	return out
}
