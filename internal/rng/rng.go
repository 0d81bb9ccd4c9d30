package rng

import (
	"math"

	"golang.org/x/sys/cpu"
)

// fallbackSeed replaces a zero state, which would make xorshift emit zeros forever.
const fallbackSeed uint64 = 0x9e3779b97f4a7c15

// Seed is the mutable state of a xorshift64 generator.
// A Seed is owned by exactly one worker and must never be shared.
type Seed uint64

// NewSeed returns a usable seed for v, replacing zero.
func NewSeed(v uint64) Seed {
	if v == 0 {
		return Seed(fallbackSeed)
	}
	return Seed(v)
}

// Uint64 advances the seed and returns the new state.
func (s *Seed) Uint64() uint64 {
	x := uint64(*s)
	if x == 0 {
		x = fallbackSeed
	}
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	*s = Seed(x)
	return x
}

// Float64 returns a uniform draw in (0, 1].
func (s *Seed) Float64() float64 {
	return float64(s.Uint64()) / float64(math.MaxUint64)
}

// Cell holds one worker's seed padded out to its own cache line,
// so that neighbouring cells in a slice never share one.
type Cell struct {
	Seed Seed
	_    cpu.CacheLinePad
}

// NewCells derives n independent non-zero seeds for the workers of one process.
// The stream is keyed by the base seed and the process rank; identical inputs
// always produce identical cells.
func NewCells(n int, base uint64, rank int) []Cell {
	cells := make([]Cell, n)
	state := base ^ splitmix64(uint64(rank)+1)
	for i := range cells {
		state += 0x9e3779b97f4a7c15
		cells[i].Seed = NewSeed(splitmix64(state))
	}
	return cells
}

func splitmix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
