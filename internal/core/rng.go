package core

import "math/rand/v2"

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
// Each simulation owns its own RNG; nothing here touches the global source.
type RNG struct {
	src *rand.PCG
	r   *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	src := rand.NewPCG(uint64(seed), 0)
	return &RNG{src: src, r: rand.New(src)}
}

// Seed rewinds the generator to the state NewRNG(seed) would produce.
func (r *RNG) Seed(seed int64) {
	r.src.Seed(uint64(seed), 0)
}

// IntN returns a random int in [0, n).
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// Uint8n returns a random uint8 in [0, n).
func (r *RNG) Uint8n(n uint8) uint8 {
	if n == 0 {
		return 0
	}
	return uint8(r.r.IntN(int(n)))
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 { return r.r.Float64() }

// OpenFloat64 returns a value in the open interval (0, 1), suitable as the
// argument of a logarithm.
func (r *RNG) OpenFloat64() float64 {
	for {
		if u := r.r.Float64(); u > 0 {
			return u
		}
	}
}

// Clone returns an independent generator positioned at the same state.
func (r *RNG) Clone() *RNG {
	state, err := r.src.MarshalBinary()
	if err != nil {
		panic(err)
	}
	src := &rand.PCG{}
	if err := src.UnmarshalBinary(state); err != nil {
		panic(err)
	}
	return &RNG{src: src, r: rand.New(src)}
}

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }
