// Package rps simulates three cyclically dominant species and vacancies on a
// toroidal square lattice with the Gillespie direct method.
//
// Every adjacent pair of sites holding different values can exchange at rate
// epsilon. A pair involving a vacancy can additionally reproduce at rate mu,
// and a pair of distinct species can fight at rate sigma, emptying the site of
// the loser. The engine keeps the total escape rate W up to date
// incrementally so a step only has to look at the two sites it touches.
package rps

import (
	"fmt"

	"rps-kmc/internal/core"
)

// Species is the value held by one lattice site. The numeric values are the
// codes used by the text format.
type Species uint8

const (
	KindA Species = iota
	KindB
	KindC
	Empty

	numSpecies = 4
)

func (s Species) String() string {
	switch s {
	case KindA:
		return "A"
	case KindB:
		return "B"
	case KindC:
		return "C"
	case Empty:
		return "empty"
	default:
		return fmt.Sprintf("Species(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the four lattice values.
func (s Species) Valid() bool { return s < numSpecies }

// winners[a][b] is the species that survives a contest between a and b. A
// beats B, B beats C and C beats A. The diagonal is never consulted.
var winners = [3][3]Species{
	{Empty, KindA, KindC},
	{KindA, Empty, KindB},
	{KindC, KindB, Empty},
}

// Winner returns the survivor of a contest between two distinct species.
func Winner(a, b Species) Species { return winners[a][b] }

// forward holds the two directions that enumerate every edge of the torus
// exactly once.
var forward = [2]core.Direction{core.Down, core.Right}

// Engine owns the lattice, its topology, the rates, the total escape rate and
// the clock. It is not safe for concurrent use.
type Engine struct {
	cfg Config

	l     int
	torus core.Torus
	cells []Species
	nb    [4][]int

	epsilon float64
	sigma   float64
	mu      float64

	w float64
	t float64

	display []uint8
	rng     *core.RNG
}

// NewWithSize returns an engine of side length l using default rates.
func NewWithSize(l int) *Engine {
	cfg := DefaultConfig()
	cfg.Size = l
	return New(cfg)
}

// New builds a randomly filled lattice from cfg and computes its total rate.
// Fields rejected by Config.Validate are clamped: the size to 1, rates to 0.
func New(cfg Config) *Engine {
	cfg = cfg.sanitized()
	torus := core.NewTorus(cfg.Size, cfg.Size)
	e := &Engine{
		cfg:     cfg,
		l:       cfg.Size,
		torus:   torus,
		cells:   make([]Species, torus.Len()),
		nb:      torus.VonNeumann(),
		epsilon: cfg.Epsilon(),
		sigma:   cfg.Sigma,
		mu:      cfg.Mu,
		t:       cfg.T0,
		display: make([]uint8, torus.Len()),
		rng:     core.NewRNG(cfg.Seed),
	}
	e.Randomize()
	return e
}

// Name returns the simulation identifier.
func (e *Engine) Name() string { return "rps" }

// Size reports the grid dimensions.
func (e *Engine) Size() core.Size { return core.Size{W: e.l, H: e.l} }

// Cells exposes the lattice as raw species codes. The slice is owned by the
// engine and rewritten on every call.
func (e *Engine) Cells() []uint8 {
	for i, c := range e.cells {
		e.display[i] = uint8(c)
	}
	return e.display
}

// Reset reseeds the generator, refills the lattice and rewinds the clock to
// the configured origin. A zero seed falls back to the configured one.
func (e *Engine) Reset(seed int64) {
	effective := seed
	if effective == 0 {
		effective = e.cfg.Seed
	}
	e.rng.Seed(effective)
	e.t = e.cfg.T0
	e.Randomize()
}

// Randomize fills every site uniformly among the four values and recomputes
// the total rate. Size, rates, topology and clock are left alone.
func (e *Engine) Randomize() {
	for i := range e.cells {
		e.cells[i] = Species(e.rng.Uint8n(numSpecies))
	}
	e.resync()
}

// pairRate is the contribution of one adjacent pair to the total rate.
func (e *Engine) pairRate(a, b Species) float64 {
	if a == b {
		return 0
	}
	if a == Empty || b == Empty {
		return e.epsilon + e.mu
	}
	return e.epsilon + e.sigma
}

// siteRate sums pairRate over all four neighbors of site i.
func (e *Engine) siteRate(i int) float64 {
	var r float64
	a := e.cells[i]
	for _, d := range core.Directions {
		r += e.pairRate(a, e.cells[e.nb[d][i]])
	}
	return r
}

// ComputeRate sums the pair contributions of every edge from scratch, visiting
// each edge once through the down and right neighbors of every site.
func (e *Engine) ComputeRate() float64 {
	var w float64
	for i, a := range e.cells {
		for _, d := range forward {
			w += e.pairRate(a, e.cells[e.nb[d][i]])
		}
	}
	return w
}

func (e *Engine) resync() {
	e.w = e.ComputeRate()
}

func init() {
	core.Register("rps", func(cfg map[string]string) core.Sim {
		return New(FromMap(cfg))
	})
}
