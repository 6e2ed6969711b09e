package rps

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

var (
	// ErrShortData is returned when a bulk load supplies fewer than L*L values.
	ErrShortData = errors.New("rps: not enough lattice data")
	// ErrInvalidSpecies is returned when a bulk load contains an unknown code.
	ErrInvalidSpecies = errors.New("rps: invalid species code")
	// ErrInvalidRate is returned for a negative, NaN or infinite rate.
	ErrInvalidRate = errors.New("rps: rate must be finite and non-negative")
)

func validRate(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

func checkRate(name string, v float64) error {
	if !validRate(v) {
		return fmt.Errorf("%w: %s = %g", ErrInvalidRate, name, v)
	}
	return nil
}

// Time returns the simulation clock.
func (e *Engine) Time() float64 { return e.t }

// SetTime moves the simulation clock.
func (e *Engine) SetTime(t float64) { e.t = t }

// Rate returns the incrementally maintained total escape rate W.
func (e *Engine) Rate() float64 { return e.w }

// Side returns the lattice side length L.
func (e *Engine) Side() int { return e.l }

// Epsilon returns the exchange rate.
func (e *Engine) Epsilon() float64 { return e.epsilon }

// Mobility returns M = 2*epsilon/L^2.
func (e *Engine) Mobility() float64 {
	return 2 * e.epsilon / float64(e.l) / float64(e.l)
}

// Sigma returns the selection rate.
func (e *Engine) Sigma() float64 { return e.sigma }

// Mu returns the reproduction rate.
func (e *Engine) Mu() float64 { return e.mu }

// SetMobility changes the exchange rate and recomputes W. Invalid values are
// rejected and leave the engine unchanged.
func (e *Engine) SetMobility(m float64) error {
	if err := checkRate("mobility", m); err != nil {
		return err
	}
	e.epsilon = epsilonFor(m, e.l)
	e.cfg.Mobility = m
	e.resync()
	return nil
}

// SetSigma changes the selection rate and recomputes W.
func (e *Engine) SetSigma(sigma float64) error {
	if err := checkRate("sigma", sigma); err != nil {
		return err
	}
	e.sigma = sigma
	e.cfg.Sigma = sigma
	e.resync()
	return nil
}

// SetMu changes the reproduction rate and recomputes W.
func (e *Engine) SetMu(mu float64) error {
	if err := checkRate("mu", mu); err != nil {
		return err
	}
	e.mu = mu
	e.cfg.Mu = mu
	e.resync()
	return nil
}

// At returns the value at zero-based row and column. Bounds are the caller's
// responsibility.
func (e *Engine) At(row, col int) Species {
	return e.cells[e.torus.Index(row, col)]
}

// Lattice exposes the values in row-major order. Callers must not modify it.
func (e *Engine) Lattice() []Species { return e.cells }

// Counts returns how many sites hold each value, indexed by Species.
func (e *Engine) Counts() [numSpecies]int {
	var counts [numSpecies]int
	for _, c := range e.cells {
		counts[c]++
	}
	return counts
}

// Load overwrites the lattice with the first L*L values of src in row-major
// order and recomputes W. On error the engine should be discarded.
func (e *Engine) Load(src []Species) error {
	n := len(e.cells)
	if len(src) < n {
		return fmt.Errorf("%w: have %d values, need %d", ErrShortData, len(src), n)
	}
	for i, s := range src[:n] {
		if !s.Valid() {
			return fmt.Errorf("%w: %d at index %d", ErrInvalidSpecies, s, i)
		}
	}
	copy(e.cells, src[:n])
	e.resync()
	return nil
}

// LoadText reads whitespace separated species codes from r and loads them.
func (e *Engine) LoadText(r io.Reader) error {
	vals, err := ReadText(r, len(e.cells))
	if err != nil {
		return err
	}
	return e.Load(vals)
}

// ReadText parses n whitespace separated species codes. Anything after the
// n-th value is ignored.
func ReadText(r io.Reader, n int) ([]Species, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	vals := make([]Species, 0, n)
	for len(vals) < n && sc.Scan() {
		code, err := strconv.Atoi(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("rps: value %d: %w", len(vals), err)
		}
		if code < 0 || code >= numSpecies {
			return nil, fmt.Errorf("%w: %d at index %d", ErrInvalidSpecies, code, len(vals))
		}
		vals = append(vals, Species(code))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("rps: read lattice: %w", err)
	}
	if len(vals) < n {
		return nil, fmt.Errorf("%w: have %d values, need %d", ErrShortData, len(vals), n)
	}
	return vals, nil
}

// Clone returns an independent copy of the engine, including the position of
// its random generator.
func (e *Engine) Clone() *Engine {
	c := *e
	c.cells = append([]Species(nil), e.cells...)
	c.display = make([]uint8, len(e.display))
	c.rng = e.rng.Clone()
	return &c
}
