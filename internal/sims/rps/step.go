package rps

import (
	"errors"
	"math"

	"rps-kmc/internal/core"
)

// ErrNoEvent is returned by Advance when no pair of neighbors differs, so no
// event has a positive rate and the model cannot progress.
var ErrNoEvent = errors.New("rps: no event available, the lattice is uniform")

// EventKind names the three possible transitions.
type EventKind uint8

const (
	Exchange EventKind = iota
	Reproduction
	Selection
)

func (k EventKind) String() string {
	switch k {
	case Exchange:
		return "exchange"
	case Reproduction:
		return "reproduction"
	case Selection:
		return "selection"
	default:
		return "unknown"
	}
}

// Event describes the transition applied by one call to Advance.
type Event struct {
	Kind EventKind
	// I is the scanned site and J its neighbor in direction Dir.
	I, J int
	Dir  core.Direction
	// Target is the site whose value changed. Exchange changes both I and J
	// and reports I.
	Target int
	// Dt is the clock increment.
	Dt float64
}

// Step advances the engine by one event. It satisfies core.Sim.
func (e *Engine) Step() error {
	_, err := e.Advance()
	return err
}

// Advance draws the waiting time and the next event, applies the event and
// corrects the total rate from the sites it touched. On ErrNoEvent neither
// the lattice nor the clock changes.
func (e *Engine) Advance() (Event, error) {
	if e.w <= 0 {
		return Event{}, ErrNoEvent
	}
	dt := -math.Log(e.rng.OpenFloat64()) / e.w
	r := e.rng.OpenFloat64() * e.w

	ev, ok := e.selectEvent(r)
	if !ok {
		// W only drifted away from zero; pin it back.
		e.resync()
		return Event{}, ErrNoEvent
	}
	ev.Dt = dt
	e.apply(&ev)
	e.t += dt
	return ev, nil
}

// selectEvent walks the edges in the same order as ComputeRate, splitting each
// differing pair into its exchange part followed by its reproduction or
// selection part, and returns the first part whose cumulative sum exceeds r.
// If rounding leaves r above the accumulated total, the last part with a
// positive width is chosen. ok is false only when no such part exists.
func (e *Engine) selectEvent(r float64) (ev Event, ok bool) {
	var sum float64
	for i, a := range e.cells {
		for _, d := range forward {
			j := e.nb[d][i]
			b := e.cells[j]
			if a == b {
				continue
			}
			sum += e.epsilon
			if e.epsilon > 0 {
				ev, ok = Event{Kind: Exchange, I: i, J: j, Dir: d}, true
				if sum > r {
					return ev, true
				}
			}

			kind, rate := Selection, e.sigma
			if a == Empty || b == Empty {
				kind, rate = Reproduction, e.mu
			}
			sum += rate
			if rate > 0 {
				ev, ok = Event{Kind: kind, I: i, J: j, Dir: d}, true
				if sum > r {
					return ev, true
				}
			}
		}
	}
	return ev, ok
}

// apply mutates the lattice and adds the change of the local rate window.
// Only sites whose value changes are measured: for an exchange the shared
// edge is counted twice before and after, and a swap leaves it unchanged.
func (e *Engine) apply(ev *Event) {
	i, j := ev.I, ev.J
	var before, after float64

	switch ev.Kind {
	case Exchange:
		ev.Target = i
		before = e.siteRate(i) + e.siteRate(j)
		e.cells[i], e.cells[j] = e.cells[j], e.cells[i]
		after = e.siteRate(i) + e.siteRate(j)
	case Reproduction:
		vacant, parent := i, j
		if e.cells[i] != Empty {
			vacant, parent = j, i
		}
		ev.Target = vacant
		before = e.siteRate(vacant)
		e.cells[vacant] = e.cells[parent]
		after = e.siteRate(vacant)
	case Selection:
		loser := i
		if e.cells[i] == Winner(e.cells[i], e.cells[j]) {
			loser = j
		}
		ev.Target = loser
		before = e.siteRate(loser)
		e.cells[loser] = Empty
		after = e.siteRate(loser)
	}

	e.w += after - before
	if e.w < 0 {
		e.w = 0
	}
}
