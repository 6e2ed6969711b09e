// Package run drives an engine through a simulated-time budget and hands
// periodic snapshots to export sinks.
package run

import (
	"context"
	"errors"
	"fmt"
	"log"

	"rps-kmc/internal/core"
	"rps-kmc/internal/export"
	"rps-kmc/internal/sims/rps"
)

// Sink receives the n-th snapshot of a run. Snapshots are only taken between
// steps.
type Sink interface {
	Frame(n int, s export.Snapshot) error
}

// Finisher is implemented by sinks that want the final state once the run is
// over, whether it ran out of time or stalled.
type Finisher interface {
	Finish(s export.Snapshot) error
}

// Driver advances an engine until TMax or until no event is possible.
type Driver struct {
	Engine *rps.Engine
	// TMax is the simulated time at which the run stops.
	TMax float64
	// FrameGap is the simulated time between snapshots.
	FrameGap float64
	// MaxSteps bounds the number of events; zero means unbounded.
	MaxSteps int
	Sinks    []Sink
	// Logger receives progress lines; nil disables logging.
	Logger *log.Logger
	// ProgressEvery logs a progress line every that many frames; zero disables it.
	ProgressEvery int
}

// Result summarizes a run.
type Result struct {
	Steps  int
	Frames int
	Time   float64
	// Stalled is set when the run ended because no event was possible.
	Stalled bool
	// Events counts applied events by rps.EventKind.
	Events [3]int
	Counts [4]int
}

const ctxCheckInterval = 1024

// Run executes the loop. Frame 0 is emitted before the first step. Sink
// errors abort the run; a stalled lattice is reported through Result.
// Finishers are always called, so sinks holding files get to close them.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	e := d.Engine
	if e == nil {
		return Result{}, errors.New("run: driver has no engine")
	}
	var res Result

	if err := d.emit(0, &res); err != nil {
		return d.finish(res, err)
	}
	fc := core.NewFrameClock(e.Time(), d.FrameGap)

	for e.Time() < d.TMax {
		if d.MaxSteps > 0 && res.Steps >= d.MaxSteps {
			break
		}
		if res.Steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return d.finish(res, err)
			}
		}

		ev, err := e.Advance()
		if errors.Is(err, rps.ErrNoEvent) {
			res.Stalled = true
			d.logf("no event possible at t=%g after %d steps, counts %v", e.Time(), res.Steps, e.Counts())
			break
		}
		if err != nil {
			return d.finish(res, err)
		}
		res.Steps++
		res.Events[ev.Kind]++

		if fc.Due(e.Time()) {
			if err := d.emit(res.Frames, &res); err != nil {
				return d.finish(res, err)
			}
		}
	}

	return d.finish(res, nil)
}

func (d *Driver) emit(n int, res *Result) error {
	for _, s := range d.Sinks {
		if err := s.Frame(n, d.Engine); err != nil {
			return fmt.Errorf("run: frame %d: %w", n, err)
		}
	}
	res.Frames++
	if d.ProgressEvery > 0 && n > 0 && n%d.ProgressEvery == 0 {
		d.logf("frame %d t=%.3f W=%.6g steps=%d counts=%v", n, d.Engine.Time(), d.Engine.Rate(), res.Steps, d.Engine.Counts())
	}
	return nil
}

func (d *Driver) finish(res Result, runErr error) (Result, error) {
	res.Time = d.Engine.Time()
	res.Counts = d.Engine.Counts()
	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	for _, s := range d.Sinks {
		f, ok := s.(Finisher)
		if !ok {
			continue
		}
		if err := f.Finish(d.Engine); err != nil {
			errs = append(errs, fmt.Errorf("run: finish: %w", err))
		}
	}
	return res, errors.Join(errs...)
}

func (d *Driver) logf(format string, args ...any) {
	if d.Logger == nil {
		return
	}
	d.Logger.Printf(format, args...)
}
