package run

import (
	"context"
	"errors"
	"testing"

	"rps-kmc/internal/export"
	"rps-kmc/internal/sims/rps"
)

type recordingSink struct {
	frames   []int
	times    []float64
	finished int
	final    float64
	failAt   int
}

func (s *recordingSink) Frame(n int, snap export.Snapshot) error {
	if s.failAt > 0 && n == s.failAt {
		return errors.New("disk full")
	}
	s.frames = append(s.frames, n)
	s.times = append(s.times, snap.Time())
	return nil
}

func (s *recordingSink) Finish(snap export.Snapshot) error {
	s.finished++
	s.final = snap.Time()
	return nil
}

func newEngine(size int) *rps.Engine {
	cfg := rps.DefaultConfig()
	cfg.Size = size
	cfg.Seed = 12
	cfg.Mobility = 0.05
	return rps.New(cfg)
}

func TestRunEmitsFramesAtGaps(t *testing.T) {
	sink := &recordingSink{}
	d := &Driver{Engine: newEngine(10), TMax: 3, FrameGap: 0.5, Sinks: []Sink{sink}}

	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Stalled {
		t.Fatal("random 10x10 lattice should not stall by t=3")
	}
	if res.Time < 3 {
		t.Fatalf("run stopped early at t=%f", res.Time)
	}
	if res.Steps != res.Events[rps.Exchange]+res.Events[rps.Reproduction]+res.Events[rps.Selection] {
		t.Fatalf("event counts %v do not add up to %d steps", res.Events, res.Steps)
	}
	if len(sink.frames) != res.Frames {
		t.Fatalf("sink saw %d frames, result reports %d", len(sink.frames), res.Frames)
	}
	if sink.frames[0] != 0 || sink.times[0] != 0 {
		t.Fatalf("first frame should be 0 at t=0, got %d at %f", sink.frames[0], sink.times[0])
	}
	for i := 1; i < len(sink.frames); i++ {
		if sink.frames[i] != i {
			t.Fatalf("frame %d numbered %d", i, sink.frames[i])
		}
		if sink.times[i] <= float64(i)*0.5 {
			t.Fatalf("frame %d taken at t=%f, before its boundary", i, sink.times[i])
		}
	}
	if res.Frames < 6 {
		t.Fatalf("expected at least 6 frames over t=3 with gap 0.5, got %d", res.Frames)
	}
	if sink.finished != 1 || sink.final != res.Time {
		t.Fatalf("expected one finish at t=%f, got %d at %f", res.Time, sink.finished, sink.final)
	}
}

func TestRunStopsOnStall(t *testing.T) {
	e := newEngine(4)
	vals := make([]rps.Species, 16)
	for i := range vals {
		vals[i] = rps.KindC
	}
	if err := e.Load(vals); err != nil {
		t.Fatalf("load: %v", err)
	}
	sink := &recordingSink{}
	d := &Driver{Engine: e, TMax: 10, FrameGap: 1, Sinks: []Sink{sink}}

	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("a stall is not an error: %v", err)
	}
	if !res.Stalled || res.Steps != 0 || res.Time != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Counts[rps.KindC] != 16 {
		t.Fatalf("expected 16 C sites, got %v", res.Counts)
	}
	if sink.finished != 1 {
		t.Fatal("final state must still be exported after a stall")
	}
}

func TestRunHonorsMaxSteps(t *testing.T) {
	d := &Driver{Engine: newEngine(8), TMax: 1e9, FrameGap: 1, MaxSteps: 250}
	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Steps != 250 {
		t.Fatalf("expected 250 steps, got %d", res.Steps)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &recordingSink{}
	d := &Driver{Engine: newEngine(8), TMax: 1e9, FrameGap: 1, Sinks: []Sink{sink}}
	_, err := d.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sink.finished != 1 {
		t.Fatal("sinks should be finished on cancellation")
	}
}

func TestRunSinkErrorAborts(t *testing.T) {
	sink := &recordingSink{failAt: 2}
	d := &Driver{Engine: newEngine(10), TMax: 50, FrameGap: 0.1, Sinks: []Sink{sink}}
	res, err := d.Run(context.Background())
	if err == nil {
		t.Fatal("expected sink error")
	}
	if res.Frames != 2 {
		t.Fatalf("expected run to stop after 2 frames, got %d", res.Frames)
	}
	if sink.finished != 1 {
		t.Fatal("sinks should be finished after a sink error")
	}
}
