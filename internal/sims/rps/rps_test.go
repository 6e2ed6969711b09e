package rps

import (
	"errors"
	"math"
	"slices"
	"strings"
	"testing"

	"rps-kmc/internal/core"
)

func testConfig(size int, seed int64) Config {
	cfg := DefaultConfig()
	cfg.Size = size
	cfg.Seed = seed
	return cfg
}

func rateClose(got, want float64) bool {
	return math.Abs(got-want) <= 1e-9*math.Max(1, math.Abs(want))
}

func fill(n int, s Species) []Species {
	vals := make([]Species, n)
	for i := range vals {
		vals[i] = s
	}
	return vals
}

func TestNewComputesRate(t *testing.T) {
	e := New(testConfig(16, 7))
	if e.Rate() <= 0 {
		t.Fatalf("random lattice should have a positive rate, got %f", e.Rate())
	}
	if got, want := e.Rate(), e.ComputeRate(); got != want {
		t.Fatalf("initial rate %f does not match recomputation %f", got, want)
	}
	if got := len(e.Lattice()); got != 256 {
		t.Fatalf("expected 256 sites, got %d", got)
	}
	for i, s := range e.Lattice() {
		if !s.Valid() {
			t.Fatalf("site %d holds invalid value %d", i, s)
		}
	}
}

func TestEpsilonFromMobility(t *testing.T) {
	cfg := testConfig(10, 1)
	cfg.Mobility = 0.02
	e := New(cfg)
	if got := e.Epsilon(); !rateClose(got, 1) {
		t.Fatalf("expected epsilon 1, got %f", got)
	}
	if got := e.Mobility(); !rateClose(got, 0.02) {
		t.Fatalf("expected mobility round trip 0.02, got %f", got)
	}
}

func TestComputeRateCountsEachEdgeOnce(t *testing.T) {
	cfg := testConfig(4, 1)
	cfg.Mobility = 0.125 // epsilon = 1
	cfg.Sigma = 10
	cfg.Mu = 100
	e := New(cfg)

	// A single A in a sea of B has four differing edges.
	vals := fill(16, KindB)
	vals[5] = KindA
	if err := e.Load(vals); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := e.Rate(); !rateClose(got, 4*(1+10)) {
		t.Fatalf("expected rate 44, got %f", got)
	}

	vals[5] = Empty
	if err := e.Load(vals); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := e.Rate(); !rateClose(got, 4*(1+100)) {
		t.Fatalf("expected rate 404, got %f", got)
	}
}

func TestRateConsistencyAcrossSteps(t *testing.T) {
	sizes := []int{2, 3, 4, 7, 12}
	seeds := []int64{1, 2, 42, 124346}
	for _, size := range sizes {
		for _, seed := range seeds {
			cfg := testConfig(size, seed)
			cfg.Mobility = 0.05
			e := New(cfg)
			for step := 0; step < 3000; step++ {
				if _, err := e.Advance(); err != nil {
					if errors.Is(err, ErrNoEvent) {
						break
					}
					t.Fatalf("size %d seed %d step %d: %v", size, seed, step, err)
				}
				if want := e.ComputeRate(); !rateClose(e.Rate(), want) {
					t.Fatalf("size %d seed %d step %d: incremental rate %.15g, recomputed %.15g",
						size, seed, step, e.Rate(), want)
				}
			}
		}
	}
}

func TestExchangeConservesCounts(t *testing.T) {
	cfg := testConfig(8, 3)
	cfg.Mobility = 0.1
	cfg.Sigma = 0
	cfg.Mu = 0
	e := New(cfg)
	initial := e.Counts()

	for step := 0; step < 1000; step++ {
		ev, err := e.Advance()
		if err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		if ev.Kind != Exchange {
			t.Fatalf("step %d: expected only exchanges with sigma=mu=0, got %v", step, ev.Kind)
		}
		if got := e.Counts(); got != initial {
			t.Fatalf("step %d: counts changed from %v to %v", step, initial, got)
		}
	}
}

func TestClockMonotonic(t *testing.T) {
	cfg := testConfig(10, 5)
	cfg.T0 = 3.5
	e := New(cfg)
	if e.Time() != 3.5 {
		t.Fatalf("expected clock to start at 3.5, got %f", e.Time())
	}
	prev := e.Time()
	for step := 0; step < 2000; step++ {
		ev, err := e.Advance()
		if err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		if ev.Dt <= 0 {
			t.Fatalf("step %d: expected positive increment, got %g", step, ev.Dt)
		}
		if e.Time() <= prev {
			t.Fatalf("step %d: clock went from %g to %g", step, prev, e.Time())
		}
		prev = e.Time()
	}
}

func TestSelectionEmptiesLoser(t *testing.T) {
	beats := map[Species]Species{KindA: KindB, KindB: KindC, KindC: KindA}
	for winner, loser := range beats {
		for _, winnerFirst := range []bool{true, false} {
			cfg := testConfig(4, 9)
			cfg.Mobility = 0
			cfg.Mu = 0
			cfg.Sigma = 1
			e := New(cfg)

			// Sites 5 and 6 are horizontal neighbors; everything else is empty
			// so the only positive rate is their contest.
			vals := fill(16, Empty)
			first, second := loser, winner
			if winnerFirst {
				first, second = winner, loser
			}
			vals[5], vals[6] = first, second
			if err := e.Load(vals); err != nil {
				t.Fatalf("load: %v", err)
			}

			ev, err := e.Advance()
			if err != nil {
				t.Fatalf("%v vs %v: %v", first, second, err)
			}
			if ev.Kind != Selection {
				t.Fatalf("%v vs %v: expected selection, got %v", first, second, ev.Kind)
			}
			winnerSite, loserSite := 6, 5
			if winnerFirst {
				winnerSite, loserSite = 5, 6
			}
			if ev.Target != loserSite {
				t.Fatalf("%v vs %v: expected target %d, got %d", first, second, loserSite, ev.Target)
			}
			if got := e.Lattice()[loserSite]; got != Empty {
				t.Fatalf("%v vs %v: loser site holds %v", first, second, got)
			}
			if got := e.Lattice()[winnerSite]; got != winner {
				t.Fatalf("%v vs %v: winner site holds %v, want %v", first, second, got, winner)
			}
			if e.Rate() != 0 || e.ComputeRate() != 0 {
				t.Fatalf("%v vs %v: expected no remaining rate, got %f", first, second, e.Rate())
			}
		}
	}
}

func TestWinnerTable(t *testing.T) {
	cases := []struct{ a, b, want Species }{
		{KindA, KindB, KindA},
		{KindB, KindA, KindA},
		{KindB, KindC, KindB},
		{KindC, KindB, KindB},
		{KindC, KindA, KindC},
		{KindA, KindC, KindC},
	}
	for _, tc := range cases {
		if got := Winner(tc.a, tc.b); got != tc.want {
			t.Fatalf("Winner(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestReproductionFillsVacancy(t *testing.T) {
	cfg := testConfig(4, 11)
	cfg.Mobility = 0
	cfg.Sigma = 0
	cfg.Mu = 1
	e := New(cfg)

	// A column of C with an empty site below it.
	vals := fill(16, KindC)
	vals[10] = Empty
	if err := e.Load(vals); err != nil {
		t.Fatalf("load: %v", err)
	}
	ev, err := e.Advance()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if ev.Kind != Reproduction || ev.Target != 10 {
		t.Fatalf("expected reproduction into site 10, got %+v", ev)
	}
	if got := e.Lattice()[10]; got != KindC {
		t.Fatalf("vacancy should hold C, got %v", got)
	}
	if _, err := e.Advance(); !errors.Is(err, ErrNoEvent) {
		t.Fatalf("expected ErrNoEvent on a full lattice, got %v", err)
	}
}

func TestUniformLatticeStalls(t *testing.T) {
	for _, s := range []Species{KindA, KindB, KindC, Empty} {
		for _, size := range []int{1, 2, 5} {
			e := New(testConfig(size, 1))
			if err := e.Load(fill(size*size, s)); err != nil {
				t.Fatalf("load: %v", err)
			}
			e.SetTime(2)
			before := slices.Clone(e.Lattice())

			if err := e.Step(); !errors.Is(err, ErrNoEvent) {
				t.Fatalf("%v L=%d: expected ErrNoEvent, got %v", s, size, err)
			}
			if e.Time() != 2 {
				t.Fatalf("%v L=%d: clock moved to %f", s, size, e.Time())
			}
			if !slices.Equal(before, e.Lattice()) {
				t.Fatalf("%v L=%d: lattice mutated on a stalled step", s, size)
			}
		}
	}
}

func TestSingleStepScenario(t *testing.T) {
	cfg := testConfig(4, 2024)
	cfg.Mobility = 0.1
	cfg.Sigma = 1
	cfg.Mu = 1
	e := New(cfg)
	if e.Epsilon() <= 0 {
		t.Fatalf("expected positive epsilon, got %f", e.Epsilon())
	}
	before := slices.Clone(e.Lattice())

	ev, err := e.Advance()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}

	changed := 0
	for i := range before {
		if before[i] != e.Lattice()[i] {
			changed++
		}
	}
	switch ev.Kind {
	case Exchange:
		if changed != 2 {
			t.Fatalf("exchange changed %d sites", changed)
		}
	case Reproduction, Selection:
		if changed != 1 {
			t.Fatalf("%v changed %d sites", ev.Kind, changed)
		}
	default:
		t.Fatalf("unexpected event kind %v", ev.Kind)
	}
	if want := e.ComputeRate(); !rateClose(e.Rate(), want) {
		t.Fatalf("rate %f does not match recomputation %f", e.Rate(), want)
	}
}

func TestEventKindProportions(t *testing.T) {
	cfg := testConfig(4, 1)
	cfg.Mobility = 0.125 // epsilon = 1
	cfg.Mu = 3
	e := New(cfg)

	// Checkerboard of A and vacancies: every edge differs and involves a
	// vacancy, so exchange should be drawn with probability 1/4.
	vals := make([]Species, 16)
	for i := range vals {
		row, col := i/4, i%4
		if (row+col)%2 == 0 {
			vals[i] = KindA
		} else {
			vals[i] = Empty
		}
	}

	const trials = 20000
	exchanges := 0
	for k := 0; k < trials; k++ {
		if err := e.Load(vals); err != nil {
			t.Fatalf("load: %v", err)
		}
		e.rng.Seed(int64(k + 1))
		ev, err := e.Advance()
		if err != nil {
			t.Fatalf("trial %d: %v", k, err)
		}
		if ev.Kind == Exchange {
			exchanges++
		}
	}
	frac := float64(exchanges) / trials
	if math.Abs(frac-0.25) > 0.02 {
		t.Fatalf("expected exchange fraction near 0.25, got %f", frac)
	}
}

func TestSetterRecomputesRate(t *testing.T) {
	e := New(testConfig(8, 4))
	if err := e.SetSigma(5); err != nil {
		t.Fatalf("set sigma: %v", err)
	}
	if want := e.ComputeRate(); e.Rate() != want {
		t.Fatalf("sigma setter left rate %f, want %f", e.Rate(), want)
	}
	if err := e.SetMu(0.25); err != nil {
		t.Fatalf("set mu: %v", err)
	}
	if want := e.ComputeRate(); e.Rate() != want {
		t.Fatalf("mu setter left rate %f, want %f", e.Rate(), want)
	}
	if err := e.SetMobility(0.5); err != nil {
		t.Fatalf("set mobility: %v", err)
	}
	if want := e.ComputeRate(); e.Rate() != want {
		t.Fatalf("mobility setter left rate %f, want %f", e.Rate(), want)
	}
	if !rateClose(e.Epsilon(), 16) {
		t.Fatalf("expected epsilon 16, got %f", e.Epsilon())
	}
}

func TestSetFloatParameter(t *testing.T) {
	e := New(testConfig(8, 4))
	if !e.SetFloatParameter(ParamSigma, 2) || e.Sigma() != 2 {
		t.Fatalf("expected sigma to be adjustable, got %f", e.Sigma())
	}
	if e.SetFloatParameter(ParamMu, -1) {
		t.Fatal("negative rates must be rejected")
	}
	if e.SetFloatParameter(ParamSigma, math.NaN()) || e.Sigma() != 2 {
		t.Fatalf("NaN must be rejected, sigma is %f", e.Sigma())
	}
	if e.SetFloatParameter("size", 3) {
		t.Fatal("size is not adjustable")
	}
	p, ok := e.Parameters().Lookup(ParamSigma)
	if !ok || p.Value != "2" {
		t.Fatalf("expected snapshot to report sigma 2, got %+v", p)
	}
}

func TestLoadErrors(t *testing.T) {
	e := New(testConfig(3, 1))
	if err := e.Load(fill(8, KindA)); !errors.Is(err, ErrShortData) {
		t.Fatalf("expected ErrShortData, got %v", err)
	}
	vals := fill(9, KindA)
	vals[4] = 7
	if err := e.Load(vals); !errors.Is(err, ErrInvalidSpecies) {
		t.Fatalf("expected ErrInvalidSpecies, got %v", err)
	}
	if err := e.LoadText(strings.NewReader("0 1 2\n3 0 1\n2 3")); !errors.Is(err, ErrShortData) {
		t.Fatalf("expected ErrShortData from text, got %v", err)
	}
	if err := e.LoadText(strings.NewReader("0 1 2 3 0 1 2 3 x")); err == nil {
		t.Fatal("expected parse error for non-numeric token")
	}
}

func TestLoadTextRecomputesRate(t *testing.T) {
	e := New(testConfig(3, 1))
	if err := e.LoadText(strings.NewReader("0 0 0\n0 1 0\n0 0 0\n")); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := e.At(1, 1); got != KindB {
		t.Fatalf("expected B at (1,1), got %v", got)
	}
	if want := 4 * (e.Epsilon() + e.Sigma()); !rateClose(e.Rate(), want) {
		t.Fatalf("expected rate %f, got %f", want, e.Rate())
	}
}

func TestResetDeterministic(t *testing.T) {
	e := New(testConfig(12, 99))
	initial := slices.Clone(e.Lattice())

	for i := 0; i < 50; i++ {
		if err := e.Step(); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	e.Reset(0)
	if !slices.Equal(initial, e.Lattice()) {
		t.Fatal("Reset with config seed not deterministic")
	}
	if e.Time() != 0 {
		t.Fatalf("Reset should rewind the clock, got %f", e.Time())
	}

	e.Reset(777)
	seeded := slices.Clone(e.Lattice())
	e.Reset(777)
	if !slices.Equal(seeded, e.Lattice()) {
		t.Fatal("Reset with explicit seed not deterministic")
	}
	if slices.Equal(initial, seeded) {
		t.Fatal("different seeds should produce different lattices")
	}
}

func TestRandomizeKeepsClock(t *testing.T) {
	e := New(testConfig(6, 8))
	e.SetTime(12)
	e.Randomize()
	if e.Time() != 12 {
		t.Fatalf("Randomize moved the clock to %f", e.Time())
	}
	if want := e.ComputeRate(); e.Rate() != want {
		t.Fatalf("Randomize left rate %f, want %f", e.Rate(), want)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	e := New(testConfig(8, 31))
	for i := 0; i < 20; i++ {
		_ = e.Step()
	}
	c := e.Clone()
	for i := 0; i < 200; i++ {
		errE := e.Step()
		errC := c.Step()
		if (errE == nil) != (errC == nil) {
			t.Fatalf("step %d: clone diverged in error state", i)
		}
	}
	if !slices.Equal(e.Lattice(), c.Lattice()) || e.Time() != c.Time() {
		t.Fatal("clone should replay the same trajectory")
	}

	c.Lattice()[0] = Empty
	e.Lattice()[0] = KindA
	if c.Lattice()[0] == e.Lattice()[0] {
		t.Fatal("clone shares lattice storage with the original")
	}
}

func TestFromMap(t *testing.T) {
	c := FromMap(map[string]string{
		"size":     "32",
		"mobility": "1e-5",
		"sigma":    "2",
		"mu":       "bad",
		"seed":     "-4",
	})
	if c.Size != 32 || c.Mobility != 1e-5 || c.Sigma != 2 || c.Seed != -4 {
		t.Fatalf("unexpected config %+v", c)
	}
	if c.Mu != DefaultConfig().Mu {
		t.Fatalf("malformed mu should keep default, got %f", c.Mu)
	}
}

func checkerboard(l int) []Species {
	vals := make([]Species, l*l)
	for row := 0; row < l; row++ {
		for col := 0; col < l; col++ {
			if (row+col)%2 == 1 {
				vals[row*l+col] = KindB
			}
		}
	}
	return vals
}

func TestSettersRejectInvalidRates(t *testing.T) {
	e := New(testConfig(4, 3))
	if err := e.Load(checkerboard(4)); err != nil {
		t.Fatalf("load: %v", err)
	}
	before := e.Rate()
	bad := []float64{-0.5, math.NaN(), math.Inf(1), math.Inf(-1)}
	setters := map[string]func(float64) error{
		"mobility": e.SetMobility,
		"sigma":    e.SetSigma,
		"mu":       e.SetMu,
	}
	for name, set := range setters {
		for _, v := range bad {
			if err := set(v); !errors.Is(err, ErrInvalidRate) {
				t.Fatalf("%s(%v): expected ErrInvalidRate, got %v", name, v, err)
			}
		}
	}
	if e.Rate() != before || e.Sigma() != 1 || e.Mu() != 1 {
		t.Fatalf("rejected values changed the engine: W %f -> %f", before, e.Rate())
	}
}

func TestNewClampsInvalidRates(t *testing.T) {
	cfg := testConfig(4, 3)
	cfg.Mobility = 0.125
	cfg.Sigma = -2
	cfg.Mu = math.NaN()
	e := New(cfg)
	if e.Sigma() != 0 || e.Mu() != 0 {
		t.Fatalf("expected invalid rates clamped to 0, got sigma %f mu %f", e.Sigma(), e.Mu())
	}
	if err := e.Load(checkerboard(4)); err != nil {
		t.Fatalf("load: %v", err)
	}
	// 32 differing edges, each contributing only epsilon = 1.
	if e.Rate() != 32 {
		t.Fatalf("expected W = 32, got %f", e.Rate())
	}
	if _, err := e.Advance(); err != nil {
		t.Fatalf("advance on a checkerboard: %v", err)
	}
	if e.Rate() < 0 {
		t.Fatalf("W went negative: %f", e.Rate())
	}

	small := New(Config{Size: -3, Mobility: 1e-3, Sigma: 1, Mu: 1})
	if small.Side() != 1 {
		t.Fatalf("expected non-positive size clamped to 1, got %d", small.Side())
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Sigma = -1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	cfg = DefaultConfig()
	cfg.Size = 0
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "size") {
		t.Fatalf("expected size error, got %v", err)
	}
	if c := FromMap(map[string]string{"sigma": "NaN", "mu": "+Inf"}); c.Sigma != 1 || c.Mu != 1 {
		t.Fatalf("FromMap accepted a non-finite rate: %+v", c)
	}
}

// loneA places a single A at site 0 of an otherwise empty 3x3 lattice. The
// differing edges in scan order are 0-3 (down), 0-1 (right), 2-0 (right) and
// 6-0 (down).
func loneA(t *testing.T) *Engine {
	t.Helper()
	e := New(testConfig(3, 5))
	vals := fill(9, Empty)
	vals[0] = KindA
	if err := e.Load(vals); err != nil {
		t.Fatalf("load: %v", err)
	}
	return e
}

func TestSelectEventFallsBackToLastInterval(t *testing.T) {
	e := loneA(t)
	for _, r := range []float64{e.Rate(), 2 * e.Rate()} {
		ev, ok := e.selectEvent(r)
		if !ok {
			t.Fatalf("r=%f: expected a fallback event", r)
		}
		want := Event{Kind: Reproduction, I: 6, J: 0, Dir: core.Down}
		if ev != want {
			t.Fatalf("r=%f: got %+v, want %+v", r, ev, want)
		}
	}

	// With mu = 0 the reproduction part has no width, so the exchange part
	// of the same edge is the last candidate.
	if err := e.SetMu(0); err != nil {
		t.Fatalf("set mu: %v", err)
	}
	ev, ok := e.selectEvent(e.Rate())
	want := Event{Kind: Exchange, I: 6, J: 0, Dir: core.Down}
	if !ok || ev != want {
		t.Fatalf("got %+v (ok=%v), want %+v", ev, ok, want)
	}

	// The first interval is still chosen for small r.
	ev, ok = e.selectEvent(0)
	want = Event{Kind: Exchange, I: 0, J: 3, Dir: core.Down}
	if !ok || ev != want {
		t.Fatalf("got %+v (ok=%v), want %+v", ev, ok, want)
	}
}

func TestDriftedRateOnUniformLattice(t *testing.T) {
	e := New(testConfig(4, 6))
	if err := e.Load(fill(16, KindC)); err != nil {
		t.Fatalf("load: %v", err)
	}
	e.SetTime(3)
	e.w = 1e-12
	before := slices.Clone(e.Lattice())

	if _, err := e.Advance(); !errors.Is(err, ErrNoEvent) {
		t.Fatalf("expected ErrNoEvent, got %v", err)
	}
	if e.Rate() != 0 {
		t.Fatalf("expected W resynced to 0, got %g", e.Rate())
	}
	if e.Time() != 3 {
		t.Fatalf("clock moved to %f", e.Time())
	}
	if !slices.Equal(before, e.Lattice()) {
		t.Fatal("lattice mutated on a stalled step")
	}
}
