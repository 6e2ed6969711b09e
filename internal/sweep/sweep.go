// Package sweep runs independent replicas of the model across a range of
// mobilities and reports how often the three species coexist.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"rps-kmc/internal/sims/rps"
)

// Plan describes a sweep.
type Plan struct {
	// Base supplies size, rates and the seed of the first replica.
	Base       rps.Config
	Mobilities []float64
	Replicas   int
	// TMax is the simulated time budget per replica; zero means Size*Size.
	TMax    float64
	Workers int
}

// Outcome is the result of one replica.
type Outcome struct {
	Mobility float64
	Replica  int
	Seed     int64
	// Extinction is the time at which the first species vanished, or NaN if
	// all three survived until TMax.
	Extinction float64
	// Survivors is the number of species present at the end.
	Survivors int
	Steps     int
	EndTime   float64
}

// Coexisted reports whether all three species were alive at the end.
func (o Outcome) Coexisted() bool { return o.Survivors == 3 }

// Summary aggregates the replicas of one mobility.
type Summary struct {
	Mobility float64
	Replicas int
	// Coexistence is the fraction of replicas in which all species survived.
	Coexistence float64
	// MeanExtinction averages the first-extinction time over replicas that
	// lost a species; NaN if none did.
	MeanExtinction float64
}

type job struct {
	mobility float64
	replica  int
	seed     int64
}

// Run executes every (mobility, replica) pair on a bounded pool of workers.
// Each replica owns its engine; nothing is shared between goroutines apart
// from the result slice.
func Run(ctx context.Context, plan Plan) ([]Outcome, error) {
	if len(plan.Mobilities) == 0 {
		return nil, errors.New("sweep: no mobilities given")
	}
	if plan.Replicas <= 0 {
		plan.Replicas = 1
	}
	workers := plan.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	tmax := plan.TMax
	if tmax <= 0 {
		tmax = float64(plan.Base.Size * plan.Base.Size)
	}

	jobs := make([]job, 0, len(plan.Mobilities)*plan.Replicas)
	for _, m := range plan.Mobilities {
		for r := 0; r < plan.Replicas; r++ {
			jobs = append(jobs, job{mobility: m, replica: r, seed: plan.Base.Seed + int64(r)})
		}
	}

	var (
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(jobs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, j := range jobs {
		g.Go(func() error {
			out, err := runReplica(gctx, plan.Base, j, tmax)
			if err != nil {
				return fmt.Errorf("sweep: mobility %g replica %d: %w", j.mobility, j.replica, err)
			}
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(outcomes, func(a, b int) bool {
		if outcomes[a].Mobility != outcomes[b].Mobility {
			return outcomes[a].Mobility < outcomes[b].Mobility
		}
		return outcomes[a].Replica < outcomes[b].Replica
	})
	return outcomes, nil
}

const checkInterval = 4096

func runReplica(ctx context.Context, base rps.Config, j job, tmax float64) (Outcome, error) {
	cfg := base
	cfg.Mobility = j.mobility
	cfg.Seed = j.seed
	e := rps.New(cfg)

	out := Outcome{Mobility: j.mobility, Replica: j.replica, Seed: j.seed, Extinction: math.NaN()}
	for e.Time() < tmax {
		if out.Steps%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			// Extinction is only noticed at check points, so the recorded
			// time overshoots by at most checkInterval events.
			if survivors(e.Counts()) < 3 {
				out.Extinction = e.Time()
				break
			}
		}
		if _, err := e.Advance(); err != nil {
			if errors.Is(err, rps.ErrNoEvent) {
				break
			}
			return out, err
		}
		out.Steps++
	}
	out.Survivors = survivors(e.Counts())
	out.EndTime = e.Time()
	if math.IsNaN(out.Extinction) && out.Survivors < 3 {
		out.Extinction = e.Time()
	}
	return out, nil
}

func survivors(counts [4]int) int {
	n := 0
	for _, s := range []rps.Species{rps.KindA, rps.KindB, rps.KindC} {
		if counts[s] > 0 {
			n++
		}
	}
	return n
}

// Summarize groups outcomes by mobility, in ascending mobility order.
func Summarize(outcomes []Outcome) []Summary {
	byMobility := map[float64][]Outcome{}
	var keys []float64
	for _, o := range outcomes {
		if _, ok := byMobility[o.Mobility]; !ok {
			keys = append(keys, o.Mobility)
		}
		byMobility[o.Mobility] = append(byMobility[o.Mobility], o)
	}
	sort.Float64s(keys)

	summaries := make([]Summary, 0, len(keys))
	for _, m := range keys {
		group := byMobility[m]
		s := Summary{Mobility: m, Replicas: len(group), MeanExtinction: math.NaN()}
		coexist, extinct := 0, 0
		var total float64
		for _, o := range group {
			if o.Coexisted() {
				coexist++
				continue
			}
			extinct++
			total += o.Extinction
		}
		s.Coexistence = float64(coexist) / float64(len(group))
		if extinct > 0 {
			s.MeanExtinction = total / float64(extinct)
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// LogSpace returns n mobilities spaced evenly in log10 between lo and hi.
func LogSpace(lo, hi float64, n int) []float64 {
	if n <= 0 || lo <= 0 || hi <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	a, b := math.Log10(lo), math.Log10(hi)
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = math.Pow(10, a+(b-a)*float64(i)/float64(n-1))
	}
	return vals
}
