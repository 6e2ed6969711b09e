package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"rps-kmc/internal/sims/rps"
	"rps-kmc/internal/sweep"
)

type floatList []float64

func (l *floatList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (l *floatList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return err
		}
		*l = append(*l, v)
	}
	return nil
}

func main() {
	def := rps.DefaultConfig()
	size := flag.Int("size", 64, "lattice side length L")
	sigma := flag.Float64("sigma", def.Sigma, "selection rate")
	mu := flag.Float64("mu", def.Mu, "reproduction rate")
	seed := flag.Int64("seed", def.Seed, "seed of the first replica")
	replicas := flag.Int("replicas", 4, "runs per mobility")
	tmax := flag.Float64("tmax", 0, "stop time per run, 0 means L*L")
	workers := flag.Int("workers", runtime.NumCPU(), "parallel runs")
	lo := flag.Float64("min", 1e-6, "smallest mobility for the log grid")
	hi := flag.Float64("max", 1e-3, "largest mobility for the log grid")
	points := flag.Int("points", 7, "number of log-spaced mobilities")
	verbose := flag.Bool("v", false, "print every replica")
	var mobilities floatList
	flag.Var(&mobilities, "m", "explicit mobility values, comma separated (repeatable)")
	flag.Parse()

	if len(mobilities) == 0 {
		mobilities = sweep.LogSpace(*lo, *hi, *points)
	}
	base := def
	base.Size = *size
	base.Sigma = *sigma
	base.Mu = *mu
	base.Seed = *seed
	if err := base.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	for _, m := range mobilities {
		if !(m >= 0) || math.IsInf(m, 1) {
			log.Fatalf("invalid mobility %g", m)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	start := time.Now()
	log.Printf("sweeping %d mobilities x %d replicas on %d workers, L=%d", len(mobilities), *replicas, *workers, *size)
	outcomes, err := sweep.Run(ctx, sweep.Plan{
		Base:       base,
		Mobilities: mobilities,
		Replicas:   *replicas,
		TMax:       *tmax,
		Workers:    *workers,
	})
	if err != nil {
		log.Fatalf("sweep: %v", err)
	}
	log.Printf("finished in %s", time.Since(start).Round(time.Millisecond))

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if *verbose {
		fmt.Fprintln(tw, "mobility\treplica\tseed\tsurvivors\textinction\tsteps\tt_end")
		for _, o := range outcomes {
			fmt.Fprintf(tw, "%.3g\t%d\t%d\t%d\t%s\t%d\t%.2f\n", o.Mobility, o.Replica, o.Seed, o.Survivors, formatTime(o.Extinction), o.Steps, o.EndTime)
		}
		fmt.Fprintln(tw)
	}
	fmt.Fprintln(tw, "mobility\treplicas\tcoexistence\tmean_extinction")
	for _, s := range sweep.Summarize(outcomes) {
		fmt.Fprintf(tw, "%.3g\t%d\t%.2f\t%s\n", s.Mobility, s.Replicas, s.Coexistence, formatTime(s.MeanExtinction))
	}
	tw.Flush()
}

func formatTime(t float64) string {
	if math.IsNaN(t) {
		return "-"
	}
	return strconv.FormatFloat(t, 'f', 2, 64)
}
