package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"rps-kmc/internal/export"
	"rps-kmc/internal/run"
	"rps-kmc/internal/sims/rps"
)

type kvList []string

func (l *kvList) String() string {
	return strings.Join(*l, ",")
}

func (l *kvList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func main() {
	def := rps.DefaultConfig()
	size := flag.Int("size", def.Size, "lattice side length L")
	mobility := flag.Float64("mobility", def.Mobility, "mobility M, exchange rate is M*L*L/2")
	sigma := flag.Float64("sigma", def.Sigma, "selection rate")
	mu := flag.Float64("mu", def.Mu, "reproduction rate")
	seed := flag.Int64("seed", def.Seed, "random seed")
	t0 := flag.Float64("t0", def.T0, "clock origin")
	tmax := flag.Float64("tmax", 0, "stop time, 0 means L*L")
	gap := flag.Float64("gap", 1, "simulated time between frames")
	maxSteps := flag.Int("max-steps", 0, "stop after this many events, 0 means no limit")
	out := flag.String("out", ".", "output directory")
	format := flag.String("format", "ppm", "frame format: ppm or png, empty disables frames")
	scale := flag.Int("scale", 1, "pixel scale for png frames and video")
	video := flag.String("video", "", "write an MJPEG AVI to this file")
	fps := flag.Int("fps", 25, "video frame rate")
	chart := flag.String("chart", "", "write a population chart PNG to this file")
	load := flag.String("load", "", "initial lattice in text form")
	progress := flag.Int("progress", 100, "log every n frames, 0 disables")
	var overrides kvList
	flag.Var(&overrides, "set", "config override in key=value form (repeatable)")
	flag.Parse()

	cfg := rps.Config{Size: *size, Mobility: *mobility, Sigma: *sigma, Mu: *mu, T0: *t0, Seed: *seed}
	applyOverrides(&cfg, overrides)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	engine := rps.New(cfg)
	side := engine.Side()
	if *load != "" {
		f, err := os.Open(*load)
		if err != nil {
			log.Fatalf("open initial state: %v", err)
		}
		err = engine.LoadText(f)
		f.Close()
		if err != nil {
			log.Fatalf("load %s: %v", *load, err)
		}
		log.Printf("loaded %s, W=%.6g", *load, engine.Rate())
	}

	stop := *tmax
	if stop <= 0 {
		stop = float64(side * side)
	}

	var sinks []run.Sink
	if *format != "" {
		fmtKind, err := export.ParseFormat(*format)
		if err != nil {
			log.Fatal(err)
		}
		sinks = append(sinks, &export.FrameWriter{Dir: *out, Format: fmtKind, Scale: *scale})
	}
	if *video != "" {
		r, err := export.NewRecorder(*video, side, export.RecorderOptions{Scale: *scale, FPS: *fps})
		if err != nil {
			log.Fatalf("video: %v", err)
		}
		sinks = append(sinks, r)
	}
	if *chart != "" {
		c := export.NewPopulationChart(0, 0)
		c.Path = *chart
		sinks = append(sinks, c)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	driver := &run.Driver{
		Engine:        engine,
		TMax:          stop,
		FrameGap:      *gap,
		MaxSteps:      *maxSteps,
		Sinks:         sinks,
		Logger:        log.Default(),
		ProgressEvery: *progress,
	}
	log.Printf("L=%d M=%g epsilon=%g sigma=%g mu=%g W=%.6g tmax=%g", side, engine.Mobility(), engine.Epsilon(), engine.Sigma(), engine.Mu(), engine.Rate(), stop)
	res, err := driver.Run(ctx)
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	final := filepath.Join(*out, export.FinalStateName(side, engine.Mobility()))
	if err := export.SaveText(final, engine); err != nil {
		log.Fatalf("save final state: %v", err)
	}
	log.Printf("done: t=%.3f steps=%d frames=%d stalled=%v events=%v counts=%v", res.Time, res.Steps, res.Frames, res.Stalled, res.Events, res.Counts)
	log.Printf("final state written to %s", final)
}

func applyOverrides(cfg *rps.Config, overrides kvList) {
	for _, kv := range overrides {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			log.Printf("ignoring malformed override %q", kv)
			continue
		}
		key, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		var err error
		switch key {
		case "size":
			cfg.Size, err = strconv.Atoi(value)
		case "mobility":
			cfg.Mobility, err = strconv.ParseFloat(value, 64)
		case "sigma":
			cfg.Sigma, err = strconv.ParseFloat(value, 64)
		case "mu":
			cfg.Mu, err = strconv.ParseFloat(value, 64)
		case "t0":
			cfg.T0, err = strconv.ParseFloat(value, 64)
		case "seed":
			cfg.Seed, err = strconv.ParseInt(value, 10, 64)
		default:
			log.Printf("unknown override %q", key)
			continue
		}
		if err != nil {
			log.Fatalf("override %s: %v", key, err)
		}
	}
}
