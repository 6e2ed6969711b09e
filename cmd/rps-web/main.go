package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"rps-kmc/internal/server"
	"rps-kmc/internal/sims/rps"
)

func main() {
	def := rps.DefaultConfig()
	size := flag.Int("size", def.Size, "lattice side length L")
	mobility := flag.Float64("mobility", def.Mobility, "mobility M")
	sigma := flag.Float64("sigma", def.Sigma, "selection rate")
	mu := flag.Float64("mu", def.Mu, "reproduction rate")
	seed := flag.Int64("seed", def.Seed, "random seed")
	steps := flag.Int("steps", 5000, "events per broadcast tick")
	interval := flag.Duration("interval", 50*time.Millisecond, "broadcast interval")
	flag.Parse()

	log.Println("creating lattice...")
	cfg := rps.Config{Size: *size, Mobility: *mobility, Sigma: *sigma, Mu: *mu, Seed: *seed}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	engine := rps.New(cfg)
	log.Printf("L=%d W=%.6g", engine.Side(), engine.Rate())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	broadcaster := server.NewBroadcaster(engine, *steps, *interval)
	go broadcaster.Run(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	r := server.SetupRouter(broadcaster)
	log.Printf("server starting at port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("server failed: ", err)
	}
}
