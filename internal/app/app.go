//go:build ebiten

package app

import (
	"image/color"
	"log"
	"time"

	"rps-kmc/internal/core"
	"rps-kmc/internal/render"
	"rps-kmc/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const maxStepsPerFrame = 1 << 20

// Game adapts a core simulation to the ebiten.Game interface.
type Game struct {
	sim     core.Sim
	painter *render.GridPainter
	overlay *ui.Overlay
	hud     *ui.HUD
	palette []color.RGBA

	scale         int
	stepsPerFrame int
	paused        bool
	tickOnce      bool
	stalled       bool
	seed          int64
}

// New constructs a Game for the provided simulation.
func New(sim core.Sim, cfg *Config) *Game {
	size := sim.Size()
	g := &Game{
		sim:           sim,
		painter:       render.NewGridPainter(size.W, size.H),
		overlay:       ui.NewOverlay(sim, cfg.Scale),
		hud:           ui.NewHUD(sim, cfg.HUDWidth),
		palette:       []color.RGBA{{A: 255}, {R: 255, G: 255, B: 255, A: 255}},
		scale:         cfg.Scale,
		stepsPerFrame: cfg.StepsPerFrame,
		seed:          cfg.Seed,
	}
	if p, ok := sim.(core.PaletteProvider); ok {
		g.palette = p.Palette()
	}
	if g.stepsPerFrame <= 0 {
		g.stepsPerFrame = 1
	}
	return g
}

// Reset reinitializes the simulation state with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.tickOnce = false
	g.stalled = false
}

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.paused = false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyUp) && g.stepsPerFrame < maxStepsPerFrame {
		g.stepsPerFrame *= 2
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDown) && g.stepsPerFrame > 1 {
		g.stepsPerFrame /= 2
	}

	if g.overlay != nil {
		g.overlay.Update()
	}
	if g.hud != nil {
		g.hud.Update()
		g.hud.SetStatus(g.stepsPerFrame, g.paused, g.stalled)
		// A rate change may have made events possible again.
		if g.hud.Changed() {
			g.stalled = false
		}
	}

	if g.stalled {
		return nil
	}
	if !g.paused {
		g.advance(g.stepsPerFrame)
	} else if g.tickOnce {
		g.advance(1)
	}
	g.tickOnce = false
	return nil
}

func (g *Game) advance(n int) {
	for i := 0; i < n; i++ {
		if err := g.sim.Step(); err != nil {
			g.stalled = true
			log.Printf("%s: %v", g.sim.Name(), err)
			return
		}
	}
}

// Draw renders the current simulation state.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.sim.Cells(), g.palette, g.scale)
	if g.overlay != nil {
		g.overlay.Draw(screen)
	}
	if g.hud != nil {
		s := g.sim.Size()
		g.hud.Draw(screen, s.W*g.scale, s.H*g.scale)
	}
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	w := s.W * g.scale
	if g.hud != nil {
		w += g.hud.Width()
	}
	return w, s.H * g.scale
}
