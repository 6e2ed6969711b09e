//go:build ebiten

package ui

import (
	"image/color"

	"rps-kmc/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	historyLen   = 512
	barHeight    = 6
	plotHeight   = 80
	plotMargin   = 8
	sampleStride = 2
)

// Overlay draws population summaries on top of the lattice.
type Overlay struct {
	sim      core.Sim
	scale    int
	palette  []color.RGBA
	showBar  bool
	showPlot bool
	history  *History
	frame    int
	latest   []float64
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	if scale <= 0 {
		scale = 1
	}
	o := &Overlay{sim: sim, scale: scale, showBar: true, history: NewHistory(historyLen)}
	if p, ok := sim.(core.PaletteProvider); ok {
		o.palette = p.Palette()
	}
	return o
}

// Update toggles the overlays and samples the population every few frames.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showBar = !o.showBar
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showPlot = !o.showPlot
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		o.history.Clear()
	}
	if len(o.palette) == 0 {
		return
	}
	o.frame++
	if o.frame%sampleStride != 0 && o.latest != nil {
		return
	}
	o.latest = Fractions(o.sim.Cells(), len(o.palette))
	o.history.Add(o.latest)
}

// Draw renders the overlay onto the provided screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	if len(o.palette) == 0 || o.latest == nil {
		return
	}
	size := o.sim.Size()
	w := float32(size.W * o.scale)
	h := float32(size.H * o.scale)
	if o.showBar {
		o.drawBar(screen, w, h)
	}
	if o.showPlot {
		o.drawPlot(screen, w, h)
	}
}

func (o *Overlay) drawBar(screen *ebiten.Image, w, h float32) {
	x := float32(0)
	for i, f := range o.latest {
		seg := w * float32(f)
		vector.DrawFilledRect(screen, x, h-barHeight, seg, barHeight, o.color(i), false)
		x += seg
	}
}

func (o *Overlay) drawPlot(screen *ebiten.Image, w, h float32) {
	n := o.history.Len()
	if n < 2 {
		return
	}
	top := h - barHeight - plotMargin - plotHeight
	if top < 0 {
		top = 0
	}
	vector.DrawFilledRect(screen, 0, top, w, plotHeight, color.RGBA{A: 160}, false)
	dx := w / float32(historyLen-1)
	for k := range o.palette {
		prev := o.history.At(0)
		for i := 1; i < n; i++ {
			cur := o.history.At(i)
			x0 := float32(i-1) * dx
			x1 := float32(i) * dx
			y0 := top + plotHeight*(1-float32(prev[k]))
			y1 := top + plotHeight*(1-float32(cur[k]))
			vector.StrokeLine(screen, x0, y0, x1, y1, 1, o.color(k), false)
			prev = cur
		}
	}
}

// color maps a value to its palette entry, lifting black so vacancies stay
// visible on the dark plot background.
func (o *Overlay) color(i int) color.RGBA {
	c := o.palette[i]
	if c.R == 0 && c.G == 0 && c.B == 0 {
		return color.RGBA{R: 128, G: 128, B: 128, A: 255}
	}
	return c
}
