package rps

import "image/color"

var rpsPalette = []color.RGBA{
	KindA: {R: 255, G: 0, B: 0, A: 255},
	KindB: {R: 0, G: 0, B: 255, A: 255},
	KindC: {R: 255, G: 255, B: 0, A: 255},
	Empty: {R: 0, G: 0, B: 0, A: 255},
}

// Palette exposes the color of each species code.
func (e *Engine) Palette() []color.RGBA {
	return rpsPalette
}

// Palette returns the colors indexed by species code. Callers must not
// modify the slice.
func Palette() []color.RGBA { return rpsPalette }

// Color returns the rendering color of s. Unknown codes render as empty.
func Color(s Species) color.RGBA {
	if !s.Valid() {
		return rpsPalette[Empty]
	}
	return rpsPalette[s]
}
