package export

import (
	"image"
	"image/png"
	"io"
	"os"

	"rps-kmc/internal/render"
	"rps-kmc/internal/sims/rps"
)

// Image rasterizes s with every site drawn as a scale x scale block.
func Image(s Snapshot, scale int) *image.RGBA {
	l := s.Side()
	return render.Rasterize(Cells(s), l, l, rps.Palette(), scale)
}

// WritePNG encodes s as a PNG image.
func WritePNG(w io.Writer, s Snapshot, scale int) error {
	return png.Encode(w, Image(s, scale))
}

// SavePNG writes s to path as a PNG image.
func SavePNG(path string, s Snapshot, scale int) error {
	return saveWith(path, func(f *os.File) error { return WritePNG(f, s, scale) })
}
