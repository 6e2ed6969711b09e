package export

import (
	"fmt"
	"path/filepath"
)

// Format selects the image encoding of a FrameWriter.
type Format string

const (
	FormatPPM Format = "ppm"
	FormatPNG Format = "png"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(name); f {
	case FormatPPM, FormatPNG:
		return f, nil
	}
	return "", fmt.Errorf("export: unknown image format %q", name)
}

// FrameWriter saves every frame it receives as a numbered image in Dir.
type FrameWriter struct {
	Dir    string
	Format Format
	// Scale applies to PNG output only; PPM is always one pixel per site.
	Scale int
}

// Path returns the file that frame n is written to.
func (fw *FrameWriter) Path(n int) string {
	format := fw.Format
	if format == "" {
		format = FormatPPM
	}
	return filepath.Join(fw.Dir, FrameName(n, string(format)))
}

// Frame implements run.Sink.
func (fw *FrameWriter) Frame(n int, s Snapshot) error {
	path := fw.Path(n)
	if fw.Format == FormatPNG {
		return SavePNG(path, s, fw.Scale)
	}
	return SavePPM(path, s)
}
