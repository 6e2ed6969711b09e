// Package export writes lattice snapshots: PPM and PNG images, the text
// format read back by rps.ReadText, MJPEG video and population charts.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"rps-kmc/internal/sims/rps"
)

// Snapshot is the read-only view of an engine the exporters consume. It must
// not change while an export is running.
type Snapshot interface {
	Side() int
	At(row, col int) rps.Species
	Time() float64
	Counts() [4]int
}

// Cells flattens a snapshot into row-major species codes.
func Cells(s Snapshot) []uint8 {
	l := s.Side()
	cells := make([]uint8, l*l)
	for row := 0; row < l; row++ {
		for col := 0; col < l; col++ {
			cells[row*l+col] = uint8(s.At(row, col))
		}
	}
	return cells
}

// FrameName returns the zero-padded file name of frame n.
func FrameName(n int, ext string) string {
	return fmt.Sprintf("%05d.%s", n, ext)
}

// FinalStateName is the conventional file name for the last state of a run.
func FinalStateName(side int, mobility float64) string {
	return fmt.Sprintf("saved_state_L_%d_M_%fe-6.txt", side, mobility*1e6)
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: create %s: %w", dir, err)
		}
	}
	return nil
}

func createFile(path string) (*os.File, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return f, nil
}

func saveWith(path string, write func(f *os.File) error) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	return nil
}
