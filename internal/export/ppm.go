package export

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"rps-kmc/internal/sims/rps"
)

// WritePPM writes s as a plain (P3) PPM image with one pixel per site.
func WritePPM(w io.Writer, s Snapshot) error {
	bw := bufio.NewWriter(w)
	l := s.Side()
	fmt.Fprintf(bw, "P3\n%d %d\n255\n", l, l)
	for row := 0; row < l; row++ {
		for col := 0; col < l; col++ {
			c := rps.Color(s.At(row, col))
			fmt.Fprintf(bw, "%d %d %d\n", c.R, c.G, c.B)
		}
	}
	return bw.Flush()
}

// SavePPM writes s to path, creating parent directories as needed.
func SavePPM(path string, s Snapshot) error {
	return saveWith(path, func(f *os.File) error { return WritePPM(f, s) })
}
