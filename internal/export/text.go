package export

import (
	"bufio"
	"io"
	"os"
	"strconv"
)

// WriteText writes one line per lattice row with space separated species
// codes. rps.ReadText parses the result back.
func WriteText(w io.Writer, s Snapshot) error {
	bw := bufio.NewWriter(w)
	l := s.Side()
	for row := 0; row < l; row++ {
		for col := 0; col < l; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.Itoa(int(s.At(row, col))))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// SaveText writes s to path in the text format.
func SaveText(path string, s Snapshot) error {
	return saveWith(path, func(f *os.File) error { return WriteText(f, s) })
}
