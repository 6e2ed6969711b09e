package server

import (
	"encoding/binary"
	"errors"
	"math"
)

// Binary lattice frames sent over the websocket:
//
//	[0]      frameTag
//	[1:5]    side length, little endian uint32
//	[5:13]   simulation time, float64 bits
//	[13:21]  total rate, float64 bits
//	[21:]    side*side species codes, row major
const (
	frameTag        = 'L'
	frameHeaderSize = 21
)

var errShortFrame = errors.New("server: frame too short")

// Frame is a decoded lattice frame.
type Frame struct {
	Side  int
	Time  float64
	Rate  float64
	Cells []uint8
}

func encodeFrame(side int, t, w float64, cells []uint8) []byte {
	buf := make([]byte, frameHeaderSize+len(cells))
	buf[0] = frameTag
	binary.LittleEndian.PutUint32(buf[1:5], uint32(side))
	binary.LittleEndian.PutUint64(buf[5:13], math.Float64bits(t))
	binary.LittleEndian.PutUint64(buf[13:21], math.Float64bits(w))
	copy(buf[frameHeaderSize:], cells)
	return buf
}

// DecodeFrame parses a binary frame produced by the broadcaster.
func DecodeFrame(buf []byte) (Frame, error) {
	if len(buf) < frameHeaderSize || buf[0] != frameTag {
		return Frame{}, errShortFrame
	}
	side := int(binary.LittleEndian.Uint32(buf[1:5]))
	if len(buf) < frameHeaderSize+side*side {
		return Frame{}, errShortFrame
	}
	return Frame{
		Side:  side,
		Time:  math.Float64frombits(binary.LittleEndian.Uint64(buf[5:13])),
		Rate:  math.Float64frombits(binary.LittleEndian.Uint64(buf[13:21])),
		Cells: buf[frameHeaderSize : frameHeaderSize+side*side],
	}, nil
}
