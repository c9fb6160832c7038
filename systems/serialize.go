package systems

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/partsim/components"
)

// ErrShortBuffer is returned when the destination cannot hold every position.
var ErrShortBuffer = errors.New("destination buffer too small")

// PositionBytes is the encoded size of one position: two little-endian float32.
const PositionBytes = 8

// BufferSize returns the number of bytes Write needs for the full population.
func (w *World) BufferSize() int {
	return w.objects * PositionBytes
}

// Write packs the live positions of the current buffer into dst as
// little-endian float32 x,y pairs: cells in index order, then overflow.
// Velocities are not written. Returns the number of bytes written.
func (w *World) Write(dst []byte) (int, error) {
	need := w.store.Live() * PositionBytes
	if len(dst) < need {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, need, len(dst))
	}

	off := 0
	cells := w.store.current().cells
	for k := range cells {
		off = putFloats(dst, off, cells[k].Positions())
	}
	off = putFloats(dst, off, w.store.overflowPos)
	return off, nil
}

func putFloats(dst []byte, off int, src []float32) int {
	for _, f := range src {
		binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(f))
		off += 4
	}
	return off
}

// WritePositions is the typed form of Write for in-process consumers.
// Returns the number of positions written.
func (w *World) WritePositions(dst []components.Position) (int, error) {
	need := w.store.Live()
	if len(dst) < need {
		return 0, fmt.Errorf("%w: need %d positions, have %d", ErrShortBuffer, need, len(dst))
	}

	n := 0
	cells := w.store.current().cells
	for k := range cells {
		pos := cells[k].Positions()
		for j := 0; j < len(pos); j += 2 {
			dst[n] = components.Position{X: pos[j], Y: pos[j+1]}
			n++
		}
	}
	pos := w.store.overflowPos
	for j := 0; j < len(pos); j += 2 {
		dst[n] = components.Position{X: pos[j], Y: pos[j+1]}
		n++
	}
	return n, nil
}

// DecodePositions reads positions written by Write back out of src.
// Returns the number decoded, bounded by both len(dst) and len(src).
func DecodePositions(src []byte, dst []components.Position) int {
	n := len(src) / PositionBytes
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		off := i * PositionBytes
		dst[i] = components.Position{
			X: math.Float32frombits(binary.LittleEndian.Uint32(src[off:])),
			Y: math.Float32frombits(binary.LittleEndian.Uint32(src[off+4:])),
		}
	}
	return n
}
