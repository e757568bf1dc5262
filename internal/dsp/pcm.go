package dsp

import (
	"encoding/binary"
	"math"
)

// BufferLimitBytes is one second of 16-bit mono PCM at 16 kHz:
// 2 bytes/sample * 16000 samples/sec.
const BufferLimitBytes = 2 * 16000

const (
	int16Max = math.MaxInt16
	int16Min = math.MinInt16
)

// FloatToPCM16 converts float audio in [-1, 1] to little-endian int16 PCM
// bytes via clip-and-scale: clip(f * 2^15, int16_min, int16_max).
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, f := range samples {
		scaled := float64(f) * 32768
		var v int16
		switch {
		case scaled >= int16Max:
			v = int16Max
		case scaled <= int16Min:
			v = int16Min
		default:
			v = int16(scaled)
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// PCMPacker accumulates float32 audio into int16 PCM bytes, emitting a chunk
// once at least BufferLimitBytes have accumulated. Queue-depth thresholds are
// observational only: the logging is done by the internal/queue FIFO the
// caller pushes each chunk onto, not by the packer.
type PCMPacker struct {
	pending []byte
}

// NewPCMPacker returns an empty packer.
func NewPCMPacker() *PCMPacker {
	return &PCMPacker{}
}

// Push appends samples to the pending buffer and returns a chunk (and true)
// once the buffer has reached BufferLimitBytes; otherwise it returns
// (nil, false) and keeps accumulating.
func (p *PCMPacker) Push(samples []float32) ([]byte, bool) {
	p.pending = append(p.pending, FloatToPCM16(samples)...)
	if len(p.pending) < BufferLimitBytes {
		return nil, false
	}
	chunk := p.pending
	p.pending = nil
	return chunk, true
}
