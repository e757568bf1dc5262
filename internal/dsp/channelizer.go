// Package dsp implements the per-tick signal processing chain: the
// frequency-shift channelizer and, per channel, a Hamming FIR lowpass
// filter, FM demodulator, polyphase resampler, and float-to-PCM packer.
//
// These are pure, allocation-light transforms operated on by the graph in
// internal/pipeline; none of them touch the network or ASR transport.
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/cmplxs"
)

// Channelizer frequency-shifts a wideband complex baseband signal into N
// narrowband columns centered symmetrically around DC. The shift table is
// cached and grown (never shrunk) across ticks, mirroring the original
// pipeline's grow-but-never-shrink treatment of GPU-resident buffers.
type Channelizer struct {
	numChannels    int
	channelSpacing float64

	sampleRate float64
	shifts     [][]complex64 // shifts[k] is the length-len(shifts[k]) exponential for channel k
}

// NewChannelizer builds a Channelizer for the given channel count and
// spacing. Both must be positive.
func NewChannelizer(numChannels int, channelSpacing float64) (*Channelizer, error) {
	if numChannels <= 0 {
		return nil, fmt.Errorf("dsp: num_channels must be positive, got %d", numChannels)
	}
	if channelSpacing <= 0 {
		return nil, fmt.Errorf("dsp: channel_spacing must be positive, got %f", channelSpacing)
	}
	return &Channelizer{numChannels: numChannels, channelSpacing: channelSpacing}, nil
}

// ChannelOffsetHz returns the frequency offset in Hz assigned to channel k,
// using the symmetric (k - (N-1)/2) * spacing formula that is authoritative
// for this core regardless of how any upstream producer generates offsets.
func (c *Channelizer) ChannelOffsetHz(k int) float64 {
	return (float64(k) - float64(c.numChannels-1)/2) * c.channelSpacing
}

// NumChannels reports the configured channel count.
func (c *Channelizer) NumChannels() int { return c.numChannels }

// ensureShifts (re)computes the per-channel exponential shift tables when the
// input sample rate changed or the cached tables are shorter than the
// current frame.
func (c *Channelizer) ensureShifts(sampleRate float64, signalLen int) {
	if c.sampleRate == sampleRate && c.shifts != nil && len(c.shifts[0]) >= signalLen {
		return
	}
	c.sampleRate = sampleRate
	dt := 1.0 / sampleRate

	tableLen := signalLen
	if c.shifts != nil && len(c.shifts[0]) > tableLen {
		tableLen = len(c.shifts[0])
	}

	shifts := make([][]complex64, c.numChannels)
	for k := 0; k < c.numChannels; k++ {
		freqOffset := c.ChannelOffsetHz(k)
		col := make([]complex64, tableLen)
		for n := 0; n < tableLen; n++ {
			t := float64(n) * dt
			col[n] = complex64(cmplx.Exp(complex(0, -2*math.Pi*freqOffset*t)))
		}
		shifts[k] = col
	}
	c.shifts = shifts
}

// Channelize multiplies the input signal by each channel's frequency-shift
// exponential, returning num_channels columns of length len(signal). Output
// column k satisfies O[:,k] == input * exp(-j*2*pi*f_k*n/fs).
func (c *Channelizer) Channelize(signal []complex64, sampleRate float64) [][]complex64 {
	c.ensureShifts(sampleRate, len(signal))

	out := make([][]complex64, c.numChannels)
	for k := 0; k < c.numChannels; k++ {
		col := make([]complex64, len(signal))
		shiftCol := c.shifts[k][:len(signal)]
		complexMul(col, signal, shiftCol)
		out[k] = col
	}
	return out
}

// complexMul computes dst[i] = a[i] * b[i] using gonum's cmplxs on a
// float64-backed scratch buffer since cmplxs operates on complex128.
// Bulk multiply is delegated to cmplxs.Mul where a and b are the same
// length as dst; this is the one piece of the channelizer that is not a
// hand-rolled loop.
func complexMul(dst, a, b []complex64) {
	wide := make([]complex128, len(a))
	bWide := make([]complex128, len(b))
	for i := range a {
		wide[i] = complex128(a[i])
		bWide[i] = complex128(b[i])
	}
	cmplxs.Mul(wide, bWide)
	for i := range dst {
		dst[i] = complex64(wide[i])
	}
}
