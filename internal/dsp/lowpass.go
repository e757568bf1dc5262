package dsp

import (
	"fmt"
	"math"
)

// LowpassFilter is a Hamming-window-designed FIR lowpass, applied as a
// direct-form filter (feedback coefficients a=[1]) to complex input.
// Coefficients are designed once, at construction, for a fixed input rate —
// mirroring the original pipeline's one-time initialize()-time design.
type LowpassFilter struct {
	taps []float64
}

// NewLowpassFilter designs a Hamming-window FIR with the given tap count and
// cutoff frequency (Hz) at the given sample rate (Hz).
func NewLowpassFilter(numTaps int, cutoffHz, sampleRateHz float64) (*LowpassFilter, error) {
	if numTaps <= 0 {
		return nil, fmt.Errorf("dsp: numtaps must be positive, got %d", numTaps)
	}
	if cutoffHz <= 0 || cutoffHz >= sampleRateHz/2 {
		return nil, fmt.Errorf("dsp: cutoff %f must be in (0, fs/2=%f)", cutoffHz, sampleRateHz/2)
	}
	return &LowpassFilter{taps: firwinHamming(numTaps, cutoffHz, sampleRateHz)}, nil
}

// firwinHamming designs a linear-phase lowpass FIR using the windowed-sinc
// method with a Hamming window, matching scipy/cusignal's firwin(numtaps,
// cutoff=cutoff, window="hamming", fs=fs).
func firwinHamming(numTaps int, cutoffHz, sampleRateHz float64) []float64 {
	fc := cutoffHz / (sampleRateHz / 2) // normalized to Nyquist = 1.0
	taps := make([]float64, numTaps)
	m := float64(numTaps - 1)

	var sum float64
	for n := 0; n < numTaps; n++ {
		k := float64(n) - m/2
		var sinc float64
		if k == 0 {
			sinc = fc
		} else {
			sinc = math.Sin(math.Pi*fc*k) / (math.Pi * k)
		}
		window := 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/m)
		taps[n] = sinc * window
		sum += taps[n]
	}

	// Normalize for unity DC gain, as scipy.signal.firwin does by default.
	for n := range taps {
		taps[n] /= sum
	}
	return taps
}

// Apply runs the FIR across x (direct form, a=[1]), returning a same-length
// complex64 output with the standard lfilter zero-initial-condition
// transient at the start.
func (f *LowpassFilter) Apply(x []complex64) []complex64 {
	out := make([]complex64, len(x))
	n := len(f.taps)
	for i := range x {
		var acc complex128
		for k := 0; k < n; k++ {
			if i-k < 0 {
				break
			}
			acc += complex128(x[i-k]) * complex(f.taps[k], 0)
		}
		out[i] = complex64(acc)
	}
	return out
}
