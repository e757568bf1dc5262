package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
)

// FMDemodulator recovers the message signal from a complex baseband FM
// signal as the discrete-time derivative of the unwrapped carrier phase.
type FMDemodulator struct{}

// NewFMDemodulator returns a stateless FM demodulator. It carries no
// configuration: the unwrap-and-difference formula has no tunable
// parameters.
func NewFMDemodulator() *FMDemodulator {
	return &FMDemodulator{}
}

// Demodulate computes y[n] = unwrap(angle(x))[n+1] - unwrap(angle(x))[n],
// so len(y) == len(x)-1. x is complex by type ([]complex64), so no runtime
// complex-input check is made; input shorter than 2 samples is rejected.
func (d *FMDemodulator) Demodulate(x []complex64) ([]float32, error) {
	if len(x) < 2 {
		return nil, fmt.Errorf("dsp: fm demod requires at least 2 samples, got %d", len(x))
	}
	angles := make([]float64, len(x))
	for i, v := range x {
		angles[i] = cmplx.Phase(complex128(v))
	}
	unwrap(angles)

	y := make([]float32, len(x)-1)
	for i := 0; i < len(y); i++ {
		y[i] = float32(angles[i+1] - angles[i])
	}
	return y, nil
}

// unwrap corrects for phase jumps greater than pi by adding/subtracting
// multiples of 2*pi, in place, matching numpy.unwrap's default discontinuity
// threshold.
func unwrap(phase []float64) {
	for i := 1; i < len(phase); i++ {
		delta := phase[i] - phase[i-1]
		for delta > math.Pi {
			phase[i] -= 2 * math.Pi
			delta = phase[i] - phase[i-1]
		}
		for delta < -math.Pi {
			phase[i] += 2 * math.Pi
			delta = phase[i] - phase[i-1]
		}
	}
}
