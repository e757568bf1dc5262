package dsp

import (
	"fmt"
	"math"
)

const maxResampleFreqHz = 10_000_000 // 10 MHz

// ReduceFraction mirrors the source's reduce_fraction(numerator, denominator,
// max_up): it caps the achievable rate at maxResampleFreqHz and returns an
// (up, down) pair with up pinned to maxUp. It is a direct port of a
// deliberately simple (and, per spec.md's open questions, not necessarily
// "correct" in the general rational-resampling sense) ratio reduction —
// preserved as-is rather than replaced with a GCD-based reduction.
func ReduceFraction(numerator, denominator float64, maxUp int) (up, down int, err error) {
	maxFreq := numerator * float64(maxUp)
	if maxFreq > maxResampleFreqHz {
		return 0, 0, fmt.Errorf("dsp: max_freq %.0f exceeds %.0f Hz cap", maxFreq, float64(maxResampleFreqHz))
	}
	return maxUp, int(math.Round(maxFreq / denominator)), nil
}

// Resampler is a polyphase rational resampler with a Hamming-window
// anti-alias filter. The (up, down) ratio is recomputed whenever the
// upstream sample rate changes.
type Resampler struct {
	sampleRateOut float64
	gain          float64

	sampleRateIn float64
	up, down     int
	filter       []float64
}

// NewResampler constructs a resampler targeting sampleRateOut with the given
// output gain.
func NewResampler(sampleRateOut, gain float64) *Resampler {
	return &Resampler{sampleRateOut: sampleRateOut, gain: gain}
}

// SetInputRate recomputes the up/down ratio for a new input sample rate. It
// is a no-op if the input rate has not changed.
func (r *Resampler) SetInputRate(sampleRateIn float64) error {
	if r.sampleRateIn == sampleRateIn && r.filter != nil {
		return nil
	}
	r.sampleRateIn = sampleRateIn

	fsSmall := math.Min(sampleRateIn, r.sampleRateOut)
	fsLarge := math.Max(sampleRateIn, r.sampleRateOut)
	up, down, err := ReduceFraction(fsLarge, fsSmall, 1)
	if err != nil {
		return err
	}
	if sampleRateIn < r.sampleRateOut {
		// Upsampling: the reduced ratio is fs_large/fs_small, so swap it.
		up, down = down, up
	}
	r.up, r.down = up, down

	if up != down {
		factor := math.Max(float64(up), float64(down))
		cutoff := 0.5 / factor // normalized to the upsampled rate's Nyquist
		r.filter = firwinHamming(hammingNumTaps(up, down), cutoff*2, 2)
	}
	return nil
}

// hammingNumTaps picks a conservative anti-alias filter length proportional
// to the larger of the two resample factors, consistent with resample_poly's
// default window sizing.
func hammingNumTaps(up, down int) int {
	factor := up
	if down > factor {
		factor = down
	}
	taps := 2*10*factor + 1
	if taps%2 == 0 {
		taps++
	}
	return taps
}

// Resample applies the polyphase resample (identity bypass when up==down)
// and scales by gain. The returned sample rate is always sampleRateOut.
func (r *Resampler) Resample(x []float32) []float32 {
	if r.up == r.down {
		out := make([]float32, len(x))
		for i, v := range x {
			out[i] = v * float32(r.gain)
		}
		return out
	}

	upsampled := make([]float64, len(x)*r.up)
	for i, v := range x {
		upsampled[i*r.up] = float64(v)
	}

	filtered := make([]float64, len(upsampled))
	n := len(r.filter)
	for i := range upsampled {
		var acc float64
		for k := 0; k < n; k++ {
			if i-k < 0 {
				break
			}
			acc += upsampled[i-k] * r.filter[k]
		}
		filtered[i] = acc * float64(r.up) // compensate for zero-stuffing energy loss
	}

	outLen := len(filtered) / r.down
	out := make([]float32, outLen)
	for i := 0; i < outLen; i++ {
		out[i] = float32(filtered[i*r.down] * r.gain)
	}
	return out
}

// OutputSampleRate reports the resampler's configured target rate.
func (r *Resampler) OutputSampleRate() float64 { return r.sampleRateOut }
