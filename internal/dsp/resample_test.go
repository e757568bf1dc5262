package dsp

import "testing"

func TestReduceFractionFsInGreaterThanFsOut(t *testing.T) {
	up, down, err := ReduceFraction(1_000_000, 16000, 1)
	if err != nil {
		t.Fatalf("ReduceFraction() error = %v", err)
	}
	if up != 1 {
		t.Errorf("up = %d, want 1", up)
	}
	wantDown := 63 // round(1_000_000/16_000)
	if down != wantDown {
		t.Errorf("down = %d, want %d", down, wantDown)
	}
}

func TestReduceFractionFsOutGreaterThanFsIn(t *testing.T) {
	// fs_small=8000, fs_large=16000 (e.g. fs_out > fs_in)
	up, down, err := ReduceFraction(16000, 8000, 1)
	if err != nil {
		t.Fatalf("ReduceFraction() error = %v", err)
	}
	if up != 1 || down != 2 {
		t.Errorf("(up, down) = (%d, %d), want (1, 2)", up, down)
	}
}

func TestReduceFractionRejectsOverCap(t *testing.T) {
	if _, _, err := ReduceFraction(20_000_000, 16000, 1); err == nil {
		t.Error("ReduceFraction() expected error above 10MHz cap, got nil")
	}
}

func TestResamplerIdentityBypass(t *testing.T) {
	r := NewResampler(16000, 1.0)
	if err := r.SetInputRate(16000); err != nil {
		t.Fatalf("SetInputRate() error = %v", err)
	}
	in := []float32{0.1, 0.2, -0.3, 0.4}
	out := r.Resample(in)
	if len(out) != len(in) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %f, want %f (identity)", i, out[i], in[i])
		}
	}
}

func TestResamplerAppliesGain(t *testing.T) {
	r := NewResampler(16000, 2.0)
	if err := r.SetInputRate(16000); err != nil {
		t.Fatalf("SetInputRate() error = %v", err)
	}
	out := r.Resample([]float32{0.25})
	if out[0] != 0.5 {
		t.Errorf("out[0] = %f, want 0.5", out[0])
	}
}

func TestResamplerDownsamplesRate(t *testing.T) {
	r := NewResampler(16000, 1.0)
	if err := r.SetInputRate(1_000_000); err != nil {
		t.Fatalf("SetInputRate() error = %v", err)
	}
	in := make([]float32, 63*20)
	for i := range in {
		in[i] = 1.0
	}
	out := r.Resample(in)
	wantLen := len(in) / 63
	if len(out) != wantLen {
		t.Errorf("len(out) = %d, want %d", len(out), wantLen)
	}
}

func TestOutputSampleRate(t *testing.T) {
	r := NewResampler(16000, 1.0)
	if r.OutputSampleRate() != 16000 {
		t.Errorf("OutputSampleRate() = %f, want 16000", r.OutputSampleRate())
	}
}
