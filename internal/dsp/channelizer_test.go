package dsp

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestChannelizerOffsetsSymmetric(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want []float64
	}{
		{"odd count centered on zero", 3, []float64{-200000, 0, 200000}},
		{"even count straddles zero", 4, []float64{-300000, -100000, 100000, 300000}},
		{"single channel", 1, []float64{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewChannelizer(tt.n, 200000)
			if err != nil {
				t.Fatalf("NewChannelizer() error = %v", err)
			}
			for k, want := range tt.want {
				if got := c.ChannelOffsetHz(k); math.Abs(got-want) > 1e-6 {
					t.Errorf("ChannelOffsetHz(%d) = %f, want %f", k, got, want)
				}
			}
		})
	}
}

func TestChannelizeMatchesShiftFormula(t *testing.T) {
	const fs = 1_000_000.0
	c, err := NewChannelizer(3, 200000)
	if err != nil {
		t.Fatalf("NewChannelizer() error = %v", err)
	}

	signal := make([]complex64, 256)
	for i := range signal {
		signal[i] = complex64(complex(1, 0))
	}

	out := c.Channelize(signal, fs)
	if len(out) != 3 {
		t.Fatalf("Channelize() returned %d columns, want 3", len(out))
	}

	for k, col := range out {
		fk := c.ChannelOffsetHz(k)
		for n, v := range col {
			t := float64(n) / fs
			want := cmplx.Exp(complex(0, -2*math.Pi*fk*t))
			if cmplx.Abs(complex128(v)-want) > 1e-3 {
				t.Fatalf("channel %d sample %d = %v, want %v", k, n, v, want)
			}
		}
	}
}

func TestChannelizeRejectsInvalidConfig(t *testing.T) {
	if _, err := NewChannelizer(0, 200000); err == nil {
		t.Error("NewChannelizer(0, ...) expected error, got nil")
	}
	if _, err := NewChannelizer(3, 0); err == nil {
		t.Error("NewChannelizer(3, 0) expected error, got nil")
	}
}

func TestChannelizeGrowsSharedShiftTable(t *testing.T) {
	c, err := NewChannelizer(2, 100000)
	if err != nil {
		t.Fatalf("NewChannelizer() error = %v", err)
	}
	short := make([]complex64, 10)
	for i := range short {
		short[i] = 1
	}
	_ = c.Channelize(short, 1_000_000)
	if len(c.shifts[0]) < 10 {
		t.Fatalf("shift table length = %d, want >= 10", len(c.shifts[0]))
	}

	longer := make([]complex64, 50)
	for i := range longer {
		longer[i] = 1
	}
	_ = c.Channelize(longer, 1_000_000)
	if len(c.shifts[0]) < 50 {
		t.Fatalf("shift table did not grow: length = %d, want >= 50", len(c.shifts[0]))
	}
}
