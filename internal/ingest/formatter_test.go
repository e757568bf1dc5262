package ingest

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/sdrpipeline/sdrstream/internal/logging"
)

func newTestFormatterLogger(t *testing.T) logging.Logger {
	t.Helper()
	l, err := logging.New()
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}
	return l
}

func encodeComplex64(t *testing.T, vals ...complex64) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, v := range vals {
		_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(real(v)))
		_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(imag(v)))
	}
	return buf.Bytes()
}

func TestFormatReinterpretsComplex64(t *testing.T) {
	f := NewFormatter(1_000_000, time.Second, newTestFormatterLogger(t))
	payload := encodeComplex64(t, complex(0.5, -0.25), complex(-1, 1))
	burst := &Burst{Payload: payload}

	frame, err := f.Format(burst)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if len(frame.Samples) != 2 {
		t.Fatalf("len(Samples) = %d, want 2", len(frame.Samples))
	}
	if frame.Samples[0] != complex(0.5, -0.25) {
		t.Errorf("Samples[0] = %v, want (0.5-0.25i)", frame.Samples[0])
	}
	if frame.SampleRateHz != 1_000_000 {
		t.Errorf("SampleRateHz = %f, want 1000000", frame.SampleRateHz)
	}
}

func TestFormatRejectsMisalignedPayload(t *testing.T) {
	f := NewFormatter(1_000_000, time.Second, newTestFormatterLogger(t))
	if _, err := f.Format(&Burst{Payload: []byte{1, 2, 3}}); err == nil {
		t.Error("Format() expected error for misaligned payload, got nil")
	}
}
