package ingest

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/sdrpipeline/sdrstream/internal/logging"
)

// IQFrame is the wideband complex baseband signal at the configured input
// sample rate, reinterpreted from a Burst's raw bytes.
type IQFrame struct {
	Samples      []complex64
	SampleRateHz float64
}

// Formatter reinterprets burst payloads as interleaved float32 I/Q samples
// and logs ingest bandwidth periodically.
type Formatter struct {
	sampleRateIn float64
	logPeriod    time.Duration
	logger       logging.Logger

	bytesSent    int64
	prevLogTime  time.Time
	haveLogTime  bool
}

// NewFormatter builds a Formatter tagging every frame with sampleRateIn and
// logging ingest bandwidth every logPeriod.
func NewFormatter(sampleRateIn float64, logPeriod time.Duration, logger logging.Logger) *Formatter {
	return &Formatter{sampleRateIn: sampleRateIn, logPeriod: logPeriod, logger: logger}
}

// Format reinterprets burst.Payload (little-endian interleaved float32 I/Q)
// as a complex64 IQFrame and records the byte count for bandwidth logging.
func (f *Formatter) Format(burst *Burst) (*IQFrame, error) {
	if len(burst.Payload)%8 != 0 {
		return nil, fmt.Errorf("ingest: burst payload length %d is not a multiple of 8 (complex64)", len(burst.Payload))
	}

	n := len(burst.Payload) / 8
	samples := make([]complex64, n)
	for i := 0; i < n; i++ {
		off := i * 8
		re := math.Float32frombits(binary.LittleEndian.Uint32(burst.Payload[off:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(burst.Payload[off+4:]))
		samples[i] = complex(re, im)
	}

	f.logBandwidth(len(burst.Payload))
	return &IQFrame{Samples: samples, SampleRateHz: f.sampleRateIn}, nil
}

// logBandwidth emits an ingest-bandwidth log every log_period seconds, per
// §4.2's periodic logging requirement.
func (f *Formatter) logBandwidth(n int) {
	f.bytesSent += int64(n)
	now := time.Now()
	if !f.haveLogTime {
		f.prevLogTime = now
		f.haveLogTime = true
		return
	}

	dt := now.Sub(f.prevLogTime)
	if dt > f.logPeriod {
		mbPerSec := float64(f.bytesSent) / dt.Seconds() / 1e6
		f.logger.Infof("ingest bandwidth %.2f MB/s", mbPerSec)
		f.bytesSent = 0
		f.prevLogTime = now
	}
}
