// Package stream wires the concrete operators — ingest, channelize, and the
// per-channel filter/demod/resample/pack chain — into pipeline.Operator
// implementations the scheduler can drive. It is the glue between the pure
// internal/dsp transforms, internal/ingest's network layer, and the
// internal/pipeline graph/scheduler.
package stream

import (
	"context"

	"github.com/sdrpipeline/sdrstream/internal/dsp"
	"github.com/sdrpipeline/sdrstream/internal/ingest"
	"github.com/sdrpipeline/sdrstream/internal/logging"
	"github.com/sdrpipeline/sdrstream/internal/queue"
)

// IngestOperator reads one burst off the network receiver, reinterprets it
// as complex baseband samples, channelizes it into N columns, and fans each
// column out to that channel's ChannelOperator over an unbounded Queue. It
// is the "+1" worker in the N+1 worker model: ingest/format/channelize run
// as a single compute step regardless of channel count.
type IngestOperator struct {
	receiver    *ingest.NetworkReceiver
	formatter   *ingest.Formatter
	channelizer *dsp.Channelizer
	outputs     []*queue.Queue[[]complex64]
	logger      logging.Logger
}

// NewIngestOperator builds an IngestOperator. outputs must have exactly
// channelizer.NumChannels() entries, one per channel's input queue.
func NewIngestOperator(
	receiver *ingest.NetworkReceiver,
	formatter *ingest.Formatter,
	channelizer *dsp.Channelizer,
	outputs []*queue.Queue[[]complex64],
	logger logging.Logger,
) *IngestOperator {
	return &IngestOperator{
		receiver:    receiver,
		formatter:   formatter,
		channelizer: channelizer,
		outputs:     outputs,
		logger:      logger,
	}
}

func (o *IngestOperator) Name() string      { return "ingest" }
func (o *IngestOperator) Setup() error      { return nil }
func (o *IngestOperator) Initialize() error { return nil }

// Compute drains one burst, channelizes it, and fans the result out. Each
// channel's input Queue grows without bound under backpressure, surfacing
// depth only through Queue.Push's threshold logging, matching
// operators.py's shared-buffer backpressure heuristic: a channel running
// behind falls further behind rather than losing samples.
func (o *IngestOperator) Compute(ctx context.Context) (bool, error) {
	burst, ok := o.receiver.Receive()
	if !ok {
		return false, nil
	}

	frame, err := o.formatter.Format(burst)
	if err != nil {
		return false, err
	}

	columns := o.channelizer.Channelize(frame.Samples, frame.SampleRateHz)
	for k, col := range columns {
		o.outputs[k].Push(col)
	}
	return true, nil
}

// ChannelOperator runs one channel's filter -> demod -> resample -> PCM pack
// chain. Each channel is its own worker-shard candidate, matching the "N"
// half of the N+1 worker model.
type ChannelOperator struct {
	channelID int
	sampleIn  float64

	lowpass   *dsp.LowpassFilter
	demod     *dsp.FMDemodulator
	resampler *dsp.Resampler
	packer    *dsp.PCMPacker

	input  *queue.Queue[[]complex64]
	output *queue.Queue[[]byte]
	logger logging.Logger
}

// NewChannelOperator builds the per-channel DSP chain operator.
func NewChannelOperator(
	channelID int,
	sampleIn float64,
	lowpass *dsp.LowpassFilter,
	demod *dsp.FMDemodulator,
	resampler *dsp.Resampler,
	input *queue.Queue[[]complex64],
	output *queue.Queue[[]byte],
	logger logging.Logger,
) *ChannelOperator {
	return &ChannelOperator{
		channelID: channelID,
		sampleIn:  sampleIn,
		lowpass:   lowpass,
		demod:     demod,
		resampler: resampler,
		packer:    dsp.NewPCMPacker(),
		input:     input,
		output:    output,
		logger:    logger,
	}
}

func (o *ChannelOperator) Name() string { return "channel" }
func (o *ChannelOperator) Setup() error { return nil }

func (o *ChannelOperator) Initialize() error {
	return o.resampler.SetInputRate(o.sampleIn)
}

// Compute pulls one frame off the channel's input queue and runs it through
// the full chain. It never blocks waiting for input: an empty queue is a
// legitimate idle tick. The PCM output queue grows without bound rather
// than dropping a finished chunk, the same backpressure contract as the
// IQ input queue.
func (o *ChannelOperator) Compute(ctx context.Context) (bool, error) {
	col, ok := o.input.TryPop()
	if !ok {
		return false, nil
	}

	filtered := o.lowpass.Apply(col)
	demodulated, err := o.demod.Demodulate(filtered)
	if err != nil {
		return false, err
	}
	resampled := o.resampler.Resample(demodulated)
	if chunk, ready := o.packer.Push(resampled); ready {
		o.output.Push(chunk)
	}
	return true, nil
}
