package asr

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/sdrpipeline/sdrstream/internal/logging"
)

// streamingRecognizeMethod names the bidirectional streaming RPC the
// recognizer exposes, mirroring the StreamingRecognize call riva_asr.py's
// RivaThread opens against the ASR service.
const streamingRecognizeMethod = "/nvidia.riva.asr.v1.RivaSpeechRecognition/StreamingRecognize"

// RecognitionConfig configures a streaming session: sample rate, language,
// punctuation, and verbatim transcripts (spec.md §3's RivaConfig). Interim
// results and max alternatives are not configurable here: OpenStream always
// requests interim results and a single alternative.
type RecognitionConfig struct {
	SampleRateHertz      int
	LanguageCode         string
	AutomaticPunctuation bool
	VerbatimTranscripts  bool
}

type recognitionConfigWire struct {
	SampleRateHertz      int    `json:"sample_rate_hertz"`
	LanguageCode         string `json:"language_code"`
	AutomaticPunctuation bool   `json:"automatic_punctuation"`
	VerbatimTranscripts  bool   `json:"verbatim_transcripts"`
	InterimResults       bool   `json:"interim_results"`
	MaxAlternatives      int    `json:"max_alternatives"`
}

type streamingRequest struct {
	Config       *recognitionConfigWire `json:"streaming_config,omitempty"`
	AudioContent []byte                 `json:"audio_content,omitempty"`
}

type recognitionAlternative struct {
	Transcript string `json:"transcript"`
}

type recognitionResult struct {
	Alternatives []recognitionAlternative `json:"alternatives"`
	IsFinal      bool                     `json:"is_final"`
}

type streamingResponse struct {
	Results []recognitionResult `json:"results"`
}

// Result is one decoded transcript event from the recognizer.
type Result struct {
	Transcript string
	IsFinal    bool
}

// Client is a streaming recognition session against one ASR endpoint.
type Client struct {
	conn   *grpc.ClientConn
	stream grpc.ClientStream
	logger logging.Logger
}

// Dial opens a connection to the ASR service. Worker dials a fresh
// connection for every session and closes it when the session ends.
func Dial(addr string, logger logging.Logger) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(jsonCodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("asr: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, logger: logger}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// OpenStream starts a new StreamingRecognize call and sends the initial
// config frame, the same request sequence RivaThread.run() builds: a single
// config message first, followed by a stream of audio_content messages.
func (c *Client) OpenStream(ctx context.Context, cfg RecognitionConfig) error {
	desc := &grpc.StreamDesc{StreamName: "StreamingRecognize", ServerStreams: true, ClientStreams: true}
	stream, err := c.conn.NewStream(ctx, desc, streamingRecognizeMethod)
	if err != nil {
		return fmt.Errorf("asr: open stream: %w", err)
	}
	c.stream = stream

	req := &streamingRequest{Config: &recognitionConfigWire{
		SampleRateHertz:      cfg.SampleRateHertz,
		LanguageCode:         cfg.LanguageCode,
		AutomaticPunctuation: cfg.AutomaticPunctuation,
		VerbatimTranscripts:  cfg.VerbatimTranscripts,
		InterimResults:       true,
		MaxAlternatives:      1,
	}}
	if err := stream.SendMsg(req); err != nil {
		return fmt.Errorf("asr: send config: %w", err)
	}
	return nil
}

// SendAudio pushes one chunk of 16-bit PCM audio into the open stream.
func (c *Client) SendAudio(pcm []byte) error {
	if c.stream == nil {
		return errors.New("asr: SendAudio called before OpenStream")
	}
	return c.stream.SendMsg(&streamingRequest{AudioContent: pcm})
}

// CloseSend half-closes the stream; the recognizer flushes its final
// results and the server side then returns io.EOF from Recv.
func (c *Client) CloseSend() error {
	if c.stream == nil {
		return nil
	}
	return c.stream.CloseSend()
}

// Recv reads the next transcript event. It surfaces the first alternative
// of the first result only; any further results in the same response are
// dropped (see DESIGN.md's accepted simplification). Returns io.EOF when the
// recognizer ends the stream.
func (c *Client) Recv() (Result, error) {
	if c.stream == nil {
		return Result{}, errors.New("asr: Recv called before OpenStream")
	}
	var resp streamingResponse
	if err := c.stream.RecvMsg(&resp); err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, io.EOF
		}
		return Result{}, fmt.Errorf("asr: recv: %w", err)
	}
	if len(resp.Results) == 0 || len(resp.Results[0].Alternatives) == 0 {
		return Result{}, nil
	}
	return Result{
		Transcript: resp.Results[0].Alternatives[0].Transcript,
		IsFinal:    resp.Results[0].IsFinal,
	}, nil
}
