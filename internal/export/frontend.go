package export

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sdrpipeline/sdrstream/internal/logging"
)

// frontendTimeout matches the original's 3-second request timeout for the
// live-partial-transcript push, short enough that a slow frontend never
// backs up the recognition loop.
const frontendTimeout = 3 * time.Second

// updateDataStreamRequest is the body _frontend_export posts to
// /api/update-data-stream.
type updateDataStreamRequest struct {
	Text       string `json:"text"`
	StreamID   string `json:"stream_id"`
	Timestamp  string `json:"timestamp"`
	Finalized  bool   `json:"finalized"`
	UUID       string `json:"uuid"`
}

// FrontendClient pushes partial-transcript updates to the live UI.
type FrontendClient struct {
	http   *resty.Client
	logger logging.Logger

	mu                   sync.Mutex
	prevPartialByChannel map[int]string
}

// NewFrontendClient builds a FrontendClient against baseURI.
func NewFrontendClient(baseURI string, logger logging.Logger) *FrontendClient {
	return &FrontendClient{
		http:                 resty.New().SetBaseURL(baseURI).SetTimeout(frontendTimeout),
		logger:               logger,
		prevPartialByChannel: make(map[int]string),
	}
}

// UpdatePartial posts the latest partial transcript for channelID. If text
// is identical to the last partial pushed for this channel, the call is
// skipped entirely, matching _frontend_export's dedup against
// _prev_partial_transcript: interim ASR results repeat the same text across
// many Accept calls while the speaker keeps talking, and re-posting an
// unchanged partial only wastes a round trip.
func (c *FrontendClient) UpdatePartial(ctx context.Context, channelID int, streamID, text, uuid string, now time.Time) error {
	c.mu.Lock()
	if c.prevPartialByChannel[channelID] == text {
		c.mu.Unlock()
		return nil
	}
	c.prevPartialByChannel[channelID] = text
	c.mu.Unlock()

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(updateDataStreamRequest{
			Text:      text,
			StreamID:  streamID,
			Timestamp: now.UTC().Format(wallClockLayout),
			Finalized: false,
			UUID:      uuid,
		}).
		Post("/api/update-data-stream")
	if err != nil {
		return fmt.Errorf("frontend /api/update-data-stream: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("frontend /api/update-data-stream: unexpected status %d", resp.StatusCode())
	}
	return nil
}
