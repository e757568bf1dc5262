package asr

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sdrpipeline/sdrstream/internal/export"
	"github.com/sdrpipeline/sdrstream/internal/logging"
	"github.com/sdrpipeline/sdrstream/internal/queue"
)

// audioPollInterval is how often sendLoop checks the audio queue for a new
// PCM chunk when it's empty. The queue is unbounded and non-blocking, so a
// short poll stands in for the original's blocking buffer.get(timeout=30).
const audioPollInterval = 20 * time.Millisecond

// reconnectBackoff matches RivaThread.run()'s 5-second pause before retrying
// a StreamingRecognize call after the stream ends, whether from an error or
// a graceful close.
const reconnectBackoff = 5 * time.Second

// bufferStarveTimeout matches _request_generator's buffer.get(timeout=30):
// if no PCM audio arrives on the channel within this window, the send side
// ends the stream rather than blocking forever on a silent channel.
const bufferStarveTimeout = 30 * time.Second

// Worker drives one channel's streaming recognition session: it consumes
// PCM audio off a FIFO, forwards it to the recognizer, folds results
// through a Segmenter, and exports finished documents and live partials.
type Worker struct {
	channelID     int
	streamID      string
	ragUUID       string
	asrAddr       string
	cfg           RecognitionConfig
	initRetrieval bool

	segmenter *Segmenter
	retrieval *export.RetrievalClient
	frontend  *export.FrontendClient
	logger    logging.Logger
}

// NewWorker builds a Worker for one channel. initRetrieval should be true
// only for channel 0, matching AsrStreamingApp.run()'s
// initialize=(channel_idx==0) gate on the shared retrieval collection.
func NewWorker(
	channelID int,
	asrAddr, ragUUID string,
	cfg RecognitionConfig,
	segmenter *Segmenter,
	retrieval *export.RetrievalClient,
	frontend *export.FrontendClient,
	initRetrieval bool,
	logger logging.Logger,
) *Worker {
	return &Worker{
		channelID:     channelID,
		streamID:      export.StreamFileURI(channelID),
		ragUUID:       ragUUID,
		asrAddr:       asrAddr,
		cfg:           cfg,
		initRetrieval: initRetrieval,
		segmenter:     segmenter,
		retrieval:     retrieval,
		frontend:      frontend,
		logger:        logger.With("channel", channelID),
	}
}

// Run drives the worker until ctx is cancelled. audio is the channel's PCM
// FIFO: each pop is one chunk of 16-bit mono PCM ready to send upstream.
func (w *Worker) Run(ctx context.Context, audio *queue.Queue[[]byte]) error {
	if w.initRetrieval {
		if err := w.retrieval.Init(ctx, w.ragUUID); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := w.runSession(ctx, audio); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Warnf("asr session ended: %v", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectBackoff):
		}
	}
}

// runSession opens one StreamingRecognize call and drives it until the
// audio FIFO starves for bufferStarveTimeout, the stream errors, or ctx is
// cancelled.
func (w *Worker) runSession(ctx context.Context, audio *queue.Queue[[]byte]) error {
	client, err := Dial(w.asrAddr, w.logger)
	if err != nil {
		return err
	}
	defer client.Close()

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := client.OpenStream(sessionCtx, w.cfg); err != nil {
		return err
	}

	sendErrCh := make(chan error, 1)
	go func() {
		sendErrCh <- w.sendLoop(sessionCtx, client, audio)
	}()

	recvErr := w.recvLoop(sessionCtx, client)
	cancel()
	sendErr := <-sendErrCh

	if recvErr != nil && !errors.Is(recvErr, io.EOF) {
		return recvErr
	}
	return sendErr
}

// sendLoop forwards audio chunks upstream until the FIFO starves for
// bufferStarveTimeout or the session ends. It polls audio.TryPop on
// audioPollInterval rather than blocking, since Queue is a non-blocking,
// unbounded FIFO rather than a channel.
func (w *Worker) sendLoop(ctx context.Context, client *Client, audio *queue.Queue[[]byte]) error {
	ticker := time.NewTicker(audioPollInterval)
	defer ticker.Stop()

	deadline := time.Now().Add(bufferStarveTimeout)
	for {
		select {
		case <-ctx.Done():
			_ = client.CloseSend()
			return nil
		case <-ticker.C:
			chunk, ok := audio.TryPop()
			if !ok {
				if time.Now().After(deadline) {
					w.logger.Debugf("audio FIFO idle for %s, ending session", bufferStarveTimeout)
					_ = client.CloseSend()
					return nil
				}
				continue
			}
			deadline = time.Now().Add(bufferStarveTimeout)
			if err := client.SendAudio(chunk); err != nil {
				return err
			}
		}
	}
}

// recvLoop reads transcript results and feeds them through the segmenter,
// exporting finished documents and pushing live partials to the frontend.
func (w *Worker) recvLoop(ctx context.Context, client *Client) error {
	for {
		result, err := client.Recv()
		if err != nil {
			return err
		}
		if result.Transcript == "" {
			continue
		}

		now := time.Now()
		if !result.IsFinal {
			// _frontend_export's one call site passes no uuid, so the
			// field is always null on the wire.
			if err := w.frontend.UpdatePartial(ctx, w.channelID, w.streamID, result.Transcript, "", now); err != nil {
				w.logger.Warnf("frontend partial update failed: %v", err)
			}
		}

		doc, ready := w.segmenter.Accept(result.Transcript, result.IsFinal, now)
		if !ready {
			continue
		}

		exportDoc := export.Document{
			ChannelID:  w.channelID,
			DocIndex:   doc.DocIndex,
			Text:       doc.Text,
			StreamID:   w.streamID,
			UUID:       doc.UUID,
			IsFirst:    doc.IsFirst,
			StartNTP:   doc.StartNTP,
			EndNTP:     doc.EndNTP,
			ExportedAt: now,
		}
		if err := w.retrieval.AddDoc(ctx, exportDoc); err != nil {
			// Loss over duplication: log and move on, the segmenter's
			// window has already advanced past this document.
			w.logger.Warnf("retrieval add_doc failed for doc %d: %v", doc.DocIndex, err)
		}
	}
}
