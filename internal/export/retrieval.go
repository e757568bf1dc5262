package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sdrpipeline/sdrstream/internal/logging"
)

// RetrievalClient talks to the retrieval store's /init and /add_doc
// endpoints, matching _initialize_ingest_service and _database_export in
// the original pipeline.
type RetrievalClient struct {
	http   *resty.Client
	logger logging.Logger
}

// initAttempts and initBackoff match the original's 10-attempt, 10-second
// backoff loop around the /init bootstrap call.
const (
	initAttempts = 10
	initBackoff  = 10 * time.Second
)

// NewRetrievalClient builds a RetrievalClient against baseURI.
func NewRetrievalClient(baseURI string, logger logging.Logger) *RetrievalClient {
	return &RetrievalClient{
		http:   resty.New().SetBaseURL(baseURI).SetTimeout(10 * time.Second),
		logger: logger,
	}
}

// Init calls POST /init with the given RAG UUID, retrying up to
// initAttempts times with initBackoff between attempts. Only the channel-0
// worker calls this, matching AsrStreamingApp.run()'s
// initialize=(channel_idx==0) gate: the retrieval store's collection is
// shared across every channel, so bootstrapping it once is enough.
func (c *RetrievalClient) Init(ctx context.Context, ragUUID string) error {
	var lastErr error
	for attempt := 1; attempt <= initAttempts; attempt++ {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(map[string]string{"uuid": ragUUID}).
			Post("/init")
		if err == nil && !resp.IsError() {
			return nil
		}
		lastErr = err
		if err == nil {
			lastErr = fmt.Errorf("retrieval /init: unexpected status %d", resp.StatusCode())
		}
		c.logger.Warnf("retrieval /init attempt %d/%d failed: %v", attempt, initAttempts, lastErr)
		if attempt == initAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(initBackoff):
		}
	}
	return fmt.Errorf("retrieval /init failed after %d attempts: %w", initAttempts, lastErr)
}

// AddDoc POSTs a single document to /add_doc. The caller's segmenter has
// already advanced its window before AddDoc is called, so the returned
// error does not affect window state, matching the "loss over
// duplication" contract _database_export keeps: a failed export is logged
// and the window moves on rather than being retried and risking a
// duplicate.
func (c *RetrievalClient) AddDoc(ctx context.Context, doc Document) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(doc.toAddDocRequest()).
		Post("/add_doc")
	if err != nil {
		return fmt.Errorf("retrieval /add_doc: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("retrieval /add_doc: unexpected status %d", resp.StatusCode())
	}
	return nil
}
