package export

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sdrpipeline/sdrstream/internal/logging"
)

func newTestLogger(t *testing.T) logging.Logger {
	t.Helper()
	l, err := logging.New()
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}
	return l
}

func TestRetrievalClientInitSucceedsFirstAttempt(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["uuid"] != "abc123" {
			t.Errorf(`body["uuid"] = %q, want abc123`, body["uuid"])
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRetrievalClient(srv.URL, newTestLogger(t))
	if err := c.Init(context.Background(), "abc123"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}

func TestRetrievalClientInitStopsOnContextCancel(t *testing.T) {
	c := NewRetrievalClient("http://127.0.0.1:0", newTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := c.Init(ctx, "abc123")
	if err == nil {
		t.Fatal("Init() expected error for cancelled context")
	}
	if elapsed := time.Since(start); elapsed > initBackoff {
		t.Errorf("Init() took %s, want it to return promptly once ctx is cancelled", elapsed)
	}
}

func TestRetrievalClientAddDocPostsWireShape(t *testing.T) {
	var received addDocRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRetrievalClient(srv.URL, newTestLogger(t))
	doc := Document{
		ChannelID: 2,
		DocIndex:  5,
		Text:      "transmission received",
		UUID:      "uuid-5",
		StartNTP:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndNTP:    time.Date(2026, 1, 1, 0, 0, 3, 0, time.UTC),
	}
	if err := c.AddDoc(context.Background(), doc); err != nil {
		t.Fatalf("AddDoc() error = %v", err)
	}
	if received.Document != "transmission received" {
		t.Errorf("received.Document = %q, want %q", received.Document, "transmission received")
	}
	if received.DocMetadata.ChunkIdx != 5 {
		t.Errorf("received ChunkIdx = %d, want 5", received.DocMetadata.ChunkIdx)
	}
}

func TestRetrievalClientAddDocReturnsErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewRetrievalClient(srv.URL, newTestLogger(t))
	err := c.AddDoc(context.Background(), Document{ChannelID: 0, DocIndex: 0})
	if err == nil {
		t.Fatal("AddDoc() expected error on server 500, so callers can log-and-continue per the loss-over-duplication contract")
	}
}
