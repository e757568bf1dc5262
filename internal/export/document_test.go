package export

import (
	"testing"
	"time"
)

func TestDocumentToAddDocRequestShape(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Second)
	doc := Document{
		ChannelID:  3,
		DocIndex:   42,
		Text:       "hello world",
		UUID:       "test-uuid",
		IsFirst:    true,
		StartNTP:   start,
		EndNTP:     end,
		ExportedAt: end,
	}

	req := doc.toAddDocRequest()

	if req.Document != "hello world" {
		t.Errorf("Document = %q, want %q", req.Document, "hello world")
	}
	if req.DocIndex != 42 {
		t.Errorf("top-level DocIndex = %d, want 42", req.DocIndex)
	}
	want := "rtsp://fm-radio-ch3"
	if req.DocMetadata.File != want {
		t.Errorf("File = %q, want %q", req.DocMetadata.File, want)
	}
	if req.DocMetadata.StreamID != want || req.DocMetadata.DocID != want {
		t.Errorf("StreamID/DocID = %q/%q, want both %q", req.DocMetadata.StreamID, req.DocMetadata.DocID, want)
	}
	if !req.DocMetadata.IsFirst {
		t.Error("IsFirst should carry through from Document.IsFirst")
	}
	if req.DocMetadata.IsLast {
		t.Error("IsLast must always be false: the stream has no known end")
	}
	if req.DocMetadata.ChunkIdx != 42 {
		t.Errorf("ChunkIdx = %d, want 42", req.DocMetadata.ChunkIdx)
	}
	if req.DocMetadata.UUID != "test-uuid" {
		t.Errorf("UUID = %q, want passthrough of Document.UUID", req.DocMetadata.UUID)
	}
	if req.DocMetadata.StartNTP != "2026-01-01T12:00:00.000Z" {
		t.Errorf("StartNTP = %q, want millisecond-truncated ISO8601", req.DocMetadata.StartNTP)
	}
	wantStartPTS := start.UnixNano()
	wantEndPTS := end.UnixNano()
	if req.DocMetadata.StartPTS != wantStartPTS || req.DocMetadata.EndPTS != wantEndPTS {
		t.Errorf("StartPTS/EndPTS = %d/%d, want %d/%d (epoch nanoseconds)", req.DocMetadata.StartPTS, req.DocMetadata.EndPTS, wantStartPTS, wantEndPTS)
	}
	wantFloat := float64(start.UnixNano()) / 1e9
	if req.DocMetadata.StartNTPFloat != wantFloat {
		t.Errorf("StartNTPFloat = %v, want %v", req.DocMetadata.StartNTPFloat, wantFloat)
	}
}

func TestStreamFileURI(t *testing.T) {
	if got := StreamFileURI(0); got != "rtsp://fm-radio-ch0" {
		t.Errorf("StreamFileURI(0) = %q, want rtsp://fm-radio-ch0", got)
	}
	if got := StreamFileURI(7); got != "rtsp://fm-radio-ch7" {
		t.Errorf("StreamFileURI(7) = %q, want rtsp://fm-radio-ch7", got)
	}
}
