// Package asr drives per-channel streaming speech recognition: a
// bidirectional client to the recognition service, and a segmenter that
// turns interim/final transcript events into exportable documents.
package asr

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// docIDCounter is the process-wide monotonic document index. Every channel's
// segmenter shares it, matching the single class-level counter the original
// pipeline keeps across all RivaThread instances.
var docIDCounter atomic.Int64

// nextDocID returns the next document index, starting at 0, and advances the
// counter. It mirrors get_next_doc_id()'s pre-increment-then-return-previous
// semantics: the first caller gets 0, the second gets 1, and so on, with no
// gaps and no duplicates across concurrent channels.
func nextDocID() int64 {
	return docIDCounter.Add(1) - 1
}

// PendingDocument is one exportable transcript chunk, with the NTP window
// and identity fields _database_export computes at export time.
type PendingDocument struct {
	DocIndex int64
	Text     string
	UUID     string
	IsFirst  bool
	StartNTP time.Time
	EndNTP   time.Time
}

// Segmenter turns a channel's final-result stream into a sequence of
// PendingDocuments, accumulating transcript text with a space separator and
// flushing once the text hits minExportLen or the time since the last export
// exceeds exportEvery, matching _database_export's accumulate-then-maybe-flush
// logic.
type Segmenter struct {
	mu sync.Mutex

	minExportLen int
	exportEvery  time.Duration

	text          string
	firstWordTime time.Time

	prevExportTime      time.Time
	haveLastExportStamp bool
	lastExportTimestamp time.Time
}

// NewSegmenter builds a Segmenter for one channel. minExportLen is the
// minimum accumulated character count before a flush is considered (spec.md
// §3's MinDBExportChars); exportEvery is the maximum time allowed between
// exports before a flush is forced regardless of length.
func NewSegmenter(channelID, minExportLen int, exportEvery time.Duration) *Segmenter {
	return &Segmenter{
		minExportLen: minExportLen,
		exportEvery:  exportEvery,
	}
}

// Accept folds one final ASR result into the segmenter. Interim (non-final)
// results never accumulate into the exported document text — only their
// live frontend preview matters, and the caller handles that separately.
// Empty transcripts are ignored entirely, matching extract_transcripts'
// `if len(transcript) == 0: continue`.
//
// Accept returns a PendingDocument and true once the accumulated text is
// ready to export.
func (s *Segmenter) Accept(text string, final bool, now time.Time) (PendingDocument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if text == "" {
		return PendingDocument{}, false
	}

	if s.firstWordTime.IsZero() {
		s.firstWordTime = now
	}

	if !final {
		return PendingDocument{}, false
	}

	if s.text == "" {
		s.text = text
	} else {
		s.text += " " + text
	}

	hitCharLimit := len(s.text) >= s.minExportLen
	timeout := s.haveLastExportStamp && s.exportEvery > 0 && now.Sub(s.lastExportTimestamp) > s.exportEvery
	if !hitCharLimit && !timeout {
		return PendingDocument{}, false
	}

	return s.flush(now)
}

// flush emits the accumulated text as a PendingDocument. start_ntp is the
// previous export's end instant, falling back to this document's first word
// time when nothing has been exported yet on this channel, matching
// `start_time = prev_export_time if prev_export_time is not None else
// first_transcript_time`. is_first is true only for that very first export.
func (s *Segmenter) flush(now time.Time) (PendingDocument, bool) {
	startTime := s.firstWordTime
	isFirst := s.prevExportTime.IsZero()
	if !isFirst {
		startTime = s.prevExportTime
	}

	doc := PendingDocument{
		DocIndex: nextDocID(),
		Text:     s.text,
		UUID:     uuid.New().String(),
		IsFirst:  isFirst,
		StartNTP: startTime,
		EndNTP:   now,
	}

	s.text = ""
	s.firstWordTime = time.Time{}
	s.prevExportTime = now
	s.lastExportTimestamp = now
	s.haveLastExportStamp = true

	return doc, true
}
