// Package export pushes transcript documents and partial-transcript updates
// to the retrieval store and the frontend, matching the wire contracts
// _database_export and _frontend_export build in the original pipeline.
package export

import (
	"fmt"
	"time"
)

// ntpFloatLayout matches the original's "%Y-%m-%dT%H:%M:%S.%fZ" format
// truncated to millisecond precision.
const ntpFloatLayout = "2006-01-02T15:04:05.000Z"

// wallClockLayout matches the original's "%Y-%m-%d %H:%M:%S" timestamp field.
const wallClockLayout = "2006-01-02 15:04:05"

// Document is one exportable transcript chunk for a single channel.
type Document struct {
	ChannelID int
	DocIndex  int64
	Text      string
	StreamID  string
	// UUID is a fresh identifier minted per document, unrelated to the
	// pipeline-wide RAG_UUID used only to bootstrap the retrieval
	// collection in Init.
	UUID string
	// IsFirst marks the very first document a channel ever exports.
	IsFirst bool

	StartNTP time.Time
	EndNTP   time.Time

	ExportedAt time.Time
}

// docMetadata is the nested JSON object the retrieval store expects inside
// an add_doc request body, field-for-field from _database_export's
// doc_metadata dict.
type docMetadata struct {
	IsFirst       bool    `json:"is_first"`
	IsLast        bool    `json:"is_last"`
	File          string  `json:"file"`
	StreamID      string  `json:"streamId"`
	DocID         string  `json:"doc_id"`
	ChunkIdx      int64   `json:"chunkIdx"`
	Timestamp     string  `json:"timestamp"`
	StartNTP      string  `json:"start_ntp"`
	EndNTP        string  `json:"end_ntp"`
	StartNTPFloat float64 `json:"start_ntp_float"`
	EndNTPFloat   float64 `json:"end_ntp_float"`
	StartPTS      int64   `json:"start_pts"`
	EndPTS        int64   `json:"end_pts"`
	UUID          string  `json:"uuid"`
}

// addDocRequest is the full add_doc request body. doc_index is duplicated at
// the top level and inside doc_metadata.chunkIdx, matching _database_export's
// request dict.
type addDocRequest struct {
	Document    string      `json:"document"`
	DocIndex    int64       `json:"doc_index"`
	DocMetadata docMetadata `json:"doc_metadata"`
}

// StreamFileURI reproduces the "rtsp://fm-radio-ch{channel_id}" identifier
// the original uses for both the file and streamId/doc_id fields.
func StreamFileURI(channelID int) string {
	return fmt.Sprintf("rtsp://fm-radio-ch%d", channelID)
}

// toAddDocRequest builds the wire body for a Document. is_last is always
// false: the stream has no known end. start_pts/end_pts are the NTP
// timestamps in epoch nanoseconds, matching int(start_ntp_float * 1e9).
func (d Document) toAddDocRequest() addDocRequest {
	uri := StreamFileURI(d.ChannelID)
	return addDocRequest{
		Document: d.Text,
		DocIndex: d.DocIndex,
		DocMetadata: docMetadata{
			IsFirst:       d.IsFirst,
			IsLast:        false,
			File:          uri,
			StreamID:      uri,
			DocID:         uri,
			ChunkIdx:      d.DocIndex,
			Timestamp:     d.ExportedAt.UTC().Format(wallClockLayout),
			StartNTP:      d.StartNTP.UTC().Format(ntpFloatLayout),
			EndNTP:        d.EndNTP.UTC().Format(ntpFloatLayout),
			StartNTPFloat: float64(d.StartNTP.UnixNano()) / 1e9,
			EndNTPFloat:   float64(d.EndNTP.UnixNano()) / 1e9,
			StartPTS:      d.StartNTP.UnixNano(),
			EndPTS:        d.EndNTP.UnixNano(),
			UUID:          d.UUID,
		},
	}
}
