package log

import (
	"context"

	"github.com/chroma/chroma-worker/internal/model"
)

// RecordDecoder turns the opaque payload of a stored log row into a
// ChangeRecord. The wire format belongs to the producers of the log, so
// storage-backed Log implementations take the decoder as a dependency.
type RecordDecoder func(data []byte) (*model.ChangeRecord, error)

// Log is the capability the retrieval pipeline reads change logs through.
// Implementations may be backed by an in-process store, the record-log
// tables, or a remote log service.
type Log interface {
	// Read returns at most batchSize records of the collection with
	// log_id strictly greater than offset, ordered by ascending log_id.
	// A positive endTimestamp bounds log_id_ts inclusively. An empty
	// result means no more records are readable past offset, or none
	// remain within the timestamp bound.
	Read(ctx context.Context, collectionID string, offset int64, batchSize int32, endTimestamp int64) ([]*model.LogRecord, error)

	// Clone returns an independent handle over the same underlying log.
	// Handles share connection state but not call-in-flight state, so a
	// caller that needs overlapping reads clones first.
	Clone() Log
}
