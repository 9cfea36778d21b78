package log

import (
	"context"

	"github.com/chroma/chroma-worker/internal/common"
	"github.com/chroma/chroma-worker/internal/metastore/db/dbmodel"
	"github.com/chroma/chroma-worker/internal/model"
	"github.com/chroma/chroma-worker/internal/types"
)

// BackedByRecordLog adapts the record-log metastore to the Log capability.
// Row payloads are opaque; the injected decoder owns the wire format.
type BackedByRecordLog struct {
	recordLogDb dbmodel.IRecordLogDb
	decoder     RecordDecoder
}

func NewBackedByRecordLog(recordLogDb dbmodel.IRecordLogDb, decoder RecordDecoder) *BackedByRecordLog {
	return &BackedByRecordLog{
		recordLogDb: recordLogDb,
		decoder:     decoder,
	}
}

func (l *BackedByRecordLog) Read(ctx context.Context, collectionID string, offset int64, batchSize int32, endTimestamp int64) ([]*model.LogRecord, error) {
	id, err := types.ToUniqueID(&collectionID)
	if err != nil || id == types.NilUniqueID() {
		return nil, common.ErrCollectionIDFormat
	}
	rows, err := l.recordLogDb.PullLogs(id, offset, int(batchSize), endTimestamp)
	if err != nil {
		return nil, err
	}
	records := make([]*model.LogRecord, 0, len(rows))
	for _, row := range rows {
		record, err := l.decoder(*row.Record)
		if err != nil {
			return nil, err
		}
		records = append(records, &model.LogRecord{
			CollectionID: *row.CollectionID,
			LogID:        row.LogOffset,
			LogIDTs:      row.Timestamp,
			Record:       record,
		})
	}
	return records, nil
}

// Clone shares the dao handle. The dao itself is stateless over the
// connection pool, so handles are independent.
func (l *BackedByRecordLog) Clone() Log {
	return &BackedByRecordLog{
		recordLogDb: l.recordLogDb,
		decoder:     l.decoder,
	}
}
