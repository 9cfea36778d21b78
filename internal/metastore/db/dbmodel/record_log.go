package dbmodel

import (
	"github.com/chroma/chroma-worker/internal/types"
)

type RecordLog struct {
	CollectionID *string `gorm:"collection_id;primaryKey;autoIncrement:false"`
	LogOffset    int64   `gorm:"log_offset;primaryKey;autoIncrement:false"`
	Timestamp    int64   `gorm:"timestamp;"`
	Record       *[]byte `gorm:"record;type:bytea"`
}

func (v RecordLog) TableName() string {
	return "record_logs"
}

//go:generate mockery --name=IRecordLogDb
type IRecordLogDb interface {
	// PushLogs appends records to the collection's log, assigning each a
	// contiguous log offset after the current maximum. Callers wrap it in
	// an ITransaction; the dao runs on the handle scoped by the context.
	PushLogs(collectionID types.UniqueID, recordsContent [][]byte) (int, error)
	// PullLogs returns at most batchSize rows with log_offset strictly
	// greater than offset, ordered by log_offset. A positive endTimestamp
	// bounds row timestamps inclusively.
	PullLogs(collectionID types.UniqueID, offset int64, batchSize int, endTimestamp int64) ([]*RecordLog, error)
}
