package dao

import (
	"errors"
	"time"

	"github.com/chroma/chroma-worker/internal/metastore/db/dbmodel"
	"github.com/chroma/chroma-worker/internal/types"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordLogDb struct {
	db *gorm.DB
}

var _ dbmodel.IRecordLogDb = &recordLogDb{}

// PushLogs reads the last assigned offset and appends after it. Atomicity
// with respect to concurrent pushes is the caller's job: run it inside an
// ITransaction so the db handle here is the transaction.
func (s *recordLogDb) PushLogs(collectionID types.UniqueID, recordsContent [][]byte) (int, error) {
	var timestamp = time.Now().UnixNano()
	var collectionIDStr = types.FromUniqueID(collectionID)
	log.Info("PushLogs",
		zap.String("collectionID", *collectionIDStr),
		zap.Int64("timestamp", timestamp),
		zap.Int("count", len(recordsContent)))

	var lastLog *dbmodel.RecordLog
	err := s.db.Select("log_offset").Where("collection_id = ?", collectionIDStr).Order("log_offset DESC").Limit(1).Find(&lastLog).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("Get last log offset error", zap.Error(err))
		return 0, err
	}
	// When the collection has no logs yet the select leaves lastLog at
	// its zero value, so the first record gets offset 1.
	var lastLogOffset = lastLog.LogOffset

	var recordLogs []*dbmodel.RecordLog
	for index := range recordsContent {
		recordLogs = append(recordLogs, &dbmodel.RecordLog{
			CollectionID: collectionIDStr,
			LogOffset:    lastLogOffset + int64(index) + 1,
			Timestamp:    timestamp,
			Record:       &recordsContent[index],
		})
	}
	err = s.db.CreateInBatches(recordLogs, len(recordLogs)).Error
	if err != nil {
		log.Error("Batch insert error", zap.Error(err))
		return 0, err
	}
	return len(recordsContent), nil
}

func (s *recordLogDb) PullLogs(collectionID types.UniqueID, offset int64, batchSize int, endTimestamp int64) ([]*dbmodel.RecordLog, error) {
	var collectionIDStr = types.FromUniqueID(collectionID)
	log.Info("PullLogs",
		zap.String("collectionID", *collectionIDStr),
		zap.Int64("log_offset", offset),
		zap.Int("batch_size", batchSize),
		zap.Int64("endTimestamp", endTimestamp))

	// The read starts strictly after offset.
	var recordLogs []*dbmodel.RecordLog
	query := s.db.Where("collection_id = ? AND log_offset > ?", collectionIDStr, offset)
	if endTimestamp > 0 {
		query = query.Where("timestamp <= ?", endTimestamp)
	}
	result := query.Order("log_offset").Limit(batchSize).Find(&recordLogs)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		log.Error("PullLogs error", zap.Error(result.Error))
		return nil, result.Error
	}
	log.Info("PullLogs",
		zap.String("collectionID", *collectionIDStr),
		zap.Int64("log_offset", offset),
		zap.Int("batch_size", batchSize),
		zap.Int("count", len(recordLogs)))
	return recordLogs, nil
}
