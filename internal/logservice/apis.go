package logservice

import (
	"context"

	"github.com/chroma/chroma-worker/internal/common"
	"github.com/chroma/chroma-worker/internal/metastore/db/dbmodel"
	"github.com/chroma/chroma-worker/internal/types"
)

type (
	IRecordLog interface {
		common.Component
		PushLogs(ctx context.Context, collectionID types.UniqueID, recordContent [][]byte) (int, error)
		PullLogs(ctx context.Context, collectionID types.UniqueID, offset int64, batchSize int, endTimestamp int64) ([]*dbmodel.RecordLog, error)
	}
)

// PushLogs runs the offset read and the batch insert in one transaction so
// concurrent pushes cannot interleave their offset assignments.
func (s *RecordLog) PushLogs(ctx context.Context, collectionID types.UniqueID, recordsContent [][]byte) (int, error) {
	var pushed int
	err := s.txImpl.Transaction(ctx, func(txCtx context.Context) error {
		count, err := s.metaDomain.RecordLogDb(txCtx).PushLogs(collectionID, recordsContent)
		if err != nil {
			return err
		}
		pushed = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pushed, nil
}

func (s *RecordLog) PullLogs(ctx context.Context, collectionID types.UniqueID, offset int64, batchSize int, endTimestamp int64) ([]*dbmodel.RecordLog, error) {
	return s.metaDomain.RecordLogDb(ctx).PullLogs(collectionID, offset, batchSize, endTimestamp)
}
