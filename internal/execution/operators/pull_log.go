package operators

import (
	"context"

	"github.com/chroma/chroma-worker/internal/common"
	"github.com/chroma/chroma-worker/internal/execution/operator"
	"github.com/chroma/chroma-worker/internal/log"
	"github.com/chroma/chroma-worker/internal/model"
	"github.com/chroma/chroma-worker/internal/types"
	trace_log "github.com/pingcap/log"
	"go.uber.org/zap"
)

// PullLogsOperator drains the change log of a collection into an ordered
// in-memory batch for the downstream stages of the pipeline.
type PullLogsOperator struct {
	client log.Log
}

func NewPullLogsOperator(client log.Log) *PullLogsOperator {
	return &PullLogsOperator{client: client}
}

// PullLogsInput describes one retrieval: where to start reading the
// collection's log, how many records to request per read, and the optional
// stop conditions. numRecords <= 0 means no cap; endTimestamp <= 0 means no
// upper bound on record timestamps.
type PullLogsInput struct {
	collectionID types.UniqueID
	offset       int64
	batchSize    int32
	numRecords   int32
	endTimestamp int64
}

func NewPullLogsInput(collectionID types.UniqueID, offset int64, batchSize int32, numRecords int32, endTimestamp int64) *PullLogsInput {
	return &PullLogsInput{
		collectionID: collectionID,
		offset:       offset,
		batchSize:    batchSize,
		numRecords:   numRecords,
		endTimestamp: endTimestamp,
	}
}

// PullLogsOutput holds the records accumulated by one retrieval, in log
// order.
type PullLogsOutput struct {
	logs []*model.LogRecord
}

func (o *PullLogsOutput) Logs() []*model.LogRecord {
	return o.logs
}

var _ operator.Operator[*PullLogsInput, *PullLogsOutput] = (*PullLogsOperator)(nil)

// Run reads the collection's log batch by batch until the log is exhausted
// or the record cap is reached. The first failing read fails the whole
// operation; nothing accumulated before the failure is returned. Restarting
// with the same input is safe since offsets are stable log positions.
func (o *PullLogsOperator) Run(ctx context.Context, input *PullLogsInput) (*PullLogsOutput, error) {
	if input.batchSize <= 0 {
		return nil, common.ErrInvalidBatchSize
	}

	// Each invocation reads through its own handle; a shared one is not
	// guaranteed to tolerate overlapping calls.
	client := o.client.Clone()
	collectionID := input.collectionID.String()
	offset := input.offset
	result := make([]*model.LogRecord, 0)
	for {
		records, err := client.Read(ctx, collectionID, offset, input.batchSize, input.endTimestamp)
		if err != nil {
			trace_log.Error("pull logs read failed",
				zap.String("collectionID", collectionID),
				zap.Int64("offset", offset),
				zap.Error(err))
			return nil, err
		}
		if len(records) == 0 {
			break
		}
		result = append(result, records...)
		// The stride is the requested batch size, not the returned count.
		offset += int64(input.batchSize)
		if input.numRecords > 0 && len(result) >= int(input.numRecords) {
			break
		}
	}
	// The last batch may overshoot the cap, since the cap is only checked
	// after appending.
	if input.numRecords > 0 && len(result) > int(input.numRecords) {
		result = result[:input.numRecords]
	}
	return &PullLogsOutput{logs: result}, nil
}
