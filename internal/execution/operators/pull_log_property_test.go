package operators

import (
	"context"
	"testing"

	"github.com/chroma/chroma-worker/internal/log"
	"github.com/chroma/chroma-worker/internal/types"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// Without a timestamp bound, a pull from offset zero returns the first
// min(cap, total) records of the log, in order, whatever the batch size.
func TestPullLogsProperties(t *testing.T) {
	ctx := context.Background()
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(0, 200).Draw(t, "total")
		batchSize := rapid.Int32Range(1, 20).Draw(t, "batchSize")
		numRecords := rapid.Int32Range(0, 50).Draw(t, "numRecords")

		inMemoryLog := log.NewInMemoryLog()
		collectionID := types.NewUniqueID()
		for logID := int64(1); logID <= int64(total); logID++ {
			addTestRecord(inMemoryLog, collectionID, logID, logID)
		}

		pullOperator := NewPullLogsOperator(inMemoryLog)
		output, err := pullOperator.Run(ctx, NewPullLogsInput(collectionID, 0, batchSize, numRecords, 0))
		assert.NoError(t, err)

		expected := total
		if numRecords > 0 && int(numRecords) < total {
			expected = int(numRecords)
		}
		records := output.Logs()
		assert.Len(t, records, expected)
		for i, record := range records {
			assert.Equal(t, int64(i+1), record.LogID)
		}
	})
}
