package log

import (
	"context"
	"sync"

	"github.com/chroma/chroma-worker/internal/model"
	"github.com/chroma/chroma-worker/internal/types"
)

// InMemoryLog is a Log backed by a process-local map. It is the reference
// implementation used in tests and by embedded deployments.
type InMemoryLog struct {
	state *inMemoryState
}

type inMemoryState struct {
	mu   sync.Mutex
	logs map[string][]*model.LogRecord
}

func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{
		state: &inMemoryState{
			logs: make(map[string][]*model.LogRecord),
		},
	}
}

// AddLog appends a record to the collection's log. Records must be added in
// ascending LogID order; the store does not reorder.
func (l *InMemoryLog) AddLog(collectionID string, record *model.LogRecord) {
	l.state.mu.Lock()
	defer l.state.mu.Unlock()
	l.state.logs[collectionID] = append(l.state.logs[collectionID], record)
}

func (l *InMemoryLog) Read(ctx context.Context, collectionID string, offset int64, batchSize int32, endTimestamp int64) ([]*model.LogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.state.mu.Lock()
	defer l.state.mu.Unlock()

	if endTimestamp <= 0 {
		endTimestamp = types.MaxTimestamp
	}
	records := make([]*model.LogRecord, 0)
	for _, record := range l.state.logs[collectionID] {
		if record.LogID <= offset {
			continue
		}
		if record.LogIDTs > endTimestamp {
			continue
		}
		records = append(records, record)
		if int32(len(records)) >= batchSize {
			break
		}
	}
	return records, nil
}

// Clone shares the backing map, so records added through any handle are
// visible to all of them.
func (l *InMemoryLog) Clone() Log {
	return &InMemoryLog{state: l.state}
}
