package log

import (
	"context"

	"github.com/chroma/chroma-worker/internal/log/repository"
	"github.com/chroma/chroma-worker/internal/model"
)

// BackedByRepository adapts the standalone pgx log repository to the Log
// capability.
type BackedByRepository struct {
	repo    *repository.LogRepository
	decoder RecordDecoder
}

func NewBackedByRepository(repo *repository.LogRepository, decoder RecordDecoder) *BackedByRepository {
	return &BackedByRepository{
		repo:    repo,
		decoder: decoder,
	}
}

func (l *BackedByRepository) Read(ctx context.Context, collectionID string, offset int64, batchSize int32, endTimestamp int64) ([]*model.LogRecord, error) {
	rows, err := l.repo.PullRecords(ctx, collectionID, offset, int(batchSize), endTimestamp)
	if err != nil {
		return nil, err
	}
	records := make([]*model.LogRecord, 0, len(rows))
	for _, row := range rows {
		record, err := l.decoder(row.Record)
		if err != nil {
			return nil, err
		}
		records = append(records, &model.LogRecord{
			CollectionID: row.CollectionID,
			LogID:        row.Offset,
			LogIDTs:      row.Timestamp,
			Record:       record,
		})
	}
	return records, nil
}

// Clone shares the repository; pgx pools tolerate concurrent use, the
// handle itself carries no call state.
func (l *BackedByRepository) Clone() Log {
	return &BackedByRepository{
		repo:    l.repo,
		decoder: l.decoder,
	}
}
