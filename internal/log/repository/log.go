package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	trace_log "github.com/pingcap/log"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection tracks the offset bookkeeping of one collection's log: the
// position of the last enumerated (appended) record and the position of the
// last compacted record. Records at or below the compaction offset are
// eligible for purging. A sealed collection accepts no further appends.
type Collection struct {
	ID                              string
	RecordEnumerationOffsetPosition int64
	RecordCompactionOffsetPosition  int64
	IsSealed                        bool
}

// RecordLog is one row of the record_log table.
type RecordLog struct {
	CollectionID string
	Offset       int64
	Timestamp    int64
	Record       []byte
}

type LogRepository struct {
	conn *pgxpool.Pool
}

func NewLogRepository(conn *pgxpool.Pool) *LogRepository {
	return &LogRepository{
		conn: conn,
	}
}

// MigrateSchema creates the log tables when they do not exist yet. Managed
// deployments run migrations out of band; embedded and test setups call
// this directly.
func (r *LogRepository) MigrateSchema(ctx context.Context) (err error) {
	_, err = r.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS collection (
			id TEXT PRIMARY KEY,
			record_enumeration_offset_position BIGINT NOT NULL DEFAULT 0,
			record_compaction_offset_position BIGINT NOT NULL DEFAULT 0,
			is_sealed BOOLEAN NOT NULL DEFAULT FALSE
		)`)
	if err != nil {
		trace_log.Error("Error in creating collection table", zap.Error(err))
		return
	}
	_, err = r.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS record_log (
			collection_id TEXT NOT NULL,
			"offset" BIGINT NOT NULL,
			timestamp BIGINT NOT NULL,
			record BYTEA NOT NULL,
			PRIMARY KEY (collection_id, "offset")
		)`)
	if err != nil {
		trace_log.Error("Error in creating record_log table", zap.Error(err))
	}
	return
}

func (r *LogRepository) InsertRecords(ctx context.Context, collectionId string, records [][]byte) (insertCount int64, isSealed bool, err error) {
	var tx pgx.Tx
	tx, err = r.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		trace_log.Error("Error in begin transaction for inserting records to log service", zap.Error(err), zap.String("collectionId", collectionId))
		return
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()
	var collection Collection
	err = tx.QueryRow(ctx,
		`SELECT id, record_enumeration_offset_position, record_compaction_offset_position, is_sealed
		 FROM collection WHERE id = $1 FOR UPDATE`, collectionId).
		Scan(&collection.ID, &collection.RecordEnumerationOffsetPosition, &collection.RecordCompactionOffsetPosition, &collection.IsSealed)
	if err != nil {
		// If no row found, insert one.
		if errors.Is(err, pgx.ErrNoRows) {
			trace_log.Info("No rows found in the collection table for collection", zap.String("collectionId", collectionId))
			_, err = tx.Exec(ctx,
				`INSERT INTO collection (id, record_enumeration_offset_position, record_compaction_offset_position)
				 VALUES ($1, 0, 0)`, collectionId)
			if err != nil {
				var pgErr *pgconn.PgError
				// Happens when two concurrent adds to the same new
				// collection race; upstream retries.
				if errors.As(err, &pgErr) && pgErr.Code == "23505" {
					trace_log.Error("Duplicate key error while inserting into collection table", zap.String("collectionId", collectionId), zap.String("detail", pgErr.Detail))
					err = status.Error(codes.AlreadyExists, fmt.Sprintf("Duplicate key error while inserting into collection table: %s", pgErr.Detail))
					return
				}
				trace_log.Error("Error in creating a new entry in collection table", zap.Error(err), zap.String("collectionId", collectionId))
				return
			}
			collection = Collection{ID: collectionId}
		} else {
			trace_log.Error("Error in fetching collection from collection table", zap.Error(err), zap.String("collectionId", collectionId))
			return
		}
	}
	if collection.IsSealed {
		insertCount = 0
		isSealed = true
		err = nil
		return
	}
	isSealed = false
	rows := make([][]interface{}, len(records))
	timestamp := time.Now().UnixNano()
	for i, record := range records {
		offset := collection.RecordEnumerationOffsetPosition + int64(i) + 1
		rows[i] = []interface{}{collectionId, offset, timestamp, record}
	}
	insertCount, err = tx.CopyFrom(ctx,
		pgx.Identifier{"record_log"},
		[]string{"collection_id", "offset", "timestamp", "record"},
		pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		// Same race as above, on the record offsets this time.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			trace_log.Error("Duplicate key error while inserting into record_log", zap.String("collectionId", collectionId), zap.String("detail", pgErr.Detail))
			err = status.Error(codes.AlreadyExists, fmt.Sprintf("Duplicate key error while inserting into record_log: %s", pgErr.Detail))
			return
		}
		trace_log.Error("Error in inserting records to record_log table", zap.Error(err), zap.String("collectionId", collectionId))
		return
	}
	trace_log.Info("Inserted records to record_log table", zap.Int64("recordCount", insertCount), zap.String("collectionId", collectionId))
	_, err = tx.Exec(ctx,
		`UPDATE collection SET record_enumeration_offset_position = $2 WHERE id = $1`,
		collectionId, collection.RecordEnumerationOffsetPosition+insertCount)
	if err != nil {
		trace_log.Error("Error in updating record_enumeration_offset_position in the collection table", zap.Error(err), zap.String("collectionId", collectionId))
	}
	return
}

// PullRecords reads at most batchSize records with offset strictly greater
// than the given offset, in offset order. A positive endTimestamp bounds
// record timestamps inclusively. Reads that fall below the purge horizon
// fail with NotFound so callers do not mistake purged history for an empty
// log.
func (r *LogRepository) PullRecords(ctx context.Context, collectionId string, offset int64, batchSize int, endTimestamp int64) (records []RecordLog, err error) {
	var rows pgx.Rows
	if endTimestamp > 0 {
		rows, err = r.conn.Query(ctx,
			`SELECT collection_id, "offset", timestamp, record FROM record_log
			 WHERE collection_id = $1 AND "offset" > $2 AND timestamp <= $3
			 ORDER BY "offset" LIMIT $4`,
			collectionId, offset, endTimestamp, batchSize)
	} else {
		rows, err = r.conn.Query(ctx,
			`SELECT collection_id, "offset", timestamp, record FROM record_log
			 WHERE collection_id = $1 AND "offset" > $2
			 ORDER BY "offset" LIMIT $3`,
			collectionId, offset, batchSize)
	}
	if err != nil {
		trace_log.Error("Error in pulling records from record_log table", zap.Error(err), zap.String("collectionId", collectionId))
		return
	}
	records, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (RecordLog, error) {
		var record RecordLog
		err := row.Scan(&record.CollectionID, &record.Offset, &record.Timestamp, &record.Record)
		return record, err
	})
	if err != nil {
		trace_log.Error("Error in scanning records from record_log table", zap.Error(err), zap.String("collectionId", collectionId))
		return
	}
	// Relies on the records being ordered by offset. A timestamp bound may
	// legitimately skip offsets, so the gap check only applies to
	// unbounded reads.
	if endTimestamp <= 0 && len(records) > 0 && records[0].Offset != offset+1 {
		trace_log.Error("Error in pulling records from record_log table. Some entries have been purged.", zap.String("collectionId", collectionId), zap.Int64("requestedOffset", offset), zap.Int64("actualOffset", records[0].Offset))
		records, err = nil, status.Error(codes.NotFound, "Some entries have been purged")
		return
	}
	if len(records) == 0 {
		var compactedOffset int64
		compactedOffset, err = r.GetLastCompactedOffsetForCollection(ctx, collectionId)
		// No row exists when the collection was never compacted or has
		// been garbage collected.
		if errors.Is(err, pgx.ErrNoRows) {
			compactedOffset = 0
			err = nil
		}
		if err != nil {
			trace_log.Error("Error in getting last compacted offset", zap.Error(err), zap.String("collectionId", collectionId))
			records, err = nil, status.Error(codes.NotFound, "Error in getting last compacted offset")
			return
		}
		if offset < compactedOffset {
			trace_log.Error("Error in pulling records from record_log table. Some entries have been purged.", zap.String("collectionId", collectionId), zap.Int64("requestedOffset", offset), zap.Int64("compactedOffset", compactedOffset))
			records, err = nil, status.Error(codes.NotFound, "Some entries have been purged")
			return
		}
	}
	return
}

func (r *LogRepository) GetLastCompactedOffsetForCollection(ctx context.Context, collectionId string) (compactedOffset int64, err error) {
	err = r.conn.QueryRow(ctx,
		`SELECT record_compaction_offset_position FROM collection WHERE id = $1`, collectionId).
		Scan(&compactedOffset)
	return
}

// GetBoundsForCollection returns the offset of the last record compacted and
// the offset of the last record inserted. The range of uncompacted records
// is the interval (start, limit].
func (r *LogRepository) GetBoundsForCollection(ctx context.Context, collectionId string) (start, limit int64, err error) {
	err = r.conn.QueryRow(ctx,
		`SELECT record_compaction_offset_position, record_enumeration_offset_position
		 FROM collection WHERE id = $1`, collectionId).
		Scan(&start, &limit)
	if errors.Is(err, pgx.ErrNoRows) {
		start, limit, err = 0, 0, nil
		return
	}
	if err != nil {
		trace_log.Error("Error in getting offset bounds for collection", zap.Error(err), zap.String("collectionId", collectionId))
	}
	return
}

func (r *LogRepository) UpdateCollectionCompactionOffsetPosition(ctx context.Context, collectionId string, offsetPosition int64) (err error) {
	_, err = r.conn.Exec(ctx,
		`UPDATE collection SET record_compaction_offset_position = $2 WHERE id = $1`,
		collectionId, offsetPosition)
	if err != nil {
		trace_log.Error("Error in updating record_compaction_offset_position in the collection table", zap.Error(err), zap.String("collectionId", collectionId))
		return
	}
	trace_log.Info("Updated record_compaction_offset_position in the collection table", zap.Int64("offsetPosition", offsetPosition), zap.String("collectionId", collectionId))
	return
}

func (r *LogRepository) SealCollection(ctx context.Context, collectionId string) (err error) {
	var tag pgconn.CommandTag
	tag, err = r.conn.Exec(ctx,
		`UPDATE collection SET is_sealed = TRUE WHERE id = $1`, collectionId)
	if err != nil {
		trace_log.Error("Error in sealing collection", zap.Error(err), zap.String("collectionId", collectionId))
		return
	}
	if tag.RowsAffected() == 0 {
		_, err = r.conn.Exec(ctx,
			`INSERT INTO collection (id, is_sealed) VALUES ($1, TRUE)`, collectionId)
	}
	return
}

// PurgeRecords drops every record at or below its collection's compaction
// offset. Pulls below the purge horizon afterwards fail with NotFound.
func (r *LogRepository) PurgeRecords(ctx context.Context) (err error) {
	_, err = r.conn.Exec(ctx,
		`DELETE FROM record_log r USING collection c
		 WHERE r.collection_id = c.id AND r."offset" <= c.record_compaction_offset_position`)
	if err != nil {
		trace_log.Error("Error in purging records from record_log table", zap.Error(err))
	}
	return
}
