package repository

import (
	"context"
	"testing"

	"github.com/chroma/chroma-worker/internal/types"
	libs "github.com/chroma/chroma-worker/shared/libs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type LogTestSuite struct {
	suite.Suite
	t  *testing.T
	lr *LogRepository
}

func (suite *LogTestSuite) SetupSuite() {
	ctx := context.Background()
	connectionString, err := libs.StartPgContainer(ctx)
	assert.NoError(suite.t, err, "Failed to start pg container")
	var conn *pgxpool.Pool
	conn, err = pgxpool.New(ctx, connectionString)
	assert.NoError(suite.t, err, "Failed to create new pg connection")
	suite.lr = NewLogRepository(conn)
	err = suite.lr.MigrateSchema(ctx)
	assert.NoError(suite.t, err, "Failed to create log schema")
}

func (suite *LogTestSuite) TestInsertAndPull() {
	ctx := context.Background()
	collectionID := types.NewUniqueID().String()

	count, isSealed, err := suite.lr.InsertRecords(ctx, collectionID, [][]byte{{1}, {2}, {3}})
	assert.NoError(suite.t, err, "Failed to insert records")
	assert.Equal(suite.t, int64(3), count)
	assert.False(suite.t, isSealed)

	records, err := suite.lr.PullRecords(ctx, collectionID, 0, 10, 0)
	assert.NoError(suite.t, err, "Failed to pull records")
	assert.Len(suite.t, records, 3)
	for index, record := range records {
		assert.Equal(suite.t, int64(index+1), record.Offset)
		assert.Equal(suite.t, []byte{byte(index + 1)}, record.Record)
	}

	// The offset is exclusive and the batch size caps the read.
	records, err = suite.lr.PullRecords(ctx, collectionID, 1, 1, 0)
	assert.NoError(suite.t, err, "Failed to pull records")
	assert.Len(suite.t, records, 1)
	assert.Equal(suite.t, int64(2), records[0].Offset)

	// A second insert continues the offset sequence.
	count, _, err = suite.lr.InsertRecords(ctx, collectionID, [][]byte{{4}})
	assert.NoError(suite.t, err, "Failed to insert records")
	assert.Equal(suite.t, int64(1), count)
	start, limit, err := suite.lr.GetBoundsForCollection(ctx, collectionID)
	assert.NoError(suite.t, err, "Failed to get bounds")
	assert.Equal(suite.t, int64(0), start)
	assert.Equal(suite.t, int64(4), limit)
}

func (suite *LogTestSuite) TestTimestampBound() {
	ctx := context.Background()
	collectionID := types.NewUniqueID().String()

	// Separate inserts get distinct timestamps.
	_, _, err := suite.lr.InsertRecords(ctx, collectionID, [][]byte{{1}})
	assert.NoError(suite.t, err, "Failed to insert records")
	_, _, err = suite.lr.InsertRecords(ctx, collectionID, [][]byte{{2}})
	assert.NoError(suite.t, err, "Failed to insert records")

	records, err := suite.lr.PullRecords(ctx, collectionID, 0, 10, 0)
	assert.NoError(suite.t, err, "Failed to pull records")
	assert.Len(suite.t, records, 2)

	records, err = suite.lr.PullRecords(ctx, collectionID, 0, 10, records[0].Timestamp)
	assert.NoError(suite.t, err, "Failed to pull records with bound")
	assert.Len(suite.t, records, 1)
	assert.Equal(suite.t, int64(1), records[0].Offset)
}

func (suite *LogTestSuite) TestSealedCollection() {
	ctx := context.Background()
	collectionID := types.NewUniqueID().String()

	err := suite.lr.SealCollection(ctx, collectionID)
	assert.NoError(suite.t, err, "Failed to seal collection")

	count, isSealed, err := suite.lr.InsertRecords(ctx, collectionID, [][]byte{{1}})
	assert.NoError(suite.t, err, "Insert into sealed collection should not error")
	assert.Equal(suite.t, int64(0), count)
	assert.True(suite.t, isSealed)
}

func (suite *LogTestSuite) TestPurge() {
	ctx := context.Background()
	collectionID := types.NewUniqueID().String()

	_, _, err := suite.lr.InsertRecords(ctx, collectionID, [][]byte{{1}, {2}, {3}})
	assert.NoError(suite.t, err, "Failed to insert records")

	err = suite.lr.UpdateCollectionCompactionOffsetPosition(ctx, collectionID, 2)
	assert.NoError(suite.t, err, "Failed to update compaction offset")
	err = suite.lr.PurgeRecords(ctx)
	assert.NoError(suite.t, err, "Failed to purge records")

	// Records above the compaction offset survive.
	records, err := suite.lr.PullRecords(ctx, collectionID, 2, 10, 0)
	assert.NoError(suite.t, err, "Failed to pull records")
	assert.Len(suite.t, records, 1)
	assert.Equal(suite.t, int64(3), records[0].Offset)

	// Reads below the purge horizon are refused, not served empty.
	_, err = suite.lr.PullRecords(ctx, collectionID, 0, 10, 0)
	assert.Error(suite.t, err)
	assert.Equal(suite.t, codes.NotFound, status.Code(err))
}

func TestLogTestSuite(t *testing.T) {
	testSuite := new(LogTestSuite)
	testSuite.t = t
	suite.Run(t, testSuite)
}
