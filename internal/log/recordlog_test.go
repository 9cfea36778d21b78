package log_test

import (
	"context"
	"testing"

	"github.com/chroma/chroma-worker/internal/execution/operators"
	chromalog "github.com/chroma/chroma-worker/internal/log"
	"github.com/chroma/chroma-worker/internal/logservice"
	"github.com/chroma/chroma-worker/internal/metastore/db/dao"
	"github.com/chroma/chroma-worker/internal/metastore/db/dbcore"
	"github.com/chroma/chroma-worker/internal/model"
	"github.com/chroma/chroma-worker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type RecordLogBackedSuite struct {
	suite.Suite
	t          *testing.T
	db         *gorm.DB
	logService *logservice.RecordLog
}

func (s *RecordLogBackedSuite) SetupSuite() {
	s.db = dbcore.ConfigDatabaseForTesting()
	logService, err := logservice.NewLogService(context.Background())
	assert.NoError(s.t, err)
	assert.NoError(s.t, logService.Start())
	s.logService = logService
}

func (s *RecordLogBackedSuite) SetupTest() {
	dbcore.CreateTestTables(s.db)
}

func (s *RecordLogBackedSuite) TearDownSuite() {
	assert.NoError(s.t, s.logService.Stop())
}

func (s *RecordLogBackedSuite) pushRecords(collectionID types.UniqueID, count int) {
	contents := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		data, err := chromalog.EncodeRecord(&model.ChangeRecord{
			ID:           types.NewUniqueID().String(),
			SeqID:        types.NewSeqID(int64(i + 1)),
			Operation:    model.Add,
			CollectionID: collectionID,
		})
		assert.NoError(s.t, err)
		contents = append(contents, data)
	}
	pushed, err := s.logService.PushLogs(context.Background(), collectionID, contents)
	assert.NoError(s.t, err)
	assert.Equal(s.t, count, pushed)
}

func (s *RecordLogBackedSuite) TestPullThroughOperator() {
	ctx := context.Background()
	collectionID := types.NewUniqueID()
	s.pushRecords(collectionID, 5)

	client := chromalog.NewBackedByRecordLog(dao.NewMetaDomain().RecordLogDb(ctx), chromalog.DecodeRecord)
	pullOperator := operators.NewPullLogsOperator(client)

	output, err := pullOperator.Run(ctx, operators.NewPullLogsInput(collectionID, 0, 2, 0, 0))
	assert.NoError(s.t, err)
	records := output.Logs()
	assert.Len(s.t, records, 5)
	for index, record := range records {
		assert.Equal(s.t, int64(index+1), record.LogID)
		assert.Equal(s.t, collectionID.String(), record.CollectionID)
		assert.Equal(s.t, types.NewSeqID(int64(index+1)), record.Record.SeqID)
		assert.Equal(s.t, model.Add, record.Record.Operation)
	}

	// A cap truncates to exactly the first numRecords entries.
	output, err = pullOperator.Run(ctx, operators.NewPullLogsInput(collectionID, 0, 2, 3, 0))
	assert.NoError(s.t, err)
	assert.Len(s.t, output.Logs(), 3)
}

func (s *RecordLogBackedSuite) TestRejectsMalformedCollectionID() {
	ctx := context.Background()
	client := chromalog.NewBackedByRecordLog(dao.NewMetaDomain().RecordLogDb(ctx), chromalog.DecodeRecord)

	_, err := client.Read(ctx, "not-a-uuid", 0, 10, 0)
	assert.Error(s.t, err)
}

func TestRecordLogBackedSuite(t *testing.T) {
	testSuite := new(RecordLogBackedSuite)
	testSuite.t = t
	suite.Run(t, testSuite)
}
