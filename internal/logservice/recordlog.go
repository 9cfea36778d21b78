package logservice

import (
	"context"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/chroma/chroma-worker/internal/metastore/db/dao"
	"github.com/chroma/chroma-worker/internal/metastore/db/dbcore"
	"github.com/chroma/chroma-worker/internal/metastore/db/dbmodel"
	"github.com/pingcap/log"
)

var _ IRecordLog = (*RecordLog)(nil)

type RecordLog struct {
	ctx          context.Context
	txImpl       dbmodel.ITransaction
	metaDomain   dbmodel.IMetaDomain
	arrowPool    memory.Allocator
	recordSchema *arrow.Schema
}

func NewLogService(ctx context.Context) (*RecordLog, error) {
	s := &RecordLog{
		ctx:        ctx,
		txImpl:     dbcore.NewTxImpl(),
		metaDomain: dao.NewMetaDomain(),
	}
	return s, nil
}

func (s *RecordLog) Start() error {
	log.Info("RecordLog start")
	// Columnar schema used when handing pulled batches to downstream
	// indexing stages.
	s.arrowPool = memory.NewGoAllocator()
	s.recordSchema = arrow.NewSchema(
		[]arrow.Field{
			{Name: "id", Type: arrow.BinaryTypes.String},
			{Name: "seq_id", Type: arrow.BinaryTypes.Binary},
			{Name: "vector", Type: arrow.StructOf(
				[]arrow.Field{
					{Name: "dimension", Type: arrow.PrimitiveTypes.Int32},
					{Name: "vector", Type: arrow.BinaryTypes.Binary},
					{Name: "scalarEncoding", Type: arrow.PrimitiveTypes.Int32},
				}...)},
			{Name: "metadata", Type: arrow.BinaryTypes.String},
			{Name: "operation", Type: arrow.PrimitiveTypes.Int32},
		},
		nil,
	)
	return nil
}

func (s *RecordLog) Stop() error {
	log.Info("RecordLog stop")
	return nil
}
