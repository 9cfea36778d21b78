package dao

import (
	"context"

	"github.com/chroma/chroma-worker/internal/metastore/db/dbcore"
	"github.com/chroma/chroma-worker/internal/metastore/db/dbmodel"
)

type metaDomain struct{}

func NewMetaDomain() *metaDomain {
	return &metaDomain{}
}

func (*metaDomain) RecordLogDb(ctx context.Context) dbmodel.IRecordLogDb {
	return &recordLogDb{dbcore.GetDB(ctx)}
}
