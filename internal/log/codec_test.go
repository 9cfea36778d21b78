package log

import (
	"math/big"
	"testing"

	"github.com/chroma/chroma-worker/internal/common"
	"github.com/chroma/chroma-worker/internal/model"
	"github.com/chroma/chroma-worker/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestRecordCodecRoundTrip(t *testing.T) {
	collectionID := types.NewUniqueID()
	// A sequence number a distributed counter could produce, wider than
	// any native word.
	seqID, _ := new(big.Int).SetString("340282366920938463463374607431768211456", 10)
	record := &model.ChangeRecord{
		ID:    "embedding_id_1",
		SeqID: seqID,
		Vector: &model.Vector{
			Dimension: 3,
			Vector:    []byte{0, 0, 128, 63, 0, 0, 0, 64, 0, 0, 64, 64},
			Encoding:  model.Float32,
		},
		Metadata:     map[string]interface{}{"source": "crawler"},
		Operation:    model.Upsert,
		CollectionID: collectionID,
	}

	data, err := EncodeRecord(record)
	assert.NoError(t, err)
	decoded, err := DecodeRecord(data)
	assert.NoError(t, err)
	assert.Equal(t, record.ID, decoded.ID)
	assert.Zero(t, record.SeqID.Cmp(decoded.SeqID))
	assert.Equal(t, record.Vector, decoded.Vector)
	assert.Equal(t, record.Metadata, decoded.Metadata)
	assert.Equal(t, record.Operation, decoded.Operation)
	assert.Equal(t, record.CollectionID, decoded.CollectionID)
}

func TestRecordCodecDelete(t *testing.T) {
	// Deletes carry no vector and no metadata.
	record := &model.ChangeRecord{
		ID:        "embedding_id_2",
		SeqID:     types.NewSeqID(7),
		Operation: model.Delete,
	}
	data, err := EncodeRecord(record)
	assert.NoError(t, err)
	decoded, err := DecodeRecord(data)
	assert.NoError(t, err)
	assert.Nil(t, decoded.Vector)
	assert.Nil(t, decoded.Metadata)
	assert.Equal(t, model.Delete, decoded.Operation)
	assert.Equal(t, types.NilUniqueID(), decoded.CollectionID)
}

func TestRecordCodecRejectsGarbage(t *testing.T) {
	_, err := DecodeRecord([]byte("not json"))
	assert.ErrorIs(t, err, common.ErrRecordDecode)
}
