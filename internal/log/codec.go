package log

import (
	"encoding/json"
	"math/big"

	"github.com/chroma/chroma-worker/internal/common"
	"github.com/chroma/chroma-worker/internal/model"
	"github.com/chroma/chroma-worker/internal/types"
)

// Reference JSON codec for record payloads. Producers that own a different
// wire format inject their own RecordDecoder instead.

type jsonVector struct {
	Dimension int32  `json:"dimension"`
	Vector    []byte `json:"vector"`
	Encoding  int32  `json:"encoding"`
}

type jsonRecord struct {
	ID           string                 `json:"id"`
	SeqID        string                 `json:"seq_id"`
	Vector       *jsonVector            `json:"vector,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Operation    int32                  `json:"operation"`
	CollectionID string                 `json:"collection_id,omitempty"`
}

func EncodeRecord(record *model.ChangeRecord) ([]byte, error) {
	wire := jsonRecord{
		ID:        record.ID,
		Metadata:  record.Metadata,
		Operation: int32(record.Operation),
	}
	if record.SeqID != nil {
		wire.SeqID = record.SeqID.String()
	}
	if record.Vector != nil {
		wire.Vector = &jsonVector{
			Dimension: record.Vector.Dimension,
			Vector:    record.Vector.Vector,
			Encoding:  int32(record.Vector.Encoding),
		}
	}
	if record.CollectionID != types.NilUniqueID() {
		wire.CollectionID = record.CollectionID.String()
	}
	return json.Marshal(wire)
}

func DecodeRecord(data []byte) (*model.ChangeRecord, error) {
	var wire jsonRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, common.ErrRecordDecode
	}
	record := &model.ChangeRecord{
		ID:        wire.ID,
		Metadata:  wire.Metadata,
		Operation: model.Operation(wire.Operation),
	}
	if wire.SeqID != "" {
		seqID, ok := new(big.Int).SetString(wire.SeqID, 10)
		if !ok {
			return nil, common.ErrRecordDecode
		}
		record.SeqID = seqID
	}
	if wire.Vector != nil {
		record.Vector = &model.Vector{
			Dimension: wire.Vector.Dimension,
			Vector:    wire.Vector.Vector,
			Encoding:  model.ScalarEncoding(wire.Vector.Encoding),
		}
	}
	if wire.CollectionID != "" {
		id, err := types.Parse(wire.CollectionID)
		if err != nil {
			return nil, common.ErrCollectionIDFormat
		}
		record.CollectionID = id
	}
	return record, nil
}

var _ RecordDecoder = DecodeRecord
