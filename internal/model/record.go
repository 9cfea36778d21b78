package model

import (
	"github.com/chroma/chroma-worker/internal/types"
)

// Operation is the kind of mutation a change record applies to an item.
type Operation int32

const (
	Add Operation = iota
	Update
	Upsert
	Delete
)

func (op Operation) String() string {
	switch op {
	case Add:
		return "ADD"
	case Update:
		return "UPDATE"
	case Upsert:
		return "UPSERT"
	case Delete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// ScalarEncoding tags how the raw vector payload is encoded.
type ScalarEncoding int32

const (
	Float32 ScalarEncoding = iota
	Int32
)

func (e ScalarEncoding) String() string {
	switch e {
	case Float32:
		return "FLOAT32"
	case Int32:
		return "INT32"
	default:
		return "UNKNOWN"
	}
}

type Vector struct {
	Dimension int32
	Vector    []byte
	Encoding  ScalarEncoding
}

// ChangeRecord is a single logged mutation against a vector item. Vector and
// Metadata are nil for operations that do not carry them (e.g. Delete).
type ChangeRecord struct {
	ID           string
	SeqID        types.SeqID
	Vector       *Vector
	Metadata     map[string]interface{}
	Operation    Operation
	CollectionID types.UniqueID
}

// LogRecord wraps a change record with the position and timestamp the log
// store assigned to it when the record was appended.
type LogRecord struct {
	CollectionID string
	LogID        int64
	LogIDTs      types.Timestamp
	Record       *ChangeRecord
}
