package common

import (
	"errors"
)

var (
	// Collection errors
	ErrCollectionIDFormat = errors.New("collection id format error")

	// Log errors
	ErrInvalidBatchSize = errors.New("batch size must be a positive number")
	ErrRecordDecode     = errors.New("record payload decode error")
)
