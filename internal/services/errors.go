package services

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBatch          = errors.New("candidate batch is empty")
	ErrInvalidMode         = errors.New("upload mode must be full or append")
	ErrInsufficientHistory = errors.New("at least two history entries are required for a trend")
	ErrInvalidCredential   = errors.New("invalid admin credential")
	ErrAdminDisabled       = errors.New("admin operations are not configured")
	ErrInvalidToken        = errors.New("invalid or consumed admin token")
)

// Stages reported by PartialBatchError.
const (
	StageDelete = "delete"
	StageInsert = "insert"
	StageClear  = "clear"
)

// PartialBatchError reports a multi-batch write that stopped partway.
// Sub-batches committed before the failure stay committed.
type PartialBatchError struct {
	Stage     string
	Committed int
	Total     int
	Err       error
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("%s stage stopped after %d of %d records: %v", e.Stage, e.Committed, e.Total, e.Err)
}

func (e *PartialBatchError) Unwrap() error {
	return e.Err
}
