package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("report not found")
	ErrDuplicateID         = errors.New("report id already exists")
	ErrInvalidStatus       = errors.New("unknown report status")
	ErrInvalidTransition   = errors.New("status can only move forward")
	ErrReportClosed        = errors.New("report is already closed")
	ErrEvidenceRequired    = errors.New("closing a report requires evidence")
	ErrEvidenceWithoutDone = errors.New("evidence can only be attached when closing a report")
	ErrClosed              = errors.New("store is closed")
	ErrUnsupportedVersion  = errors.New("unsupported envelope version")
)

// PersistError is returned when a mutation could not be written after a
// retry. The in-memory state is left as it was before the mutation.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
