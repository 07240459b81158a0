package catalog

import (
	"errors"
	"fmt"

	"optioncatalog/internal/models"
	"optioncatalog/internal/storage"
)

var (
	// ErrRangeConflict is wrapped by RangeConflictError.
	ErrRangeConflict = errors.New("range conflict")
	// ErrNotFound is returned for cache misses and absent instruments. It
	// is the same sentinel the storage layer uses.
	ErrNotFound = storage.ErrNotFound
	// ErrInvalidPattern marks instrument patterns with a '*' anywhere but
	// the end.
	ErrInvalidPattern = errors.New("invalid instrument pattern")
	// ErrInstrumentMismatch is recorded for records that do not belong to
	// the instrument being written.
	ErrInstrumentMismatch = errors.New("record instrument does not match write")
	// ErrStrictWrite aborts a strict write that had rejected records.
	ErrStrictWrite = errors.New("strict write rejected")
)

// RangeConflictError reports a write that overlaps a committed partition.
type RangeConflictError struct {
	Tier       string
	Instrument models.InstrumentID
	Requested  storage.Range
	Existing   storage.Range
}

func (e *RangeConflictError) Error() string {
	return fmt.Sprintf("%s %s: range [%d,%d] overlaps committed range [%d,%d]",
		e.Tier, e.Instrument, e.Requested.Start, e.Requested.End, e.Existing.Start, e.Existing.End)
}

func (e *RangeConflictError) Unwrap() error { return ErrRangeConflict }

// RecordError ties a rejected record to its position in the write batch.
type RecordError struct {
	Index   int
	TsEvent int64
	Err     error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d (ts %d): %v", e.Index, e.TsEvent, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }
