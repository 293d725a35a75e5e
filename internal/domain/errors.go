package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIngestion matches any *IngestionError.
	ErrIngestion = errors.New("ingestion failed")
	// ErrDataConflict matches any *DataConflictError.
	ErrDataConflict = errors.New("data conflict")
	// ErrInvalidField matches any *InvalidFieldError.
	ErrInvalidField = errors.New("invalid field")
)

// IngestionError reports a source that could not be turned into a table:
// unreadable file, missing sheet, missing column or a malformed cell.
// Row is the 1-based sheet row (0 when not row specific).
type IngestionError struct {
	Source string
	Row    int
	Column string
	Err    error
}

func (e *IngestionError) Error() string {
	var b strings.Builder
	b.WriteString("ingest")
	if e.Source != "" {
		b.WriteString(" ")
		b.WriteString(e.Source)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *IngestionError) Unwrap() error { return e.Err }

func (e *IngestionError) Is(target error) bool { return target == ErrIngestion }

// DataConflictError lists every (date, pond) key that appears more than once
// where a single record was required.
type DataConflictError struct {
	Keys []RecordKey
}

func (e *DataConflictError) Error() string {
	keys := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		keys[i] = k.String()
	}
	return fmt.Sprintf("data conflict: duplicate records for %s", strings.Join(keys, ", "))
}

func (e *DataConflictError) Is(target error) bool { return target == ErrDataConflict }

// InvalidFieldError is returned for an unrecognized series field or grouping
// key. Valid lists the accepted names.
type InvalidFieldError struct {
	Field string
	Valid []string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %q (valid: %s)", e.Field, strings.Join(e.Valid, ", "))
}

func (e *InvalidFieldError) Is(target error) bool { return target == ErrInvalidField }
