package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrDeserialization indicates the input does not match the expected row shape.
	ErrDeserialization = errors.New("dataset deserialization failed")
	// ErrInvalidSplit indicates split points that are not strictly increasing within (0,1).
	ErrInvalidSplit = errors.New("invalid split points")
	// ErrInvalidWeight indicates a negative, non-finite, or misaligned instance weight.
	ErrInvalidWeight = errors.New("invalid instance weight")
	// ErrUnknownColumn indicates a column name absent from the schema.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnsupportedFormat indicates a serialization format the loader cannot read.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// DeserializationError describes where a blob failed to match the schema.
// Record is -1 when the failure concerns the schema or the document as a whole.
type DeserializationError struct {
	Record int
	Field  string
	Err    error
}

func (e *DeserializationError) Error() string {
	switch {
	case e.Record < 0 && e.Field == "":
		return fmt.Sprintf("%s: %v", ErrDeserialization, e.Err)
	case e.Record < 0:
		return fmt.Sprintf("%s: %s: %v", ErrDeserialization, e.Field, e.Err)
	case e.Field == "":
		return fmt.Sprintf("%s: record %d: %v", ErrDeserialization, e.Record, e.Err)
	}
	return fmt.Sprintf("%s: record %d: %s: %v", ErrDeserialization, e.Record, e.Field, e.Err)
}

// Unwrap exposes both ErrDeserialization and the underlying cause to errors.Is.
func (e *DeserializationError) Unwrap() []error {
	return []error{ErrDeserialization, e.Err}
}

func schemaError(field string, format string, args ...any) error {
	return &DeserializationError{Record: -1, Field: field, Err: fmt.Errorf(format, args...)}
}

func recordError(record int, field string, format string, args ...any) error {
	return &DeserializationError{Record: record, Field: field, Err: fmt.Errorf(format, args...)}
}
