package importer

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingHeader is returned when the input ends before a field list was found.
	ErrMissingHeader = errors.New("missing header")
	// ErrMalformedHeader is returned for an ATT field-list line without a colon.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrFieldCount marks a record whose field count does not fit the header.
	ErrFieldCount = errors.New("wrong number of fields")
	// ErrUnknownFormat is returned by ParseFormat and Load for unsupported formats.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrInvalidDelimiter is returned for delimiters that cannot separate fields.
	ErrInvalidDelimiter = errors.New("invalid delimiter")
)

// RowError describes a data record that could not be inserted.
type RowError struct {
	Line   int // 1-based line in the source
	Fields int // fields found on the line
	Want   int // columns in the table
	Err    error
}

func (e *RowError) Error() string {
	if errors.Is(e.Err, ErrFieldCount) {
		return fmt.Sprintf("line %d: %v: got %d, want %d", e.Line, e.Err, e.Fields, e.Want)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
