package source

import (
	"fmt"
	"strings"
)

// SchemaError reports a header that cannot serve the pipeline: missing
// required columns, duplicate names, or a lookup of a column that does not exist.
type SchemaError struct {
	Columns []string
	Reason  string
}

func (e *SchemaError) Error() string {
	if len(e.Columns) == 0 {
		return "schema: " + e.Reason
	}
	return fmt.Sprintf("schema: %s: %s", e.Reason, strings.Join(e.Columns, ", "))
}

// MalformedDateError is returned when a DATE cell matches none of the layouts.
type MalformedDateError struct {
	Line  int
	Value string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("line %d: malformed date %q", e.Line, e.Value)
}

// MalformedPriceError is returned when a UNIT_PRICE cell is not numeric
// once thousands separators are stripped.
type MalformedPriceError struct {
	Line  int
	Value string
	Err   error
}

func (e *MalformedPriceError) Error() string {
	return fmt.Sprintf("line %d: malformed unit price %q", e.Line, e.Value)
}

func (e *MalformedPriceError) Unwrap() error { return e.Err }

// MalformedQuantityError is returned when a QUANTITY cell is not a
// non-negative whole number.
type MalformedQuantityError struct {
	Line  int
	Value string
}

func (e *MalformedQuantityError) Error() string {
	return fmt.Sprintf("line %d: malformed quantity %q", e.Line, e.Value)
}
