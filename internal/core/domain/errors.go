package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSchema = errors.New("invalid schema")
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
)

// SchemaError reports a malformed schema declaration. It always names the
// table involved and, where one is at fault, the column.
type SchemaError struct {
	Table  string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Table == "":
		return fmt.Sprintf("invalid schema: %s", e.Reason)
	case e.Column == "":
		return fmt.Sprintf("invalid schema: table %q: %s", e.Table, e.Reason)
	default:
		return fmt.Sprintf("invalid schema: table %q, column %q: %s", e.Table, e.Column, e.Reason)
	}
}

func (e *SchemaError) Unwrap() error {
	return ErrInvalidSchema
}

func schemaErr(table, column, format string, args ...any) *SchemaError {
	return &SchemaError{Table: table, Column: column, Reason: fmt.Sprintf(format, args...)}
}
