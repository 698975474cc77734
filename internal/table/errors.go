package table

import (
	"fmt"
	"strings"
)

// NotFoundError indicates an input file that does not exist.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("file not found: %s", e.Path) }

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseError indicates malformed tabular content or a failed explicit coercion.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError lists every required column absent from a table.
type SchemaError struct {
	Op      string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing columns: [%s]", e.Op, strings.Join(e.Missing, ", "))
}

// ValueError indicates an invalid parameter value.
type ValueError struct {
	Op     string
	Param  string
	Value  any
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: invalid %s=%v: %s", e.Op, e.Param, e.Value, e.Reason)
}

// TypeError indicates a column whose kind does not fit the operation.
type TypeError struct {
	Op     string
	Column string
	Want   Kind
	Got    Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: column %q is %s, want %s", e.Op, e.Column, e.Got, e.Want)
}

// UnsupportedMethodError indicates a method name the operation does not implement.
type UnsupportedMethodError struct {
	Op        string
	Method    string
	Supported []string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("%s: unsupported method %q (supported: %s)", e.Op, e.Method, strings.Join(e.Supported, ", "))
}

// RequireColumns returns a SchemaError naming every absent column, or nil.
func RequireColumns(op string, t *Table, names ...string) error {
	if missing := t.Absent(names...); len(missing) > 0 {
		return &SchemaError{Op: op, Missing: missing}
	}
	return nil
}

// RequireNumeric returns a TypeError when col is not numeric.
func RequireNumeric(op string, t *Table, col string) error {
	if k := t.Kind(col); k != KindNumber {
		return &TypeError{Op: op, Column: col, Want: KindNumber, Got: k}
	}
	return nil
}
