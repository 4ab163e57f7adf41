// Package alerr provides the coded error type used across seqgen.
// Every error carries a stable code, a message, sorted context and an optional cause.
package alerr

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Code is a stable, machine-readable error code of the form E{category}{number}.
type Code string

const (
	// Schema errors (E1xxx) - problems with table metadata
	ErrSchemaInvalid     Code = "E1001" // Schema document is malformed
	ErrSchemaNotFound    Code = "E1002" // Schema source does not exist
	ErrTableDuplicate    Code = "E1003" // Two tables share a name
	ErrColumnDuplicate   Code = "E1004" // Two columns in one table share a name
	ErrInvalidReference  Code = "E1005" // Index or foreign key names an unknown column or table
	ErrInvalidColumnType Code = "E1006" // Column type string cannot be parsed

	// Type errors (E2xxx) - datatype mapping
	ErrUnknownType Code = "E2001" // Datatype has no Sequelize counterpart

	// Output errors (E3xxx) - writing generated files
	ErrWriteFailed  Code = "E3001" // Writer could not open, write or close a file
	ErrOutputPath   Code = "E3002" // Output path escapes the target directory
	ErrObjectStore  Code = "E3003" // Object store upload failed
	ErrManifestRead Code = "E3004" // Manifest could not be read or parsed
	ErrDrift        Code = "E3005" // Generated files differ from the manifest

	// Config errors (E4xxx)
	ErrConfigInvalid  Code = "E4001" // Configuration value is out of range
	ErrConfigRead     Code = "E4002" // Configuration file could not be read
	ErrCommonProps    Code = "E4003" // Common properties file is not a JSON object
	ErrInvalidPattern Code = "E4004" // File name pattern is unusable

	// JS errors (E5xxx) - verification of generated modules
	ErrJSSyntax    Code = "E5001" // Generated source does not parse
	ErrJSExecution Code = "E5002" // Generated module failed to evaluate
	ErrJSShape     Code = "E5003" // Module evaluated but did not call Model.init

	// Introspection errors (E6xxx)
	ErrIntrospection    Code = "E6001" // Database introspection failed
	ErrSQLConnection    Code = "E6002" // Database connection failed
	ErrSQLExecution     Code = "E6003" // Catalog query failed
	EUnsupportedDialect Code = "E6004" // Dialect is not supported

	// Internal errors (E9xxx)
	EInternalError Code = "E9001"
)

// Error is the structured error type.
type Error struct {
	code    Code
	message string
	context map[string]any
	cause   error
	stack   string
}

// Error returns the formatted error string.
// Format:
//
//	[E3001] failed to write model file
//	  file: models/User.js
//	  table: users
//	  cause: disk full
func (e *Error) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", e.code, e.message)

	if len(e.context) > 0 {
		keys := make([]string, 0, len(e.context))
		for k := range e.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			fmt.Fprintf(&b, "\n  %s: %v", k, e.context[k])
		}
	}

	if e.cause != nil {
		fmt.Fprintf(&b, "\n  cause: %v", e.cause)
	}

	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.code == targetErr.code
	}

	return false
}

// GetCode returns the error code.
func (e *Error) GetCode() Code {
	return e.code
}

// GetMessage returns the error message.
func (e *Error) GetMessage() string {
	return e.message
}

// GetContext returns the error context map.
func (e *Error) GetContext() map[string]any {
	return e.context
}

// GetCause returns the underlying cause error.
func (e *Error) GetCause() error {
	return e.cause
}

// GetStack returns the captured stack trace.
func (e *Error) GetStack() string {
	return e.stack
}

// With adds a key-value pair to the error context and returns the error.
func (e *Error) With(key string, value any) *Error {
	if e.context == nil {
		e.context = make(map[string]any)
	}
	e.context[key] = value
	return e
}

// WithTable adds table context.
func (e *Error) WithTable(table string) *Error {
	return e.With("table", table)
}

// WithColumn adds column context.
func (e *Error) WithColumn(name string) *Error {
	return e.With("column", name)
}

// WithFile adds file location context. A zero line is omitted.
func (e *Error) WithFile(path string, line int) *Error {
	e.With("file", path)
	if line > 0 {
		e.With("line", line)
	}
	return e
}

// WithHelp appends a help suggestion.
func (e *Error) WithHelp(help string) *Error {
	helps, _ := e.context["helps"].([]string)
	helps = append(helps, help)
	return e.With("helps", helps)
}

// Helps returns all help suggestions attached to this error.
func (e *Error) Helps() []string {
	helps, _ := e.context["helps"].([]string)
	return helps
}

func captureStack(skip int) string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return b.String()
}

// New creates an Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
		stack:   captureStack(3),
	}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		code:    code,
		message: fmt.Sprintf(format, args...),
		context: make(map[string]any),
		stack:   captureStack(3),
	}
}

// Wrap creates an Error wrapping err. A nil err behaves like New.
func Wrap(code Code, err error, msg string) *Error {
	if err == nil {
		return New(code, msg)
	}
	return &Error{
		code:    code,
		message: msg,
		context: make(map[string]any),
		cause:   err,
		stack:   captureStack(3),
	}
}

// Wrapf creates an Error wrapping err with a formatted message.
func Wrapf(code Code, err error, format string, args ...any) *Error {
	return Wrap(code, err, fmt.Sprintf(format, args...))
}

// GetErrorCode extracts the first code found in an error chain.
func GetErrorCode(err error) Code {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.code
	}

	return ""
}

// Is checks if an error has the specified code.
func Is(err error, code Code) bool {
	return GetErrorCode(err) == code
}

// WrapSQL creates an ErrSQLExecution error with table context.
// Example: WrapSQL(err, "introspect columns", "users")
func WrapSQL(err error, op string, table string) *Error {
	e := Wrap(ErrSQLExecution, err, "failed to "+op)
	if table != "" {
		e.WithTable(table)
	}
	return e
}
