// Package errors defines the error types used throughout acqstat.
//
// The package provides a small taxonomy of typed errors for the analysis
// pipeline (data, dimension, fitted-state, convergence and schema errors),
// a set of sentinel errors for errors.Is checks, and a Recover helper that
// converts panics inside numerical routines into ordinary errors.
//
// All errors are compatible with Go 1.13+ error wrapping: they implement
// Unwrap where they carry a cause, and work with errors.Is and errors.As
// through arbitrary levels of fmt.Errorf("%w") wrapping.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// prefix is prepended to every error message produced by this package.
const prefix = "acqstat"

// Sentinel errors for common failure conditions.
var (
	// ErrEmptyData indicates an operation received no rows or no columns.
	ErrEmptyData = errors.New("empty data")

	// ErrNotFitted indicates a model was used before Fit.
	ErrNotFitted = errors.New("model is not fitted")

	// ErrSingularMatrix indicates a linear system could not be solved.
	ErrSingularMatrix = errors.New("singular matrix")

	// ErrDimensionMismatch indicates incompatible shapes.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// ModelError wraps a failure inside a model or pipeline operation.
type ModelError struct {
	Op      string // operation, e.g. "Logistic.Fit"
	Message string
	Err     error // underlying cause, may be nil
}

// NewModelError creates a ModelError wrapping cause.
func NewModelError(op, message string, cause error) *ModelError {
	return &ModelError{Op: op, Message: message, Err: cause}
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", prefix, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ModelError) Unwrap() error { return e.Err }

// DimensionError reports a shape mismatch between expected and actual data.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 = rows, 1 = columns
}

// NewDimensionError creates a DimensionError for the given operation.
func NewDimensionError(op string, expected, got, axis int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

func (e *DimensionError) Error() string {
	axis := "rows"
	if e.Axis == 1 {
		axis = "columns"
	}
	return fmt.Sprintf("%s: %s: dimension mismatch on %s: expected %d, got %d",
		prefix, e.Op, axis, e.Expected, e.Got)
}

// Unwrap allows errors.Is(err, ErrDimensionMismatch).
func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// ValueError reports an invalid argument value.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError for the given operation.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Message)
}

// ValidationError reports data that failed a content check, carrying the
// offending value for diagnostics.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed for %s: %s", prefix, e.Field, e.Message)
}

// NotFittedError indicates a model method was called before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: %s.%s called before Fit", prefix, e.ModelName, e.Method)
}

// Unwrap allows errors.Is(err, ErrNotFitted).
func (e *NotFittedError) Unwrap() error { return ErrNotFitted }

// ConvergenceError indicates an iterative fit did not converge. The fit that
// produced it may still carry usable partial results; callers decide whether
// to treat it as a warning or a failure.
type ConvergenceError struct {
	Op         string
	Iterations int
	Message    string
}

// NewConvergenceError creates a ConvergenceError after the given number of
// iterations.
func NewConvergenceError(op string, iterations int, message string) *ConvergenceError {
	return &ConvergenceError{Op: op, Iterations: iterations, Message: message}
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: %s: did not converge after %d iterations: %s",
		prefix, e.Op, e.Iterations, e.Message)
}

// SchemaError indicates the input data does not match the expected column
// schema. Schema errors are fatal to the whole pipeline.
type SchemaError struct {
	Column  string
	Message string
}

// NewSchemaError creates a SchemaError for the given column.
func NewSchemaError(column, message string) *SchemaError {
	return &SchemaError{Column: column, Message: message}
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: schema error on column %q: %s", prefix, e.Column, e.Message)
}

// Recover converts a panic in the calling function into an error assigned to
// *err, preserving any error already present. Intended for use as
//
//	defer errors.Recover(&err, "Logistic.Fit")
//
// around numerical code where index or shape panics from gonum are possible.
func Recover(err *error, op string) {
	if r := recover(); r != nil {
		var cause error
		if e, ok := r.(error); ok {
			cause = e
		} else {
			cause = errors.Newf("panic: %v", r)
		}
		*err = NewModelError(op, "recovered from panic", cause)
	}
}
