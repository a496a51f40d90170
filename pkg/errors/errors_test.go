package errors_test

import (
	"errors"
	"fmt"
	"testing"

	acqErrors "github.com/ezoic/acqstat/pkg/errors"
)

// TestErrorWrappingCompatibility tests Go 1.13+ error wrapping with our custom types
func TestErrorWrappingCompatibility(t *testing.T) {
	originalErr := acqErrors.NewNotFittedError("TestModel", "PredictProba")

	wrappedErr := fmt.Errorf("pipeline stage failed: %w", originalErr)

	if !errors.Is(wrappedErr, originalErr) {
		t.Errorf("errors.Is failed to identify wrapped error")
	}

	var notFittedErr *acqErrors.NotFittedError
	if !errors.As(wrappedErr, &notFittedErr) {
		t.Errorf("errors.As failed to extract NotFittedError")
	}

	if notFittedErr.ModelName != "TestModel" {
		t.Errorf("expected ModelName 'TestModel', got '%s'", notFittedErr.ModelName)
	}

	if !errors.Is(wrappedErr, acqErrors.ErrNotFitted) {
		t.Errorf("failed to identify ErrNotFitted sentinel through wrapper")
	}
}

// TestCombinedErrorTypes tests mixing custom and standard errors
func TestCombinedErrorTypes(t *testing.T) {
	stdErr := fmt.Errorf("standard error")

	customErr := acqErrors.NewModelError("TestOp", "test failure", stdErr)

	wrappedErr := fmt.Errorf("operation context: %w", customErr)

	if !errors.Is(wrappedErr, stdErr) {
		t.Errorf("failed to find standard error in chain")
	}

	var modelErr *acqErrors.ModelError
	if !errors.As(wrappedErr, &modelErr) {
		t.Errorf("failed to extract ModelError")
	}

	if modelErr.Unwrap() != stdErr {
		t.Errorf("ModelError.Unwrap() didn't return expected error")
	}
}

// TestSentinelErrors tests sentinel error patterns
func TestSentinelErrors(t *testing.T) {
	err := acqErrors.NewModelError("TestOp", "empty data", acqErrors.ErrEmptyData)

	if !errors.Is(err, acqErrors.ErrEmptyData) {
		t.Errorf("failed to identify ErrEmptyData sentinel")
	}

	wrappedErr := fmt.Errorf("cleaning failed: %w", err)

	if !errors.Is(wrappedErr, acqErrors.ErrEmptyData) {
		t.Errorf("failed to identify ErrEmptyData through wrapper")
	}
}

// TestDimensionErrorSentinel verifies DimensionError unwraps to its sentinel.
func TestDimensionErrorSentinel(t *testing.T) {
	err := acqErrors.NewDimensionError("DummyEncoder.Transform", 4, 2, 1)

	if !errors.Is(err, acqErrors.ErrDimensionMismatch) {
		t.Errorf("DimensionError should match ErrDimensionMismatch")
	}

	var dimErr *acqErrors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("errors.As failed to extract DimensionError")
	}
	if dimErr.Expected != 4 || dimErr.Got != 2 || dimErr.Axis != 1 {
		t.Errorf("unexpected DimensionError fields: %+v", dimErr)
	}
}

// TestConvergenceError verifies ConvergenceError carries iteration context.
func TestConvergenceError(t *testing.T) {
	err := acqErrors.NewConvergenceError("Logistic.Fit", 25, "max coefficient delta 0.3")

	var convErr *acqErrors.ConvergenceError
	if !errors.As(err, &convErr) {
		t.Fatalf("errors.As failed to extract ConvergenceError")
	}
	if convErr.Iterations != 25 {
		t.Errorf("expected 25 iterations, got %d", convErr.Iterations)
	}
}

// TestRecover verifies panics become errors without masking prior errors.
func TestRecover(t *testing.T) {
	f := func() (err error) {
		defer acqErrors.Recover(&err, "TestOp")
		panic("index out of range")
	}

	err := f()
	if err == nil {
		t.Fatalf("expected error from recovered panic")
	}

	var modelErr *acqErrors.ModelError
	if !errors.As(err, &modelErr) {
		t.Fatalf("recovered panic should produce ModelError, got %T", err)
	}
	if modelErr.Op != "TestOp" {
		t.Errorf("expected Op 'TestOp', got %q", modelErr.Op)
	}
}
