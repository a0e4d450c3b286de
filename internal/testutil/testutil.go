// Package testutil provides shared test helpers for the numeric packages.
package testutil

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertErrorIs fails the test unless errors.Is(err, target).
func AssertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

// Close reports whether got and want differ by at most tol.
func Close(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

// AssertClose fails the test when got is not within tol of want.
func AssertClose(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if !Close(got, want, tol) {
		t.Errorf("%s = %.12g, want %.12g (tol %g)", name, got, want, tol)
	}
}

// AssertMatrixClose compares two matrices element-wise.
func AssertMatrixClose(t *testing.T, got, want mat.Matrix, tol float64) {
	t.Helper()
	if !mat.EqualApprox(got, want, tol) {
		t.Errorf("matrix mismatch (tol %g)\ngot:\n%v\nwant:\n%v", tol,
			mat.Formatted(got, mat.Prefix("    "), mat.Squeeze()),
			mat.Formatted(want, mat.Prefix("    "), mat.Squeeze()))
	}
}
