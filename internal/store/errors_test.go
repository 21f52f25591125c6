package store

import (
	"errors"
	"net/http"
	"testing"
)

func TestErrorWithMessage(t *testing.T) {
	err := ErrNotFound.WithMessage("note not found")

	if err.Code != http.StatusNotFound {
		t.Errorf("Code: got %d, want %d", err.Code, http.StatusNotFound)
	}
	if err.Message != "note not found" {
		t.Errorf("Message: got %q", err.Message)
	}

	// Sentinel must be untouched.
	if ErrNotFound.Message != "resource not found" {
		t.Errorf("sentinel mutated: %q", ErrNotFound.Message)
	}
}

func TestErrorWithCause(t *testing.T) {
	cause := errors.New("disk exploded")
	err := ErrAlreadyExists.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to reach the cause")
	}
	if err.HTTPCode() != http.StatusConflict {
		t.Errorf("HTTPCode: got %d, want %d", err.HTTPCode(), http.StatusConflict)
	}
}
