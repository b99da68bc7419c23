package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFound(t *testing.T) {
	err := NotFound("resource not found")

	if err.Kind != ErrNotFound {
		t.Errorf("expected Kind to be ErrNotFound (%d), got %d", ErrNotFound, err.Kind)
	}
	if err.Message != "resource not found" {
		t.Errorf("expected Message to be 'resource not found', got '%s'", err.Message)
	}
	if err.Err != nil {
		t.Errorf("expected Err to be nil, got %v", err.Err)
	}
}

func TestNotFoundf(t *testing.T) {
	err := NotFoundf("sample %d not found", 123)

	if err.Kind != ErrNotFound {
		t.Errorf("expected Kind to be ErrNotFound (%d), got %d", ErrNotFound, err.Kind)
	}
	if err.Message != "sample 123 not found" {
		t.Errorf("expected Message to be 'sample 123 not found', got '%s'", err.Message)
	}
}

func TestValidation(t *testing.T) {
	err := Validation("invalid harvest year")

	if err.Kind != ErrValidation {
		t.Errorf("expected Kind to be ErrValidation (%d), got %d", ErrValidation, err.Kind)
	}
	if err.Message != "invalid harvest year" {
		t.Errorf("unexpected message '%s'", err.Message)
	}
}

func TestConflictf(t *testing.T) {
	err := Conflictf("sample %d already evaluated", 9)

	if err.Kind != ErrConflict {
		t.Errorf("expected Kind to be ErrConflict, got %d", err.Kind)
	}
	if err.Message != "sample 9 already evaluated" {
		t.Errorf("unexpected message '%s'", err.Message)
	}
}

func TestKindConstructors(t *testing.T) {
	cases := []struct {
		err  *Error
		kind Kind
	}{
		{InvalidTransitionf("bad move"), ErrInvalidTransition},
		{CapacityExceededf("judge %d full", 4), ErrCapacityExceeded},
		{Duplicatef("again"), ErrDuplicate},
		{GateDeniedf("not paid"), ErrGateDenied},
		{StaleWrite("lost race"), ErrStaleWrite},
		{InvalidInput("bad"), ErrInvalidInput},
	}
	for _, tc := range cases {
		if tc.err.Kind != tc.kind {
			t.Errorf("constructor for kind %d produced %d", tc.kind, tc.err.Kind)
		}
	}
}

func TestInternal_WrapsError(t *testing.T) {
	inner := errors.New("disk full")
	err := Internal(inner)

	if err.Kind != ErrInternal {
		t.Errorf("expected ErrInternal, got %d", err.Kind)
	}
	if !errors.Is(err, inner) {
		t.Error("expected wrapped error to be reachable via errors.Is")
	}
}

func TestError_MessageFormat(t *testing.T) {
	plain := Validation("bad value")
	if plain.Error() != "bad value" {
		t.Errorf("unexpected Error(): %s", plain.Error())
	}

	wrapped := Wrap(errors.New("no such table"), ErrInternal, "query failed")
	want := fmt.Sprintf("%s: %v", "query failed", "no such table")
	if wrapped.Error() != want {
		t.Errorf("expected '%s', got '%s'", want, wrapped.Error())
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("root cause")
	err := Wrap(inner, ErrConflict, "outer")

	if errors.Unwrap(err) != inner {
		t.Error("expected Unwrap to return the inner error")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(GateDeniedf("not paid")); got != ErrGateDenied {
		t.Errorf("expected ErrGateDenied, got %v", got)
	}

	wrapped := fmt.Errorf("handling request: %w", StaleWrite("lost the race"))
	if got := KindOf(wrapped); got != ErrStaleWrite {
		t.Errorf("expected ErrStaleWrite through wrapping, got %v", got)
	}

	if got := KindOf(errors.New("plain")); got != ErrInternal {
		t.Errorf("expected ErrInternal for foreign errors, got %v", got)
	}
}
