package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(Validation("bad input")); got != KindValidation {
		t.Errorf("expected KindValidation, got %v", got)
	}
	if got := KindOf(errors.New("pgx: connection refused")); got != KindInternal {
		t.Errorf("foreign errors must map to KindInternal, got %v", got)
	}
	if got := KindOf(nil); got != KindInternal {
		t.Errorf("nil must map to KindInternal, got %v", got)
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("removing doctor: %w", Invariant("cannot remove the only doctor"))
	if !IsKind(wrapped, KindInvariantViolation) {
		t.Error("kind must survive error wrapping")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("x"), http.StatusBadRequest},
		{NotFound("x"), http.StatusNotFound},
		{PermissionDenied("x"), http.StatusForbidden},
		{NotSupported("x"), http.StatusForbidden},
		{Duplicate("x"), http.StatusConflict},
		{Invariant("x"), http.StatusConflict},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestMessage_HidesInternalDetail(t *testing.T) {
	if got := Message(NotFound("schedule not found")); got != "schedule not found" {
		t.Errorf("taxonomy messages pass through, got %q", got)
	}
	if got := Message(errors.New("dial tcp 10.0.0.5:5432: i/o timeout")); got != "internal server error" {
		t.Errorf("storage detail must not leak, got %q", got)
	}
}

func TestKindString(t *testing.T) {
	if KindDuplicate.String() != "duplicate_entity" {
		t.Errorf("unexpected name: %s", KindDuplicate)
	}
	if Kind(99).String() != "internal_error" {
		t.Errorf("unknown kinds collapse to internal_error, got %s", Kind(99))
	}
}
