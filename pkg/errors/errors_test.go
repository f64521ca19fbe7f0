package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"idea not found", ErrIdeaNotFound, http.StatusNotFound},
		{"wrapped problem not found", fmt.Errorf("loading base: %w", ErrProblemNotFound), http.StatusNotFound},
		{"invalid category", fmt.Errorf("%w: %q", ErrInvalidCategory, "X"), http.StatusBadRequest},
		{"invalid status", ErrInvalidStatus, http.StatusBadRequest},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"unavailable", ErrUnavailable, http.StatusServiceUnavailable},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"app error wins", New(ErrIdeaNotFound, http.StatusGone, "archived"), http.StatusGone},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTTPStatusCode(tc.err); got != tc.want {
				t.Errorf("HTTPStatusCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrInvalidInput, http.StatusBadRequest, "score %v out of range", 1.5)
	if !IsNotFound(New(ErrProblemNotFound, 404, "x")) {
		t.Error("IsNotFound should see through AppError")
	}
	if got := err.Error(); got != "invalid input: score 1.5 out of range" {
		t.Errorf("Error() = %q", got)
	}
}
