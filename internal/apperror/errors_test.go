package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("rule 3: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{ErrPermissionDenied, http.StatusForbidden, "PERMISSION_DENIED"},
		{fmt.Errorf("%w: bad threshold", ErrInvalidArgument), http.StatusBadRequest, "INVALID_ARGUMENT"},
		{ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{ErrConflict, http.StatusConflict, "CONFLICT"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		status, code := Status(tt.err)
		if status != tt.status || code != tt.code {
			t.Errorf("Status(%v) = %d %s, want %d %s", tt.err, status, code, tt.status, tt.code)
		}
	}
}

func TestJSONHidesInternalErrors(t *testing.T) {
	status, body := JSON(errors.New("pq: connection refused"))
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d", status)
	}
	if body.Error.Message != "internal server error" {
		t.Errorf("internal error leaked: %q", body.Error.Message)
	}

	_, body = JSON(fmt.Errorf("reservoir 7: %w", ErrNotFound))
	if body.Error.Message != "reservoir 7: not found" || body.Error.Code != "NOT_FOUND" {
		t.Errorf("body = %+v", body)
	}
}
