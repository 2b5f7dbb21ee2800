package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrConflict         = errors.New("already exists")

	// ErrDispatch marks a notification channel failure. It never leaves the
	// alert pipeline; it is only recorded on the alert event.
	ErrDispatch = errors.New("notification dispatch failed")
)

// Status maps an error to the HTTP status and machine readable code returned
// to API clients. Unknown errors map to 500.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden, "PERMISSION_DENIED"
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "CONFLICT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// Detail is the error object of an API error response.
type Detail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response is the body written for every failed API request.
type Response struct {
	Error Detail `json:"error"`
}

// JSON returns the status code and body for err. Internal errors are not
// echoed to the client.
func JSON(err error) (int, Response) {
	status, code := Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	return status, Response{Error: Detail{Code: code, Message: msg}}
}
