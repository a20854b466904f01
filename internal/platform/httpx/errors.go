// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors mapped to HTTP problems.
var (
	ErrNotFound    = errors.New("resource not found")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("service unavailable")
	ErrNotReady    = errors.New("no data loaded yet")
)

// RespondError maps errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotReady):
		Problem(w, http.StatusConflict, "Not Ready", err.Error())
	case errors.Is(err, ErrUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Unavailable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
