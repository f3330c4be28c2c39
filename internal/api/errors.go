package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/npezzotti/go-interview/internal/database"
	"github.com/npezzotti/go-interview/internal/interview"
)

const (
	statusSuccess = "success"
	statusFail    = "fail"
)

type ApiError struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

func newApiError(code int, message string, err error) *ApiError {
	if message == "" {
		message = lower(http.StatusText(code))
	}
	return &ApiError{
		Status:     statusFail,
		StatusCode: code,
		Message:    message,
		Err:        err,
	}
}

func NewBadRequestError() *ApiError {
	return newApiError(http.StatusBadRequest, "", nil)
}

// NewValidationError is a 400 carrying a message the client can act on.
func NewValidationError(message string) *ApiError {
	return newApiError(http.StatusBadRequest, message, nil)
}

func NewNotFoundError() *ApiError {
	return newApiError(http.StatusNotFound, "", nil)
}

func NewConflictError(message string) *ApiError {
	return newApiError(http.StatusConflict, message, nil)
}

func NewInternalServerError(err error) *ApiError {
	return newApiError(http.StatusInternalServerError, "", err)
}

func NewUnauthorizedError() *ApiError {
	return newApiError(http.StatusUnauthorized, "", nil)
}

func NewServiceUnavailableError() *ApiError {
	return newApiError(http.StatusServiceUnavailable, "", nil)
}

// errorFromDomain maps store and lifecycle errors onto HTTP responses.
func errorFromDomain(err error) *ApiError {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return NewNotFoundError()
	case errors.Is(err, database.ErrArchived):
		return NewConflictError("interview is archived")
	case errors.Is(err, database.ErrConflict):
		return NewConflictError("participant already assigned for this interview")
	case errors.Is(err, interview.ErrInvalidInput):
		return NewValidationError(err.Error())
	default:
		return NewInternalServerError(err)
	}
}
