package http

import (
	"fmt"
	"net/http"
)

// AppError is an API error carrying its HTTP status. Err is logged, never serialized.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithParam attaches a value the client can use to correct the request.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = map[string]interface{}{}
	}
	e.Params[key] = value
	return e
}

// WithError records the cause.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func statusError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

func NotFoundError(message string) *AppError {
	return statusError(http.StatusNotFound, "ERR_NOT_FOUND", message)
}

func BadRequestError(message string) *AppError {
	return statusError(http.StatusBadRequest, "ERR_BAD_REQUEST", message)
}

func InternalError(message string) *AppError {
	return statusError(http.StatusInternalServerError, "ERR_INTERNAL", message)
}

// UnavailableError reports a dependency the server was started without or cannot reach.
func UnavailableError(message string) *AppError {
	return statusError(http.StatusServiceUnavailable, "ERR_UNAVAILABLE", message)
}
