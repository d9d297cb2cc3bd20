package services

import (
	"errors"
	"net/http"

	"github.com/theleywin/Backend-Study-Hub/src/models"
)

type ErrorCode string

const (
	CodeNotFound         ErrorCode = "not_found"
	CodeForbidden        ErrorCode = "forbidden"
	CodeConflict         ErrorCode = "conflict"
	CodeInvalidOperation ErrorCode = "invalid_operation"
	CodeUnprocessable    ErrorCode = "unprocessable"
)

// Error is the taxonomy surfaced to callers. Status carries the connection's
// current status on Conflict and InvalidOperation so the web layer can render
// it (e.g. "already accepted").
type Error struct {
	Code    ErrorCode
	Message string
	Status  models.ConnectionStatus
}

func (e *Error) Error() string { return e.Message }

func NotFound(msg string) *Error      { return &Error{Code: CodeNotFound, Message: msg} }
func Forbidden(msg string) *Error     { return &Error{Code: CodeForbidden, Message: msg} }
func Unprocessable(msg string) *Error { return &Error{Code: CodeUnprocessable, Message: msg} }

func Conflict(msg string, status models.ConnectionStatus) *Error {
	return &Error{Code: CodeConflict, Message: msg, Status: status}
}

func InvalidOperation(msg string, status models.ConnectionStatus) *Error {
	return &Error{Code: CodeInvalidOperation, Message: msg, Status: status}
}

// AsError unwraps err into *Error when it belongs to the taxonomy.
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HTTPStatus maps a service error to the response status; anything outside
// the taxonomy is an internal failure.
func HTTPStatus(err error) int {
	se, ok := AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch se.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeInvalidOperation:
		return http.StatusBadRequest
	case CodeUnprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
