package errors

import (
	"fmt"
)

// APIError is the boundary error type. The code space is HTTP-like: the
// first three digits map to an HTTP status for the handshake surface.
type APIError interface {
	error
	Code() int
	Message() string
	SetDetail(str string, a ...interface{}) APIError
	SetFields(d Fields) APIError
	GetFields() Fields
	ExpectedHTTPStatus() int
}

type Fields map[string]interface{}

type apiError struct {
	code    int
	message string
	fields  Fields
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s [%d]", e.message, e.code)
}

func (e *apiError) Code() int {
	return e.code
}

func (e *apiError) Message() string {
	return e.message
}

func (e *apiError) SetDetail(str string, a ...interface{}) APIError {
	if len(a) > 0 {
		str = fmt.Sprintf(str, a...)
	}

	return &apiError{
		code:    e.code,
		message: fmt.Sprintf("%s: %s", e.message, str),
		fields:  e.fields,
	}
}

func (e *apiError) SetFields(d Fields) APIError {
	e.fields = d

	return e
}

func (e *apiError) GetFields() Fields {
	return e.fields
}

func (e *apiError) ExpectedHTTPStatus() int {
	return e.code / 1000
}

func def(code int, message string) func() APIError {
	return func() APIError {
		return &apiError{code: code, message: message, fields: Fields{}}
	}
}

var (
	// 401xxx - authentication

	ErrUnauthorized = def(401001, "Authentication Required")
	ErrBadToken     = def(401002, "Bad Token")

	// 403xxx - authorization

	ErrInsufficientPrivilege = def(403001, "Insufficient Privilege")

	// 404xxx - lookups

	ErrUnknownRoom    = def(404001, "Unknown Room")
	ErrUnknownUser    = def(404002, "Unknown User")
	ErrUnknownMessage = def(404003, "Unknown Message")

	// 400xxx - validation

	ErrBadObjectID    = def(400001, "Bad Object ID")
	ErrMissingContent = def(400002, "Missing Content")
	ErrInvalidRequest = def(400003, "Invalid Request")
	ErrBadVersion     = def(400004, "Bad Token Version")

	// 500xxx

	ErrInternalServerError = def(500001, "Internal Server Error")
)
