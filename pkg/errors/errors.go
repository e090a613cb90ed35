package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"strings"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Metadata is how a code surfaces over HTTP and whether the task worker
// should try again after seeing it.
type Metadata struct {
	HTTPStatus    int
	Retryable     bool
	PublicMessage string
}

// Conflict and state errors surface as 400 like every other client mistake.
var metadataByCode = map[Code]Metadata{
	CodeValidation:    {HTTPStatus: http.StatusBadRequest, PublicMessage: "Invalid request."},
	CodeUnauthorized:  {HTTPStatus: http.StatusUnauthorized, PublicMessage: "Authentication credentials were not provided."},
	CodeForbidden:     {HTTPStatus: http.StatusForbidden, PublicMessage: "You are not authorized to perform this action"},
	CodeNotFound:      {HTTPStatus: http.StatusNotFound, PublicMessage: "Not found."},
	CodeConflict:      {HTTPStatus: http.StatusBadRequest, PublicMessage: "Resource already exists."},
	CodeStateConflict: {HTTPStatus: http.StatusBadRequest, PublicMessage: "Status transition is not allowed."},
	CodeRateLimit:     {HTTPStatus: http.StatusTooManyRequests, Retryable: true, PublicMessage: "Too many requests. Please try again later."},
	CodeInternal:      {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "Internal server error."},
	CodeDependency:    {HTTPStatus: http.StatusBadGateway, Retryable: true, PublicMessage: "Upstream service unavailable."},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	if f.Field == "" {
		return f.Message
	}
	return fmt.Sprintf("(%s) %s", f.Field, f.Message)
}

// Fields builds a validation error whose message is every field error
// rendered as "(field) msg", joined by newlines.
func Fields(fields ...FieldError) *Error {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, f.String())
	}
	return New(CodeValidation, strings.Join(lines, "\n")).WithDetails(fields)
}

// Field is shorthand for a validation error on a single field.
func Field(field, message string) *Error {
	return Fields(FieldError{Field: field, Message: message})
}
