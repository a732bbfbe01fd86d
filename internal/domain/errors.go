package domain

import (
	"errors"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// Error codes carried by AppError.
const (
	CodeNotFound      = 1
	CodeAlreadyExists = 2
	CodeValidation    = 3
	CodeInternal      = 4
	CodeUnauthorized  = 5
)

var statusByCode = map[int]int{
	CodeNotFound:      http.StatusNotFound,
	CodeAlreadyExists: http.StatusConflict,
	CodeValidation:    http.StatusBadRequest,
	CodeInternal:      http.StatusInternalServerError,
	CodeUnauthorized:  http.StatusUnauthorized,
}

// AppError is a categorized failure. Code selects the category, Message is
// safe to show to callers, and Err keeps the cause for logs. Validation
// failures also carry one message per field in Fields.
type AppError struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// Category sentinels. Match them with the Is* helpers rather than
// errors.Is: the helpers compare codes, so constructed and wrapped errors
// of the same category match too.
var (
	ErrNotFound      = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists = &AppError{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation    = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrInternal      = &AppError{Code: CodeInternal, Message: "internal error"}
	ErrUnauthorized  = &AppError{Code: CodeUnauthorized, Message: "unauthorized"}
)

// NewAppError wraps err under code with a caller-facing message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewValidationError reports every failing field at once. The message names
// the fields in sorted order, e.g. "validation error: City, Humidity".
func NewValidationError(fields map[string]string) *AppError {
	msg := ErrValidation.Message
	if len(fields) > 0 {
		msg += ": " + strings.Join(slices.Sorted(maps.Keys(fields)), ", ")
	}
	return &AppError{Code: CodeValidation, Message: msg, Fields: fields}
}

func IsNotFound(err error) bool      { return codeOf(err) == CodeNotFound }
func IsAlreadyExists(err error) bool { return codeOf(err) == CodeAlreadyExists }
func IsValidation(err error) bool    { return codeOf(err) == CodeValidation }
func IsInternal(err error) bool      { return codeOf(err) == CodeInternal }
func IsUnauthorized(err error) bool  { return codeOf(err) == CodeUnauthorized }

// FieldErrors returns the per-field messages of a validation error, or nil.
func FieldErrors(err error) map[string]string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code == CodeValidation {
		return appErr.Fields
	}
	return nil
}

// codeOf returns the code of the outermost AppError in err's chain, or 0.
func codeOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}

// HTTPStatusCode maps err to a response status. Errors without a known
// AppError code are 500.
func HTTPStatusCode(err error) int {
	if status, ok := statusByCode[codeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}
