// Package services provides the flow administration operations and the
// error types they return.
package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dukex/flowadmin/pkg/persistence"
)

// Error codes returned to callers.
const (
	CodeVersionMismatch       = "version_mismatch"
	CodeNotFound              = "not_found"
	CodeUnexpectedError       = "unexpected_error"
	CodeInvalidDeploymentType = "invalid_deployment_type"
	CodeInvalidRequest        = "invalid_request"
)

// Kind classifies a service error.
type Kind int

const (
	KindUnknown Kind = iota
	KindVersionConflict
	KindNotFound
	KindValidationFailed
)

func (k Kind) String() string {
	switch k {
	case KindVersionConflict:
		return "version_conflict"
	case KindNotFound:
		return "not_found"
	case KindValidationFailed:
		return "validation_failed"
	default:
		return "unknown"
	}
}

var (
	ErrVersionConflict = errors.New("flow set revision mismatch")
	ErrNotFound        = errors.New("not found")
)

// Error is the structured failure returned by every service operation.
type Error struct {
	Op      string // Operation name
	Kind    Kind
	Status  int    // HTTP-convention status
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

// ErrorCode returns the API error code.
func (e *Error) ErrorCode() string {
	return e.Code
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newVersionConflict(op string) *Error {
	return &Error{
		Op:     op,
		Kind:   KindVersionConflict,
		Status: http.StatusConflict,
		Code:   CodeVersionMismatch,
		Err:    ErrVersionConflict,
	}
}

func newNotFound(op string, err error) *Error {
	if err == nil {
		err = ErrNotFound
	}

	return &Error{
		Op:     op,
		Kind:   KindNotFound,
		Status: http.StatusNotFound,
		Code:   CodeNotFound,
		Err:    err,
	}
}

func newValidationFailed(op, code, message string, err error) *Error {
	return &Error{
		Op:      op,
		Kind:    KindValidationFailed,
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// normalizeStoreError maps a store failure to a service error. Unknown ids
// become NotFound; everything else is a rejected payload carrying the store's
// code, or unexpected_error when it has none.
func normalizeStoreError(op string, err error) *Error {
	if persistence.IsFlowNotFound(err) {
		return newNotFound(op, err)
	}

	if validationErr, ok := persistence.AsValidationError(err); ok {
		code := validationErr.Code
		if code == "" {
			code = CodeUnexpectedError
		}

		return newValidationFailed(op, code, validationErr.Message, err)
	}

	return newValidationFailed(op, CodeUnexpectedError, "", err)
}

func asError(err error) (*Error, bool) {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr, true
	}

	return nil, false
}

func isKind(err error, kind Kind) bool {
	serviceErr, ok := asError(err)

	return ok && serviceErr.Kind == kind
}

// IsVersionConflict reports whether err is a revision mismatch (409).
func IsVersionConflict(err error) bool {
	return isKind(err, KindVersionConflict)
}

// IsNotFound reports whether err is an unknown flow id (404).
func IsNotFound(err error) bool {
	return isKind(err, KindNotFound)
}

// IsValidationError reports whether err is a rejected request (400).
func IsValidationError(err error) bool {
	return isKind(err, KindValidationFailed)
}

// AsError extracts the service error from err, if any.
func AsError(err error) (*Error, bool) {
	return asError(err)
}
