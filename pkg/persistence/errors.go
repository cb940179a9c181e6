// Package persistence provides standardized error types for flow store operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard error codes carried by ValidationError.
const (
	CodeInvalidFlow  = "invalid_flow"
	CodeInvalidNode  = "invalid_node"
	CodeDuplicateID  = "duplicate_id"
	CodeNotAllowed   = "not_allowed"
	CodeInvalidInput = "invalid_request"
)

var (
	// ErrFlowNotFound indicates a flow was not found by the given identifier.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrInvalidPayload is the sentinel every ValidationError matches.
	ErrInvalidPayload = errors.New("invalid payload")
)

// ValidationError is returned when the store rejects a payload.
type ValidationError struct {
	Op      string // Operation being performed (e.g., "AddFlow", "SetFlows")
	Code    string // Machine readable reason
	Message string // Human-readable message
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// ErrorCode returns the machine readable reason.
func (e *ValidationError) ErrorCode() string {
	return e.Code
}

// Is makes every ValidationError match ErrInvalidPayload.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidPayload
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string) *ValidationError {
	return &ValidationError{
		Op:      op,
		Code:    code,
		Message: message,
	}
}

// FlowError wraps flow-related errors with additional context.
type FlowError struct {
	Op     string // Operation being performed (e.g., "UpdateFlow", "RemoveFlow")
	FlowID string // Flow ID if applicable
	Err    error  // Underlying error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s operation failed for flow %s: %v", e.Op, e.FlowID, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// NewFlowError creates a new flow error with context.
func NewFlowError(op, flowID string, err error) *FlowError {
	return &FlowError{
		Op:     op,
		FlowID: flowID,
		Err:    err,
	}
}

// IsFlowNotFound checks if an error indicates a flow was not found.
func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

// AsValidationError extracts the validation error from err, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}

	return nil, false
}
