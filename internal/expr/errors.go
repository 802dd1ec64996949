package expr

import (
	"errors"
	"fmt"
)

// EvaluationError represents a fatal failure while parsing or evaluating a
// predictor expression. Evaluation errors are deterministic misconfigurations,
// not transient faults: the whole call aborts with no partial result.
type EvaluationError struct {
	// Code identifies the error category.
	Code EvaluationErrorCode

	// Message is a human-readable description.
	Message string

	// Name is the offending symbol, when the error concerns one.
	Name string
}

// EvaluationErrorCode categorizes evaluation errors.
type EvaluationErrorCode string

const (
	// ErrCodeSyntax indicates the expression failed to parse.
	ErrCodeSyntax EvaluationErrorCode = "SYNTAX"

	// ErrCodeUnboundName indicates a reference to a name absent from the scope.
	ErrCodeUnboundName EvaluationErrorCode = "UNBOUND_NAME"

	// ErrCodeBadCall indicates a call of a non-function or bad arguments.
	ErrCodeBadCall EvaluationErrorCode = "BAD_CALL"

	// ErrCodeBadOperand indicates an operand kind the operator cannot accept.
	ErrCodeBadOperand EvaluationErrorCode = "BAD_OPERAND"

	// ErrCodeShape indicates incompatible operand lengths.
	ErrCodeShape EvaluationErrorCode = "SHAPE"

	// ErrCodeBadIndex indicates an out-of-range or ill-typed index.
	ErrCodeBadIndex EvaluationErrorCode = "BAD_INDEX"
)

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (name=%s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewEvaluationError creates an EvaluationError with a formatted message.
func NewEvaluationError(code EvaluationErrorCode, format string, args ...any) *EvaluationError {
	return &EvaluationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsUnboundName reports whether err is an unbound-name evaluation error.
// Uses errors.As to handle wrapped errors.
func IsUnboundName(err error) bool {
	var ee *EvaluationError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeUnboundName
	}
	return false
}
