package model

import (
	"errors"
	"fmt"
)

// ConfigurationError represents a deterministic misconfiguration detected
// before or during evaluation: unknown labels in include/exclude filters,
// an empty state sequence, or an unrecognized property or format selector.
// Configuration errors are fatal and never retried; the whole call aborts
// with no partial result.
type ConfigurationError struct {
	// Code identifies the error category.
	Code ConfigurationErrorCode

	// Message is a human-readable description.
	Message string

	// Label is the offending component label, when the error concerns one.
	Label string
}

// ConfigurationErrorCode categorizes configuration errors.
type ConfigurationErrorCode string

const (
	// ErrCodeUnknownLabel indicates an include/exclude filter referenced a
	// label absent from the component list.
	ErrCodeUnknownLabel ConfigurationErrorCode = "UNKNOWN_LABEL"

	// ErrCodeDuplicateLabel indicates two components normalized to the same label.
	ErrCodeDuplicateLabel ConfigurationErrorCode = "DUPLICATE_LABEL"

	// ErrCodeBadType indicates an unrecognized component type tag.
	ErrCodeBadType ConfigurationErrorCode = "BAD_TYPE"

	// ErrCodeEmptyStates indicates a nil or empty state sequence.
	ErrCodeEmptyStates ConfigurationErrorCode = "EMPTY_STATES"

	// ErrCodeBadProperty indicates an unrecognized state property selector.
	ErrCodeBadProperty ConfigurationErrorCode = "BAD_PROPERTY"

	// ErrCodeBadFormat indicates an unrecognized output format selector.
	ErrCodeBadFormat ConfigurationErrorCode = "BAD_FORMAT"
)

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("%s: %s (label=%s)", e.Code, e.Message, e.Label)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewConfigurationError creates a ConfigurationError with a formatted message.
func NewConfigurationError(code ConfigurationErrorCode, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsConfiguration reports whether err is a ConfigurationError.
// Uses errors.As to handle wrapped errors.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
