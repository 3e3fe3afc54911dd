// Package errors provides structured error handling for veriscan operations.
// It defines error codes, error types, and provides utilities for creating
// and handling errors with context and structured information.
package errors

import (
	"fmt"
)

// ErrorCode represents different types of errors that can occur.
type ErrorCode string

const (
	// General errors.
	CodeUnknown       ErrorCode = "UNKNOWN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeConfiguration ErrorCode = "CONFIGURATION"
	CodeTimeout       ErrorCode = "TIMEOUT"
	CodeCanceled      ErrorCode = "CANCELED"

	// Port specification errors.
	CodeInvalidPort  ErrorCode = "INVALID_PORT"
	CodeInvalidRange ErrorCode = "INVALID_RANGE"

	// Scanning errors.
	CodeScanAborted        ErrorCode = "SCAN_ABORTED"
	CodeHostUnreachable    ErrorCode = "HOST_UNREACHABLE"
	CodeTargetUnresolvable ErrorCode = "TARGET_UNRESOLVABLE"

	// Reference scanner errors.
	CodeReferenceUnavailable ErrorCode = "REFERENCE_UNAVAILABLE"

	// Status server errors.
	CodeStatusServer ErrorCode = "STATUS_SERVER"
)

// ScanError represents an error that occurred during scanning operations.
type ScanError struct {
	Code      ErrorCode
	Message   string
	Target    string
	Operation string
	Cause     error
	Context   map[string]interface{}
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s (target: %s)", e.Code, e.Message, e.Target)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *ScanError) WithContext(key string, value interface{}) *ScanError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewScanError creates a new scan error with the specified code and message.
func NewScanError(code ErrorCode, message string) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewScanErrorWithTarget creates a scan error for a specific target.
func NewScanErrorWithTarget(code ErrorCode, message, target string) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Target:  target,
		Context: make(map[string]interface{}),
	}
}

// WrapScanError wraps an existing error as a scan error.
func WrapScanError(code ErrorCode, message string, err error) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// WrapScanErrorWithTarget wraps an error with target information.
func WrapScanErrorWithTarget(code ErrorCode, message, target string, err error) *ScanError {
	return &ScanError{
		Code:    code,
		Message: message,
		Target:  target,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// PortSpecError represents a malformed port specification. It is surfaced
// to the caller before any network activity and never retried.
type PortSpecError struct {
	Code    ErrorCode
	Message string
	Spec    string
	Token   string
	Cause   error
}

// Error implements the error interface.
func (e *PortSpecError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("[%s] %s (token: %q)", e.Code, e.Message, e.Token)
	}
	if e.Spec != "" {
		return fmt.Sprintf("[%s] %s (spec: %q)", e.Code, e.Message, e.Spec)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *PortSpecError) Unwrap() error {
	return e.Cause
}

// NewPortSpecError creates a new port specification error.
func NewPortSpecError(code ErrorCode, message string) *PortSpecError {
	return &PortSpecError{
		Code:    code,
		Message: message,
	}
}

// ReferenceError represents a failure of the external reference scanner.
type ReferenceError struct {
	Code    ErrorCode
	Message string
	Target  string
	Tool    string
	Cause   error
}

// Error implements the error interface.
func (e *ReferenceError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s (target: %s)", e.Code, e.Message, e.Target)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// NewReferenceError creates a new reference scanner error.
func NewReferenceError(code ErrorCode, message string) *ReferenceError {
	return &ReferenceError{
		Code:    code,
		Message: message,
	}
}

// WrapReferenceError wraps an existing error as a reference scanner error.
func WrapReferenceError(code ErrorCode, message string, err error) *ReferenceError {
	return &ReferenceError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// ConfigError represents configuration-related errors.
type ConfigError struct {
	Code    ErrorCode
	Message string
	Field   string
	Value   interface{}
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new configuration error.
func NewConfigError(code ErrorCode, message string) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
	}
}

// NewConfigFieldError creates a configuration error for a specific field.
func NewConfigFieldError(code ErrorCode, message, field string, value interface{}) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Field:   field,
		Value:   value,
	}
}

// WrapConfigError wraps an existing error as a configuration error.
func WrapConfigError(code ErrorCode, message string, err error) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Utility functions for common error operations

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	switch e := err.(type) {
	case *ScanError:
		return e.Code == code
	case *PortSpecError:
		return e.Code == code
	case *ReferenceError:
		return e.Code == code
	case *ConfigError:
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error if it has one.
func GetCode(err error) ErrorCode {
	switch e := err.(type) {
	case *ScanError:
		return e.Code
	case *PortSpecError:
		return e.Code
	case *ReferenceError:
		return e.Code
	case *ConfigError:
		return e.Code
	}
	return CodeUnknown
}

// IsRetryable determines if an error indicates a retryable condition.
// Per-probe failures are never retried; this applies to whole-run setup
// failures only.
func IsRetryable(err error) bool {
	code := GetCode(err)
	switch code {
	case CodeTimeout, CodeHostUnreachable:
		return true
	default:
		return false
	}
}

// IsFatal determines if an error indicates a fatal condition that should stop
// execution before any network activity.
func IsFatal(err error) bool {
	code := GetCode(err)
	switch code {
	case CodeConfiguration, CodeValidation, CodeInvalidPort, CodeInvalidRange:
		return true
	default:
		return false
	}
}

// Common error creation functions

// ErrInvalidPort creates an error for a malformed or out-of-range port token.
func ErrInvalidPort(token string) *PortSpecError {
	return &PortSpecError{
		Code:    CodeInvalidPort,
		Message: "Port must be an integer between 1 and 65535",
		Token:   token,
	}
}

// ErrInvalidRange creates an error for a malformed port range.
func ErrInvalidRange(spec, reason string) *PortSpecError {
	return &PortSpecError{
		Code:    CodeInvalidRange,
		Message: reason,
		Spec:    spec,
	}
}

// ErrScanAborted creates an error for a scan that was cancelled or could not
// proceed; partial results are discarded by the engine before this surfaces.
func ErrScanAborted(target string, cause error) *ScanError {
	return WrapScanErrorWithTarget(CodeScanAborted, "Scan aborted before completion", target, cause)
}

// ErrTargetUnresolvable creates an error for a host that could not be resolved.
func ErrTargetUnresolvable(host string, cause error) *ScanError {
	return WrapScanErrorWithTarget(CodeTargetUnresolvable, "Target could not be resolved", host, cause)
}

// ErrHostUnreachable creates an error for unreachable hosts.
func ErrHostUnreachable(target string) *ScanError {
	return NewScanErrorWithTarget(CodeHostUnreachable, "Host is unreachable", target)
}

// ErrReferenceUnavailable creates an error for a reference scanner that could
// not produce a result set.
func ErrReferenceUnavailable(target string, cause error) *ReferenceError {
	return &ReferenceError{
		Code:    CodeReferenceUnavailable,
		Message: "Reference scanner unavailable",
		Target:  target,
		Cause:   cause,
	}
}

// ErrConfigInvalid creates an error for invalid configuration.
func ErrConfigInvalid(field string, value interface{}) *ConfigError {
	return NewConfigFieldError(CodeValidation, "Invalid configuration value", field, value)
}

// ErrConfigMissing creates an error for missing required configuration.
func ErrConfigMissing(field string) *ConfigError {
	return NewConfigFieldError(CodeConfiguration, "Required configuration field missing", field, nil)
}
