package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"time"
)

// Error types for the dependency extractor
type ErrorType string

const (
	// Input errors
	ErrorTypeInputPath ErrorType = "input_path"

	// File errors
	ErrorTypeAccess     ErrorType = "access"
	ErrorTypePermission ErrorType = "permission"
	ErrorTypeEncoding   ErrorType = "encoding"

	// Classification outcomes surfaced as errors for narration
	ErrorTypeUnsupportedLanguage ErrorType = "unsupported_language"
	ErrorTypeSizeLimit           ErrorType = "size_limit_exceeded"
	ErrorTypeNonSource           ErrorType = "non_source_file"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// ErrBinaryContent marks file content that cannot be decoded as text.
var ErrBinaryContent = stderrors.New("binary content")

// InputPathError is returned when the scan root is missing or is neither a
// regular file nor a directory. It aborts the whole scan.
type InputPathError struct {
	Type       ErrorType
	Path       string
	Mode       fs.FileMode
	Underlying error
	Timestamp  time.Time
}

// NewInputPathError creates an input path error for a root that could not be stat'ed
func NewInputPathError(path string, err error) *InputPathError {
	return &InputPathError{
		Type:       ErrorTypeInputPath,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewSpecialFileError creates an input path error for a socket, FIFO, device or other special file
func NewSpecialFileError(path string, mode fs.FileMode) *InputPathError {
	return &InputPathError{
		Type:      ErrorTypeInputPath,
		Path:      path,
		Mode:      mode,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *InputPathError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s is not a file or a directory: %v", e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s is not a file or a directory (mode %s); it might be a special file such as a socket, FIFO or device file", e.Path, e.Mode.Type())
}

// Unwrap returns the underlying error for errors.Is/As
func (e *InputPathError) Unwrap() error {
	return e.Underlying
}

// AccessError is a per-file failure to read content. It never aborts a scan.
type AccessError struct {
	Type       ErrorType
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewAccessError creates an access error, classifying permission and encoding failures
func NewAccessError(path string, err error) *AccessError {
	errorType := ErrorTypeAccess
	switch {
	case stderrors.Is(err, fs.ErrPermission):
		errorType = ErrorTypePermission
	case stderrors.Is(err, ErrBinaryContent):
		errorType = ErrorTypeEncoding
	}

	return &AccessError{
		Type:       errorType,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *AccessError) Error() string {
	return fmt.Sprintf("%s: could not read %s: %v", e.Type, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *AccessError) Unwrap() error {
	return e.Underlying
}

// SkipError describes why a candidate file was not scanned.
type SkipError struct {
	Type      ErrorType
	Path      string
	Detail    string
	Timestamp time.Time
}

// NewSkipError creates a skip error of the given type
func NewSkipError(errorType ErrorType, path, detail string) *SkipError {
	return &SkipError{
		Type:      errorType,
		Path:      path,
		Detail:    detail,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *SkipError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Path, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Path)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// ErrorOrNil returns nil when no errors were collected
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// IsInputPathError reports whether err is or wraps an *InputPathError
func IsInputPathError(err error) bool {
	var target *InputPathError
	return stderrors.As(err, &target)
}
