// Package errors provides structured error types for flowcat.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error codes for flowcat operations.
const (
	// Config errors
	CodeConfigMissingField = "CONFIG_001" // Missing required field
	CodeConfigInvalidValue = "CONFIG_002" // Invalid value

	// Metadata errors
	CodeMetaMissing       = "META_001" // _meta absent or not an object
	CodeMetaMissingFields = "META_002" // Required _meta fields absent
	CodeMetaIDMismatch    = "META_003" // _meta.id differs from filename

	// Parse errors
	CodeParseError    = "PARSE_001" // Malformed JSON or non-object document
	CodeEncodingError = "PARSE_002" // Content is not valid UTF-8

	// Scan errors
	CodeScanDirNotFound = "SCAN_001" // Scan directory does not exist
	CodeScanNotDir      = "SCAN_002" // Scan path is not a directory

	// IO errors
	CodeIOPermission = "IO_002" // Permission denied
	CodeIOReadError  = "IO_004" // Read error
	CodeIOWriteError = "IO_005" // Write error
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitInvalid = 1 // at least one workflow failed, or a generic failure
	ExitNoScan  = 2 // the scan directory could not be used
)

// CatalogError is the structured error type for flowcat operations.
type CatalogError struct {
	Code    string         `json:"code" yaml:"code"`                           // Error code (e.g., "META_002")
	Message string         `json:"message" yaml:"message"`                     // Human-readable message
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"` // Context (file, fields, ...)
	Cause   error          `json:"-" yaml:"-"`                                 // Wrapped error (serialized as its message)
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error.
func (e *CatalogError) WithDetail(key string, value any) *CatalogError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// MarshalJSON implements json.Marshaler with cause error message.
func (e *CatalogError) MarshalJSON() ([]byte, error) {
	type alias CatalogError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// MarshalYAML implements yaml.Marshaler with cause error message.
func (e *CatalogError) MarshalYAML() (any, error) {
	out := struct {
		Code    string         `yaml:"code"`
		Message string         `yaml:"message"`
		Details map[string]any `yaml:"details,omitempty"`
		Cause   string         `yaml:"cause,omitempty"`
	}{Code: e.Code, Message: e.Message, Details: e.Details}
	if e.Cause != nil {
		out.Cause = e.Cause.Error()
	}
	return out, nil
}

// From returns err as a CatalogError. Errors without a code are wrapped with
// an empty code so callers can always serialize them.
func From(err error) *CatalogError {
	if err == nil {
		return nil
	}
	var cerr *CatalogError
	if errors.As(err, &cerr) {
		return cerr
	}
	return &CatalogError{Message: err.Error()}
}

// New creates a new CatalogError.
func New(code, message string) *CatalogError {
	return &CatalogError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new CatalogError with formatted message.
func Newf(code, format string, args ...any) *CatalogError {
	return &CatalogError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with a CatalogError.
func Wrap(code, message string, err error) *CatalogError {
	return &CatalogError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with a formatted CatalogError.
func Wrapf(code string, err error, format string, args ...any) *CatalogError {
	return &CatalogError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// --- Config Errors ---

// ConfigMissingField creates an error for missing config field.
func ConfigMissingField(field string) *CatalogError {
	return Newf(CodeConfigMissingField, "missing required config field: %s", field).
		WithDetail("field", field)
}

// ConfigInvalidValue creates an error for invalid config value.
func ConfigInvalidValue(field string, value any, reason string) *CatalogError {
	return Newf(CodeConfigInvalidValue, "invalid config value for %s: %s", field, reason).
		WithDetail("field", field).
		WithDetail("value", value).
		WithDetail("reason", reason)
}

// --- Metadata Errors ---

// MetaMissing creates an error for a document without a usable _meta object.
func MetaMissing(file string) *CatalogError {
	return New(CodeMetaMissing, "missing '_meta' field").
		WithDetail("file", file)
}

// MetaNotObject creates an error for a _meta value that is not a JSON object.
func MetaNotObject(file string) *CatalogError {
	return New(CodeMetaMissing, "'_meta' must be a JSON object").
		WithDetail("file", file)
}

// MetaMissingFields creates one error naming every missing required field.
func MetaMissingFields(file string, fields []string) *CatalogError {
	return Newf(CodeMetaMissingFields, "_meta missing required fields: %s", strings.Join(fields, ", ")).
		WithDetail("file", file).
		WithDetail("fields", fields)
}

// MetaIDMismatch creates an error for an identifier that does not match the filename.
func MetaIDMismatch(file, expected, actual string) *CatalogError {
	return Newf(CodeMetaIDMismatch, "_meta.id mismatch: filename=%q, _meta.id=%q", expected, actual).
		WithDetail("file", file).
		WithDetail("expected", expected).
		WithDetail("actual", actual)
}

// --- Parse Errors ---

// ParseError creates an error for malformed workflow JSON.
func ParseError(file string, err error) *CatalogError {
	return Wrap(CodeParseError, "invalid JSON", err).
		WithDetail("file", file)
}

// EncodingError creates an error for a file that is not valid UTF-8.
func EncodingError(file string, err error) *CatalogError {
	return Wrap(CodeEncodingError, "file is not UTF-8 encoded", err).
		WithDetail("file", file)
}

// --- Scan Errors ---

// ScanDirNotFound creates an error for a missing scan directory.
func ScanDirNotFound(dir string, err error) *CatalogError {
	return Wrapf(CodeScanDirNotFound, err, "directory does not exist: %s", dir).
		WithDetail("dir", dir)
}

// ScanNotDir creates an error for a scan path that is a regular file.
func ScanNotDir(dir string) *CatalogError {
	return Newf(CodeScanNotDir, "not a directory: %s", dir).
		WithDetail("dir", dir)
}

// --- IO Errors ---

// IOPermissionDenied creates an error for permission issues.
func IOPermissionDenied(path string, err error) *CatalogError {
	return Wrap(CodeIOPermission, "permission denied", err).
		WithDetail("path", path)
}

// IOReadError creates an error for read failures.
func IOReadError(path string, err error) *CatalogError {
	return Wrap(CodeIOReadError, "failed to read file", err).
		WithDetail("path", path)
}

// IOWriteError creates an error for write failures.
func IOWriteError(path string, err error) *CatalogError {
	return Wrap(CodeIOWriteError, "failed to write file", err).
		WithDetail("path", path)
}

// HasCode checks if an error is a CatalogError with the given code.
// It handles wrapped errors by unwrapping to find a CatalogError.
func HasCode(err error, code string) bool {
	var cerr *CatalogError
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}

// Code returns the error code if err is a CatalogError, empty string otherwise.
// It handles wrapped errors by unwrapping to find a CatalogError.
func Code(err error) string {
	var cerr *CatalogError
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return ""
}

// ExitCode maps an error returned from a command to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch Code(err) {
	case CodeScanDirNotFound, CodeScanNotDir:
		return ExitNoScan
	default:
		return ExitInvalid
	}
}
