package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory groups error codes by the stage that produced them
type ErrorCategory string

const (
	CategoryFormat        ErrorCategory = "format"
	CategoryDocument      ErrorCategory = "document"
	CategoryPassword      ErrorCategory = "password"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode identifies a specific failure within a category
type ErrorCode string

const (
	// Format errors
	CodeUnsupportedFormat ErrorCode = "unsupported_format"
	CodeHeaderNotFound    ErrorCode = "header_not_found"
	CodeMissingColumn     ErrorCode = "missing_column"

	// Document errors
	CodeInvalidDocument       ErrorCode = "invalid_document"
	CodeUnsupportedEncryption ErrorCode = "unsupported_encryption"

	// Password errors
	CodePasswordRequired ErrorCode = "password_required"
	CodeInvalidPassword  ErrorCode = "invalid_password"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeUnknownBank   ErrorCode = "unknown_bank"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// StatementError is the tagged failure returned by every stage of the pipeline
type StatementError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *StatementError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *StatementError) Unwrap() error {
	return e.Cause
}

// Recoverable reports whether resubmitting the same document with a
// different password can succeed.
func (e *StatementError) Recoverable() bool {
	return e.Code == CodePasswordRequired || e.Code == CodeInvalidPassword
}

// GetExitCode returns an appropriate exit code for the error
func (e *StatementError) GetExitCode() int {
	switch e.Category {
	case CategoryFormat:
		return 2
	case CategoryDocument:
		return 3
	case CategoryPassword:
		return 4
	case CategoryConfiguration:
		return 5
	case CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *StatementError) WithContext(key string, value interface{}) *StatementError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *StatementError) WithSuggestion(suggestion string) *StatementError {
	e.Suggestion = suggestion
	return e
}

// New creates a new StatementError
func New(category ErrorCategory, code ErrorCode, message string) *StatementError {
	return &StatementError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with StatementError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *StatementError {
	if err == nil {
		return nil
	}

	return &StatementError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// UnsupportedFormat is returned when no loader handles the file extension.
func UnsupportedFormat(filename, extension string) *StatementError {
	return New(CategoryFormat, CodeUnsupportedFormat,
		fmt.Sprintf("unsupported file format %q for %s", extension, filename)).
		WithSuggestion("upload a .pdf, .xls or .xlsx statement").
		WithContext("filename", filename).
		WithContext("extension", extension)
}

// HeaderNotFound is returned when the spreadsheet has no transaction table header.
func HeaderNotFound(matches int) *StatementError {
	return New(CategoryFormat, CodeHeaderNotFound,
		fmt.Sprintf("transaction table header not found (found %d 'Fecha' rows, need 2)", matches)).
		WithSuggestion("check that the file is an unmodified card statement export").
		WithContext("fecha_rows", matches)
}

// MissingColumn is returned when a required column is absent from the table.
func MissingColumn(column string, available []string) *StatementError {
	return New(CategoryFormat, CodeMissingColumn,
		fmt.Sprintf("required column '%s' not found", column)).
		WithSuggestion("verify the statement export includes the local currency amount column").
		WithContext("column", column).
		WithContext("available", strings.Join(available, ", "))
}

// InvalidDocument is returned when the bytes cannot be read as the expected document.
func InvalidDocument(filename string, err error) *StatementError {
	message := fmt.Sprintf("cannot read document %s", filename)
	var result *StatementError
	if err != nil {
		result = Wrap(err, CategoryDocument, CodeInvalidDocument, message)
	} else {
		result = New(CategoryDocument, CodeInvalidDocument, message)
	}
	return result.
		WithSuggestion("the file may be corrupted or not a statement; try downloading it again").
		WithContext("filename", filename)
}

// UnsupportedEncryption is returned when a document is protected with a
// security handler the PDF reader cannot decrypt.
func UnsupportedEncryption(filename string, err error) *StatementError {
	message := fmt.Sprintf("document %s uses an unsupported encryption method", filename)
	var result *StatementError
	if err != nil {
		result = Wrap(err, CategoryDocument, CodeUnsupportedEncryption, message)
	} else {
		result = New(CategoryDocument, CodeUnsupportedEncryption, message)
	}
	return result.
		WithSuggestion("open it with its password in a PDF viewer and save an unprotected copy").
		WithContext("filename", filename)
}

// PasswordRequired is returned for encrypted documents submitted without a password.
func PasswordRequired(filename string) *StatementError {
	return New(CategoryPassword, CodePasswordRequired,
		fmt.Sprintf("document %s is password protected", filename)).
		WithSuggestion("resubmit the document with its password").
		WithContext("filename", filename)
}

// InvalidPassword is returned when the supplied password does not decrypt the document.
func InvalidPassword(filename string, err error) *StatementError {
	message := fmt.Sprintf("incorrect password for %s", filename)
	var result *StatementError
	if err != nil {
		result = Wrap(err, CategoryPassword, CodeInvalidPassword, message)
	} else {
		result = New(CategoryPassword, CodeInvalidPassword, message)
	}
	return result.
		WithSuggestion("check the password and try again").
		WithContext("filename", filename)
}

// BankNotDetected is returned when a PDF names no supported issuer and no
// bank was given.
func BankNotDetected(filename string) *StatementError {
	return New(CategoryConfiguration, CodeUnknownBank,
		fmt.Sprintf("cannot tell which bank issued %s", filename)).
		WithSuggestion("pass the bank explicitly, e.g. --bank santander").
		WithContext("filename", filename)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *StatementError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeUnknownBank:
		message = fmt.Sprintf("unknown bank '%v'", value)
		suggestion = "run 'analyzer banks' to list the supported banks"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *StatementError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *StatementError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	var result *StatementError
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	} else {
		result = New(CategoryInternal, CodeUnexpectedError, message)
	}
	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// ErrorSummary aggregates the failures of a multi-document run
type ErrorSummary struct {
	Total      int                   `json:"total"`
	ByCategory map[ErrorCategory]int `json:"by_category"`
	ByCode     map[ErrorCode]int     `json:"by_code"`
	Errors     []*StatementError     `json:"errors"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*StatementError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if summary.Errors == nil {
		summary.Errors = []*StatementError{}
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	return es.ByCode[code] > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// AsStatementError extracts a StatementError from an error chain
func AsStatementError(err error) (*StatementError, bool) {
	var statementErr *StatementError
	if errors.As(err, &statementErr) {
		return statementErr, true
	}
	return nil, false
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// AsErrorSummary extracts an ErrorSummary from an error chain
func AsErrorSummary(err error) (*ErrorSummary, bool) {
	var summary *ErrorSummary
	if errors.As(err, &summary) {
		return summary, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	statementErr, ok := AsStatementError(err)
	return ok && statementErr.Code == code
}

// WrapIfNeeded wraps an error if it's not already a StatementError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *StatementError {
	if err == nil {
		return nil
	}

	if statementErr, ok := AsStatementError(err); ok {
		return statementErr
	}

	return Wrap(err, category, code, message)
}
