package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStatementError(t *testing.T) {
	tests := []struct {
		name       string
		category   ErrorCategory
		code       ErrorCode
		message    string
		cause      error
		expectCode int
	}{
		{
			name:       "format error",
			category:   CategoryFormat,
			code:       CodeUnsupportedFormat,
			message:    "unsupported format",
			cause:      nil,
			expectCode: 2,
		},
		{
			name:       "document error",
			category:   CategoryDocument,
			code:       CodeInvalidDocument,
			message:    "broken pdf",
			cause:      errors.New("malformed xref"),
			expectCode: 3,
		},
		{
			name:       "password error",
			category:   CategoryPassword,
			code:       CodePasswordRequired,
			message:    "encrypted",
			cause:      nil,
			expectCode: 4,
		},
		{
			name:       "configuration error",
			category:   CategoryConfiguration,
			code:       CodeInvalidConfig,
			message:    "invalid config",
			cause:      errors.New("missing field"),
			expectCode: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *StatementError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			if err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.Message != tt.message {
				t.Errorf("expected message %s, got %s", tt.message, err.Message)
			}
			if err.GetExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, err.GetExitCode())
			}
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Error("expected cause to be reachable through Unwrap")
			}
			if len(err.StackTrace) == 0 {
				t.Error("expected stack trace to be captured")
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, CategoryInternal, CodeUnexpectedError, "nothing") != nil {
		t.Error("expected Wrap(nil) to return nil")
	}
	if WrapIfNeeded(nil, CategoryInternal, CodeUnexpectedError, "nothing") != nil {
		t.Error("expected WrapIfNeeded(nil) to return nil")
	}
}

func TestRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  *StatementError
		want bool
	}{
		{"password required", PasswordRequired("a.pdf"), true},
		{"invalid password", InvalidPassword("a.pdf", errors.New("bad")), true},
		{"invalid document", InvalidDocument("a.pdf", nil), false},
		{"header not found", HeaderNotFound(1), false},
		{"unsupported format", UnsupportedFormat("a.txt", ".txt"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Recoverable(); got != tt.want {
				t.Errorf("Recoverable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConstructorsSetContext(t *testing.T) {
	err := MissingColumn("Importe $", []string{"Fecha", "Descripción"})
	if err.Code != CodeMissingColumn {
		t.Errorf("expected code %s, got %s", CodeMissingColumn, err.Code)
	}
	if err.Context["column"] != "Importe $" {
		t.Errorf("expected column context, got %v", err.Context["column"])
	}
	if !strings.Contains(err.Context["available"].(string), "Descripción") {
		t.Errorf("expected available columns in context, got %v", err.Context["available"])
	}
	if err.Suggestion == "" {
		t.Error("expected suggestion to be set")
	}

	undetected := BankNotDetected("scan.pdf")
	if undetected.Code != CodeUnknownBank || undetected.GetExitCode() != 5 {
		t.Errorf("expected unknown_bank configuration error, got %s/%d", undetected.Code, undetected.GetExitCode())
	}

	aes := UnsupportedEncryption("aes.pdf", fmt.Errorf("unsupported PDF: encryption version V=5"))
	if aes.Category != CategoryDocument || aes.Recoverable() || aes.GetExitCode() != 3 {
		t.Errorf("expected a non-recoverable document error, got %s recoverable=%v", aes.Category, aes.Recoverable())
	}

	unsupported := UnsupportedFormat("statement.csv", ".csv")
	if unsupported.Context["extension"] != ".csv" {
		t.Errorf("expected extension context, got %v", unsupported.Context["extension"])
	}
	if !strings.Contains(unsupported.Error(), "suggestion:") {
		t.Errorf("expected suggestion in error text, got %q", unsupported.Error())
	}
}

func TestAsStatementError(t *testing.T) {
	base := PasswordRequired("locked.pdf")
	wrapped := fmt.Errorf("processing failed: %w", base)

	got, ok := AsStatementError(wrapped)
	if !ok {
		t.Fatal("expected to extract StatementError from wrapped error")
	}
	if got != base {
		t.Error("expected the original StatementError")
	}

	if !HasCode(wrapped, CodePasswordRequired) {
		t.Error("expected HasCode to find password_required")
	}
	if HasCode(wrapped, CodeInvalidPassword) {
		t.Error("did not expect HasCode to find invalid_password")
	}
	if HasCode(errors.New("plain"), CodePasswordRequired) {
		t.Error("did not expect HasCode on a plain error")
	}

	if _, ok := AsStatementError(errors.New("plain")); ok {
		t.Error("did not expect a StatementError from a plain error")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	existing := HeaderNotFound(0)
	if got := WrapIfNeeded(existing, CategoryInternal, CodeUnexpectedError, "x"); got != existing {
		t.Error("expected existing StatementError to be returned unchanged")
	}

	plain := errors.New("disk exploded")
	got := WrapIfNeeded(plain, CategoryInternal, CodeUnexpectedError, "processing")
	if got.Code != CodeUnexpectedError {
		t.Errorf("expected code %s, got %s", CodeUnexpectedError, got.Code)
	}
	if got.Cause != plain {
		t.Error("expected cause to be the plain error")
	}
}

func TestErrorSummary(t *testing.T) {
	empty := NewErrorSummary(nil)
	if empty.Total != 0 || empty.GetExitCode() != 0 {
		t.Errorf("expected empty summary, got total=%d exit=%d", empty.Total, empty.GetExitCode())
	}
	if empty.Error() != "no errors" {
		t.Errorf("unexpected empty summary text %q", empty.Error())
	}

	summary := NewErrorSummary([]*StatementError{
		UnsupportedFormat("a.txt", ".txt"),
		InvalidPassword("b.pdf", nil),
		InvalidPassword("c.pdf", nil),
	})

	if summary.Total != 3 {
		t.Errorf("expected 3 errors, got %d", summary.Total)
	}
	if summary.ByCode[CodeInvalidPassword] != 2 {
		t.Errorf("expected 2 invalid password errors, got %d", summary.ByCode[CodeInvalidPassword])
	}
	if !summary.HasCode(CodeUnsupportedFormat) {
		t.Error("expected summary to contain unsupported_format")
	}
	if summary.GetExitCode() != 4 {
		t.Errorf("expected highest exit code 4, got %d", summary.GetExitCode())
	}
	if !strings.HasPrefix(summary.Error(), "3 errors occurred") {
		t.Errorf("unexpected summary text %q", summary.Error())
	}
}

func TestAsErrorSummary(t *testing.T) {
	summary := NewErrorSummary([]*StatementError{InvalidPassword("b.pdf", nil)})
	wrapped := fmt.Errorf("batch: %w", summary)

	got, ok := AsErrorSummary(wrapped)
	if !ok || got != summary {
		t.Fatalf("expected to extract the summary, got %v %v", got, ok)
	}
	if _, ok := AsErrorSummary(errors.New("plain")); ok {
		t.Error("plain error should not be a summary")
	}
}

func TestIs(t *testing.T) {
	sentinel := errors.New("sentinel")
	wrapped := Wrap(fmt.Errorf("read: %w", sentinel), CategoryDocument, CodeInvalidDocument, "cannot read")

	if !Is(wrapped, sentinel) {
		t.Error("expected Is to find the sentinel through both wrappers")
	}
	if Is(wrapped, errors.New("other")) {
		t.Error("unexpected match for an unrelated error")
	}
}
