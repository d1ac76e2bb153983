package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"card-statement-analyzer/internal/analyzer"
	"card-statement-analyzer/internal/fixtures"
	"card-statement-analyzer/internal/models"
	"card-statement-analyzer/internal/pending"
	"card-statement-analyzer/internal/reporter"
	"card-statement-analyzer/pkg/errors"
	"card-statement-analyzer/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const testPassword = "12345678"

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func newTestService(t *testing.T) *analyzer.Service {
	t.Helper()
	service, err := analyzer.NewService(nil, pending.NewStore(pending.DefaultConfig().TTL))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return service
}

func TestValidateFileExists(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "valid.pdf", []byte("x"))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid file", valid, false},
		{"missing file", filepath.Join(dir, "missing.pdf"), true},
		{"directory", dir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.path)
			if tt.wantErr {
				if !errors.HasCode(err, errors.CodeInvalidDocument) {
					t.Errorf("expected invalid_document, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAnalyzeFiles(t *testing.T) {
	dir := t.TempDir()
	workbook, err := fixtures.XLSX(fixtures.BROUCardRows())
	if err != nil {
		t.Fatalf("failed to build workbook: %v", err)
	}

	paths := []string{
		writeFile(t, dir, "santander.pdf", fixtures.PDF(fixtures.SantanderLines())),
		writeFile(t, dir, "notes.txt", []byte("hello")),
		writeFile(t, dir, "itau.pdf", fixtures.PDF(fixtures.ItauLines())),
		writeFile(t, dir, "brou.xlsx", workbook),
		filepath.Join(dir, "gone.pdf"),
	}

	outcomes := analyzeFiles(context.Background(), newTestService(t), paths,
		batchOptions{Concurrency: 2}, logger.GetGlobalLogger())

	if len(outcomes) != len(paths) {
		t.Fatalf("expected %d outcomes, got %d", len(paths), len(outcomes))
	}

	wantBanks := map[int]models.Bank{0: models.BankSantander, 2: models.BankItau, 3: models.BankBROU}
	for i, outcome := range outcomes {
		if outcome.Path != paths[i] {
			t.Errorf("outcome %d path = %s, want %s", i, outcome.Path, paths[i])
		}
		bank, ok := wantBanks[i]
		if !ok {
			if outcome.Err == nil {
				t.Errorf("expected %s to fail", filepath.Base(paths[i]))
			}
			continue
		}
		if outcome.Err != nil {
			t.Errorf("%s: unexpected error %v", filepath.Base(paths[i]), outcome.Err)
			continue
		}
		if outcome.Result.Bank != bank {
			t.Errorf("%s: bank = %s, want %s", filepath.Base(paths[i]), outcome.Result.Bank, bank)
		}
	}

	if !errors.HasCode(outcomes[1].Err, errors.CodeUnsupportedFormat) {
		t.Errorf("expected unsupported_format for notes.txt, got %v", outcomes[1].Err)
	}
	if !errors.HasCode(outcomes[4].Err, errors.CodeInvalidDocument) {
		t.Errorf("expected invalid_document for a missing file, got %v", outcomes[4].Err)
	}
}

func TestPromptPasswords(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "locked.pdf", fixtures.EncryptedPDF(fixtures.SantanderLines(), testPassword)),
		writeFile(t, dir, "skipped.pdf", fixtures.EncryptedPDF(fixtures.SantanderLines(), testPassword)),
	}

	service := newTestService(t)
	outcomes := analyzeFiles(context.Background(), service, paths,
		batchOptions{Concurrency: 1, Bank: models.BankSantander}, logger.GetGlobalLogger())

	for _, outcome := range outcomes {
		if !errors.HasCode(outcome.Err, errors.CodePasswordRequired) {
			t.Fatalf("expected password_required, got %v", outcome.Err)
		}
	}
	if service.Pending().Len() != 2 {
		t.Fatalf("expected 2 parked documents, got %d", service.Pending().Len())
	}

	in := strings.NewReader("wrong\n" + testPassword + "\n\n")
	var prompts bytes.Buffer
	promptPasswords(context.Background(), service, outcomes, in, &prompts)

	if outcomes[0].Err != nil || outcomes[0].Result == nil {
		t.Fatalf("expected locked.pdf to be analyzed, got %v", outcomes[0].Err)
	}
	if outcomes[0].Result.Bank != models.BankSantander || !outcomes[0].Result.Metadata.Encrypted {
		t.Errorf("unexpected result metadata %+v", outcomes[0].Result.Metadata)
	}
	if !errors.HasCode(outcomes[1].Err, errors.CodePasswordRequired) {
		t.Errorf("skipped.pdf should keep its error, got %v", outcomes[1].Err)
	}
	if service.Pending().Len() != 0 {
		t.Errorf("expected the pending store to be empty, got %d", service.Pending().Len())
	}

	output := prompts.String()
	if strings.Count(output, "Password for locked.pdf") != 2 {
		t.Errorf("expected two prompts for locked.pdf, got %q", output)
	}
	if !strings.Contains(output, "Incorrect password") {
		t.Errorf("expected a retry notice, got %q", output)
	}
}

func TestWriteReportTimesRendering(t *testing.T) {
	var logs, stdout bytes.Buffer
	log := logger.NewWithWriter(&logs, logger.DebugLevel, logger.JSONFormat)

	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)

	reportConfig := reporter.DefaultReportConfig()
	reportConfig.Format = reporter.FormatJSON
	results := []*models.ProcessingResult{{Bank: models.BankSantander, NoTransactions: true}}

	if err := writeReport(cmd, reportConfig, results, "", log); err != nil {
		t.Fatalf("writeReport() error = %v", err)
	}
	if !strings.Contains(stdout.String(), `"bank": "santander"`) {
		t.Errorf("expected the JSON report on stdout, got %q", stdout.String())
	}
	if !strings.Contains(logs.String(), `"operation":"render report"`) || !strings.Contains(logs.String(), `"status":"success"`) {
		t.Errorf("expected a timed render entry in the logs, got %s", logs.String())
	}
}

func TestPrintWarnings(t *testing.T) {
	results := []*models.ProcessingResult{
		{Metadata: models.DocumentMetadata{Filename: "a.pdf"}, Warning: "dif=0.80"},
		{Metadata: models.DocumentMetadata{Filename: "b.pdf"}},
	}

	var out bytes.Buffer
	printWarnings(&out, results, false)

	if got := out.String(); got != "warning: a.pdf: dif=0.80\n" {
		t.Errorf("printWarnings() = %q", got)
	}
}

func TestPrintBanks(t *testing.T) {
	var out bytes.Buffer
	if err := printBanks(&out); err != nil {
		t.Fatalf("printBanks() error = %v", err)
	}

	for _, bank := range []models.Bank{models.BankItau, models.BankSantander, models.BankScotiabank, models.BankBROU} {
		if !strings.Contains(out.String(), bank.String()) {
			t.Errorf("expected %s in bank list:\n%s", bank, out.String())
		}
	}
}

func TestAnalyzeCommandJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "santander.pdf", fixtures.PDF(fixtures.SantanderLines()))
	output := filepath.Join(dir, "report.json")

	t.Cleanup(func() {
		viper.Set("format", "console")
		viper.Set("output", "")
		rootCmd.SetArgs(nil)
	})

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"analyze", "--format", "json", "--output", output, path})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("analyze failed: %v\nstderr: %s", err, stderr.String())
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}

	var report map[string]interface{}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, data)
	}
	if report["bank"] != string(models.BankSantander) {
		t.Errorf("bank = %v, want santander", report["bank"])
	}
}

func TestCLIErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantText []string
	}{
		{
			name:     "nil",
			err:      nil,
			wantCode: 0,
		},
		{
			name:     "password required",
			err:      errors.PasswordRequired("estado.pdf"),
			wantCode: 4,
			wantText: []string{"Error:", "Password error help", "filename: estado.pdf"},
		},
		{
			name:     "unknown bank",
			err:      errors.BankNotDetected("x.pdf"),
			wantCode: 5,
			wantText: []string{"Configuration error help", "--bank santander"},
		},
		{
			name: "summary of several documents",
			err: errors.NewErrorSummary([]*errors.StatementError{
				errors.UnsupportedFormat("a.txt", ".txt").WithContext("file", "a.txt"),
				errors.InvalidDocument("b.pdf", nil).WithContext("file", "b.pdf"),
			}),
			wantCode: 3,
			wantText: []string{"2 documents failed", "a.txt:", "b.pdf:", "Format error help", "Document error help"},
		},
		{
			name:     "summary of one document",
			err:      errors.NewErrorSummary([]*errors.StatementError{errors.InvalidPassword("c.pdf", nil)}),
			wantCode: 4,
			wantText: []string{"Password error help"},
		},
		{
			name:     "missing file",
			err:      fmt.Errorf("open: %w", os.ErrNotExist),
			wantCode: 2,
			wantText: []string{"File not found"},
		},
		{
			name:     "permission denied",
			err:      fmt.Errorf("open estado.pdf: %w", os.ErrPermission),
			wantCode: 2,
			wantText: []string{"Permission denied"},
		},
		{
			name:     "cobra usage",
			err:      fmt.Errorf("unknown flag: --colour"),
			wantCode: 1,
			wantText: []string{"unknown flag", "--help"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			handler := NewCLIErrorHandler(&out)

			if code := handler.HandleError(tt.err); code != tt.wantCode {
				t.Errorf("HandleError() = %d, want %d", code, tt.wantCode)
			}
			for _, text := range tt.wantText {
				if !strings.Contains(out.String(), text) {
					t.Errorf("expected %q in output:\n%s", text, out.String())
				}
			}
		})
	}
}

func TestGetVersionString(t *testing.T) {
	t.Cleanup(func() { SetVersionInfo("dev", "unknown", "unknown") })

	SetVersionInfo("dev", "abc123", "2024-05-01")
	if got := getVersionString(); got != "dev (commit abc123, built 2024-05-01)" {
		t.Errorf("dev version = %q", got)
	}

	SetVersionInfo("1.2.0", "abc123", "2024-05-01")
	if got := rootCmd.Version; got != "1.2.0" {
		t.Errorf("release version = %q", got)
	}
}
