package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"

	"card-statement-analyzer/pkg/errors"
	"card-statement-analyzer/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/viper"
)

// CLIErrorHandler provides user-friendly error handling for CLI operations
type CLIErrorHandler struct {
	out     io.Writer
	logger  logger.Logger
	verbose bool
	red     *color.Color
	faint   *color.Color
}

// NewCLIErrorHandler creates a new CLI error handler writing to out
func NewCLIErrorHandler(out io.Writer) *CLIErrorHandler {
	return &CLIErrorHandler{
		out:     out,
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
		red:     color.New(color.FgRed, color.Bold),
		faint:   color.New(color.Faint),
	}
}

// HandleError prints err and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Debug("Command failed")

	if summary, ok := errors.AsErrorSummary(err); ok {
		return h.handleSummary(summary)
	}

	if statementErr, ok := errors.AsStatementError(err); ok {
		return h.handleStatementError(statementErr)
	}

	return h.handleGenericError(err)
}

func (h *CLIErrorHandler) handleSummary(summary *errors.ErrorSummary) int {
	if summary.Total == 1 {
		return h.handleStatementError(summary.Errors[0])
	}

	h.red.Fprintf(h.out, "Error: %d documents failed\n", summary.Total)
	for _, err := range summary.Errors {
		file, _ := err.Context["file"].(string)
		fmt.Fprintf(h.out, "  %s: %s\n", file, err.Message)
	}

	categories := make([]string, 0, len(summary.ByCategory))
	for category := range summary.ByCategory {
		categories = append(categories, string(category))
	}
	sort.Strings(categories)
	for _, category := range categories {
		fmt.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(errors.ErrorCategory(category)))
	}

	return summary.GetExitCode()
}

func (h *CLIErrorHandler) handleStatementError(err *errors.StatementError) int {
	h.red.Fprintf(h.out, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		keys := make([]string, 0, len(err.Context))
		for key := range err.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(h.out, "\nContext:\n")
		for _, key := range keys {
			fmt.Fprintf(h.out, "  %s: %v\n", key, err.Context[key])
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(h.out, "\nSuggestion: %s\n", err.Suggestion)
	}

	h.faint.Fprintf(h.out, "\n%s\n", h.getCategoryHelp(err.Category))

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(h.out, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

func (h *CLIErrorHandler) handleGenericError(err error) int {
	if errors.Is(err, fs.ErrNotExist) {
		h.red.Fprintf(h.out, "Error: File not found\n")
		fmt.Fprintf(h.out, "Suggestion: Check if the file path is correct and the file exists\n")
		return 2
	}
	if errors.Is(err, fs.ErrPermission) {
		h.red.Fprintf(h.out, "Error: Permission denied\n")
		fmt.Fprintf(h.out, "Suggestion: Check file permissions and ensure you have read access\n")
		return 2
	}

	// cobra argument and flag errors
	h.red.Fprintf(h.out, "Error: %v\n", err)
	if strings.Contains(err.Error(), "flag") || strings.Contains(err.Error(), "arg") {
		fmt.Fprintf(h.out, "Run 'analyzer --help' for usage.\n")
	}
	return 1
}

// getCategoryHelp returns category-specific help text
func (h *CLIErrorHandler) getCategoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryFormat:
		return `Format error help:
• Supported documents are .pdf statements and .xls/.xlsx BROU exports
• Spreadsheets must be the unmodified export with its column header row
• Re-download the document if it was edited or converted`

	case errors.CategoryDocument:
		return `Document error help:
• Check that the file opens in a PDF or spreadsheet viewer
• Scanned statements without a text layer cannot be analyzed
• AES-256 protected statements must be saved without protection first
• Documents larger than the configured --max-size are rejected`

	case errors.CategoryPassword:
		return `Password error help:
• Encrypted statements need --password (usually the holder's document number)
• Use --ask-password to be prompted for each protected document
• Passwords are case sensitive`

	case errors.CategoryConfiguration:
		return `Configuration error help:
• Check your command-line flags and arguments
• Verify configuration file syntax if using --config
• Use 'analyzer banks' to list the accepted --bank values
• Use 'analyzer analyze --help' to see all available options`

	default:
		return `For more help:
• Use 'analyzer --help' for general help
• Run again with --verbose to see debug logs
• Report the failure with the document issuer and the error details`
	}
}
