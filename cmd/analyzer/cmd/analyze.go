package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"card-statement-analyzer/cmd/analyzer/config"
	"card-statement-analyzer/internal/analyzer"
	"card-statement-analyzer/internal/models"
	"card-statement-analyzer/internal/pending"
	"card-statement-analyzer/internal/reporter"
	"card-statement-analyzer/pkg/errors"
	"card-statement-analyzer/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Extract and summarize the movements of statement documents",
	Long: `Analyze reads one or more statement documents, extracts their movements
and prints totals, the installment projection and the law-deduction check.

The bank of a PDF statement is detected from its text unless --bank is given.
Spreadsheets are always read as BROU exports.

Examples:
  # Single statement, bank detected
  analyzer analyze estado.pdf

  # Password protected statement
  analyzer analyze --password 12345678 estado.pdf

  # Ask for the password of every protected document
  analyzer analyze --ask-password *.pdf

  # Several documents as JSON
  analyzer analyze -f json -o report.json estado-*.pdf movimientos.xlsx`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: validateAnalyzeArgs,
	RunE:    runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	flags := analyzeCmd.Flags()
	flags.String("bank", "", "statement issuer: itau, santander, scotiabank, brou (default: detect)")
	flags.String("password", "", "password of encrypted PDF statements")
	flags.Bool("ask-password", false, "prompt on stdin for the password of protected documents")
	flags.StringP("format", "f", "console", "output format: console, json, csv")
	flags.StringP("output", "o", "", "output file path (default: stdout)")
	flags.IntP("concurrency", "c", 4, "documents analyzed at once")
	flags.Int("max-transactions", 0, "transactions listed per document in console output (0 = all)")
	flags.String("tolerance", "0.50", "accepted difference for the law-deduction check")
	flags.Bool("no-color", false, "disable colored console output")

	viper.BindPFlag(config.KeyBank, flags.Lookup("bank"))
	viper.BindPFlag(config.KeyPassword, flags.Lookup("password"))
	viper.BindPFlag(config.KeyAskPassword, flags.Lookup("ask-password"))
	viper.BindPFlag(config.KeyFormat, flags.Lookup("format"))
	viper.BindPFlag(config.KeyOutput, flags.Lookup("output"))
	viper.BindPFlag(config.KeyConcurrency, flags.Lookup("concurrency"))
	viper.BindPFlag(config.KeyMaxTransactions, flags.Lookup("max-transactions"))
	viper.BindPFlag(config.KeyTolerance, flags.Lookup("tolerance"))
	viper.BindPFlag(config.KeyNoColor, flags.Lookup("no-color"))
}

func validateAnalyzeArgs(cmd *cobra.Command, args []string) error {
	for _, path := range args {
		if err := validateFileExists(path); err != nil {
			return err
		}
	}

	if output := viper.GetString(config.KeyOutput); output != "" {
		dir := filepath.Dir(output)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return errors.ConfigurationError(errors.CodeInvalidConfig, config.KeyOutput, output,
				fmt.Errorf("output directory does not exist: %s", dir))
		}
	}

	if _, err := config.ParseBank(viper.GetString(config.KeyBank)); err != nil {
		return err
	}
	return nil
}

func validateFileExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.InvalidDocument(path, err).
			WithSuggestion("check that the file path is correct and readable")
	}
	if info.IsDir() {
		return errors.InvalidDocument(path, fmt.Errorf("%s is a directory, expected a file", path))
	}
	return nil
}

// batchOptions are the per-run settings shared by every document
type batchOptions struct {
	Bank        models.Bank
	Password    string
	Concurrency int
}

// documentOutcome is the result of one document of a batch
type documentOutcome struct {
	Path   string
	Result *models.ProcessingResult
	Err    error
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	v := viper.GetViper()
	log := logger.WithComponent("cli")

	analyzerConfig, err := config.CreateAnalyzerConfig(v)
	if err != nil {
		return err
	}
	pendingConfig, err := config.CreatePendingConfig(v)
	if err != nil {
		return err
	}
	reportConfig, err := config.CreateReportConfig(v)
	if err != nil {
		return err
	}
	concurrency, err := config.Concurrency(v)
	if err != nil {
		return err
	}
	bank, err := config.ParseBank(v.GetString(config.KeyBank))
	if err != nil {
		return err
	}

	store, err := pending.NewStoreWithConfig(pendingConfig)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "pending", nil, err)
	}
	service, err := analyzer.NewService(analyzerConfig, store)
	if err != nil {
		return err
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go store.Run(sweepCtx, pendingConfig.SweepInterval)

	outcomes := analyzeFiles(ctx, service, args, batchOptions{
		Bank:        bank,
		Password:    v.GetString(config.KeyPassword),
		Concurrency: concurrency,
	}, log)

	if v.GetBool(config.KeyAskPassword) {
		promptPasswords(ctx, service, outcomes, cmd.InOrStdin(), cmd.ErrOrStderr())
	}

	var results []*models.ProcessingResult
	var failures []*errors.StatementError
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failures = append(failures, errors.WrapIfNeeded(outcome.Err, errors.CategoryInternal,
				errors.CodeUnexpectedError, "analysis failed").WithContext("file", outcome.Path))
			continue
		}
		results = append(results, outcome.Result)
	}

	if len(results) > 0 {
		if err := writeReport(cmd, reportConfig, results, v.GetString(config.KeyOutput), log); err != nil {
			return err
		}
		if reportConfig.Format != reporter.FormatConsole || v.GetString(config.KeyOutput) != "" {
			printWarnings(cmd.ErrOrStderr(), results, !v.GetBool(config.KeyNoColor))
		}
	}

	if len(failures) > 0 {
		return errors.NewErrorSummary(failures)
	}
	return nil
}

// analyzeFiles reads and processes every path with at most
// opts.Concurrency documents in flight. Outcomes keep the order of paths;
// a failing document does not stop the others.
func analyzeFiles(ctx context.Context, service *analyzer.Service, paths []string, opts batchOptions, log logger.Logger) []documentOutcome {
	outcomes := make([]documentOutcome, len(paths))
	tracker := logger.NewBatchTracker("analyze", len(paths), log)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			result, err := analyzePath(gctx, service, path, opts)
			outcomes[i] = documentOutcome{Path: path, Result: result, Err: err}
			tracker.Done(filepath.Base(path), err)
			return nil
		})
	}
	g.Wait()

	stats := tracker.Complete()
	log.WithField("failed", stats.Failed).Debug(stats.String())
	return outcomes
}

func analyzePath(ctx context.Context, service *analyzer.Service, path string, opts batchOptions) (*models.ProcessingResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidDocument(filepath.Base(path), err)
	}

	return service.Submit(ctx, analyzer.Request{
		Data:     data,
		Filename: filepath.Base(path),
		Password: opts.Password,
		Bank:     opts.Bank,
	})
}

// promptPasswords asks for the password of every document parked in the
// pending store and resubmits it. A wrong password is asked again until an
// empty line is entered.
func promptPasswords(ctx context.Context, service *analyzer.Service, outcomes []documentOutcome, in io.Reader, out io.Writer) {
	reader := bufio.NewReader(in)

	for i := range outcomes {
		statementErr, ok := errors.AsStatementError(outcomes[i].Err)
		if !ok || !statementErr.Recoverable() {
			continue
		}
		token, _ := statementErr.Context["token"].(string)
		if token == "" {
			continue
		}

		for {
			fmt.Fprintf(out, "Password for %s: ", filepath.Base(outcomes[i].Path))
			line, readErr := reader.ReadString('\n')
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				service.Pending().Delete(token)
				break
			}

			result, err := service.Resubmit(ctx, token, password)
			outcomes[i].Result, outcomes[i].Err = result, err
			if !errors.HasCode(err, errors.CodeInvalidPassword) || readErr != nil {
				break
			}
			fmt.Fprintln(out, "Incorrect password, try again (empty line to skip).")
		}
	}
}

func writeReport(cmd *cobra.Command, reportConfig *reporter.ReportConfig, results []*models.ProcessingResult, output string, log logger.Logger) error {
	generator, err := reporter.NewSafeReportGenerator(reportConfig, log)
	if err != nil {
		return err
	}

	render := func(w io.Writer) error {
		return logger.TimedOperation("render report", log, func() error {
			return generator.GenerateReportSafely(results, w)
		})
	}

	if output == "" {
		return render(cmd.OutOrStdout())
	}

	file, err := os.Create(output)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, config.KeyOutput, output, err)
	}
	defer file.Close()

	if err := render(file); err != nil {
		return err
	}
	log.WithFields(logger.Fields{
		"output":       output,
		"documents":    len(results),
		"transactions": reporter.TransactionCount(results),
	}).Info("Report written")
	return nil
}

// printWarnings repeats the reconciliation warnings on stderr so they stay
// visible when the report goes to a file or a pipe
func printWarnings(w io.Writer, results []*models.ProcessingResult, useColors bool) {
	yellow := color.New(color.FgYellow, color.Bold)
	if !useColors {
		yellow.DisableColor()
	}
	for _, result := range results {
		if !result.HasWarning() {
			continue
		}
		yellow.Fprintf(w, "warning: %s: %s\n", result.Metadata.Filename, result.Warning)
	}
}
