// Package reporter renders processing results for people and programs.
//
// Supported output formats:
//   - Console: tables for terminal display
//   - JSON: the full result, one object per document
//   - CSV: one row per transaction, for spreadsheet applications
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(reporter.DefaultReportConfig())
//	err = generator.GenerateReport([]*models.ProcessingResult{result}, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"card-statement-analyzer/internal/installment"
	"card-statement-analyzer/internal/models"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	// Output format
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeTransactions bool `json:"include_transactions"`
	IncludeProjection   bool `json:"include_projection"`
	IncludeSummary      bool `json:"include_summary"`

	// Console formatting options
	UseColors       bool `json:"use_colors"`
	MaxTransactions int  `json:"max_transactions"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:              FormatConsole,
		IncludeTransactions: true,
		IncludeProjection:   true,
		IncludeSummary:      true,
		UseColors:           true,
		MaxTransactions:     0,
		CSVDelimiter:        ',',
		CSVHeaders:          true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.MaxTransactions < 0 {
		return fmt.Errorf("max transactions cannot be negative, got %d", c.MaxTransactions)
	}

	if c.CSVDelimiter == 0 || c.CSVDelimiter == '"' || c.CSVDelimiter == '\n' || c.CSVDelimiter == '\r' {
		return fmt.Errorf("invalid csv delimiter %q", c.CSVDelimiter)
	}

	return nil
}

// ReportGenerator renders processing results in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// GenerateReport renders results and writes them to writer
func (rg *ReportGenerator) GenerateReport(results []*models.ProcessingResult, writer io.Writer) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}
	for i, result := range results {
		if result == nil {
			return fmt.Errorf("result %d is nil", i)
		}
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(results, writer)
	case FormatJSON:
		return rg.generateJSONReport(results, writer)
	case FormatCSV:
		return rg.generateCSVReport(results, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// generateConsoleReport generates a human-readable console report
func (rg *ReportGenerator) generateConsoleReport(results []*models.ProcessingResult, writer io.Writer) error {
	for i, result := range results {
		if i > 0 {
			fmt.Fprintf(writer, "\n")
		}

		meta := result.Metadata
		fmt.Fprintf(writer, "STATEMENT REPORT: %s\n", meta.Filename)
		fmt.Fprintf(writer, "Bank: %s | Format: %s | Pages: %d | Encrypted: %s\n",
			result.Bank.DisplayName(), meta.Format, meta.PageCount, yesNo(meta.Encrypted))
		fmt.Fprintf(writer, "Generated: %s\n\n", result.ProcessedAt.Format(time.RFC3339))

		if result.HasWarning() {
			fmt.Fprintf(writer, "%s\n\n", rg.paint(pterm.Warning.Sprint(result.Warning)))
		}

		if result.NoTransactions {
			fmt.Fprintf(writer, "No transactions found in this document.\n")
			continue
		}

		fmt.Fprintf(writer, "=== TOTALS ===\n")
		if err := rg.renderTable(writer, totalsTable(result.Totals)); err != nil {
			return err
		}

		if rg.config.IncludeSummary {
			if rows := summaryTable(meta); len(rows) > 1 {
				fmt.Fprintf(writer, "\n=== DECLARED FIGURES ===\n")
				if err := rg.renderTable(writer, rows); err != nil {
					return err
				}
			}
		}

		if rg.config.IncludeTransactions {
			fmt.Fprintf(writer, "\n=== TRANSACTIONS (%d) ===\n", len(result.Transactions))
			if err := rg.renderTable(writer, rg.transactionsTable(result.Transactions)); err != nil {
				return err
			}
			if limit := rg.config.MaxTransactions; limit > 0 && len(result.Transactions) > limit {
				fmt.Fprintf(writer, "  ... and %d more\n", len(result.Transactions)-limit)
			}
		}

		if rg.config.IncludeProjection {
			fmt.Fprintf(writer, "\n=== INSTALLMENT PROJECTION ===\n")
			if err := rg.renderTable(writer, projectionTable(result.Projection)); err != nil {
				return err
			}
		}
	}

	return nil
}

// generateJSONReport writes a single result as an object and a batch as an array
func (rg *ReportGenerator) generateJSONReport(results []*models.ProcessingResult, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	if len(results) == 1 {
		return encoder.Encode(rg.filterResultForOutput(results[0]))
	}

	output := make([]map[string]interface{}, 0, len(results))
	for _, result := range results {
		output = append(output, rg.filterResultForOutput(result))
	}
	return encoder.Encode(output)
}

// generateCSVReport writes one row per transaction of every result
func (rg *ReportGenerator) generateCSVReport(results []*models.ProcessingResult, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		headers := []string{
			"File",
			"Bank",
			"Date",
			"Card",
			"Description",
			"Amount_Local",
			"Amount_Foreign",
			"Amount_Origin",
			"Is_Installment",
			"Installment_Paid",
			"Installment_Total",
			"Installment_Remaining",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, result := range results {
		for _, tx := range result.Transactions {
			paid, total, remaining := "", "", ""
			if tx.Installment != nil {
				paid = strconv.Itoa(tx.Installment.Paid)
				total = strconv.Itoa(tx.Installment.Total)
				remaining = strconv.Itoa(tx.Installment.Remaining)
			}
			record := []string{
				result.Metadata.Filename,
				result.Bank.String(),
				formatDate(tx.Date),
				tx.CardReference,
				tx.Description,
				formatAmount(tx.AmountLocal, ""),
				formatAmount(tx.AmountForeign, ""),
				formatAmount(tx.AmountOrigin, ""),
				strconv.FormatBool(tx.IsInstallment),
				paid,
				total,
				remaining,
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write transaction record: %w", err)
			}
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// Helper methods for console output formatting

func (rg *ReportGenerator) renderTable(writer io.Writer, data pterm.TableData) error {
	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	fmt.Fprintln(writer, rg.paint(rendered))
	return nil
}

// paint strips styling when colours are disabled
func (rg *ReportGenerator) paint(s string) string {
	if rg.config.UseColors {
		return s
	}
	return pterm.RemoveColorFromString(s)
}

func (rg *ReportGenerator) transactionsTable(txns []models.Transaction) pterm.TableData {
	data := pterm.TableData{{"Date", "Card", "Description", "Local", "Foreign", "Origin", "Installment"}}
	for i, tx := range txns {
		if limit := rg.config.MaxTransactions; limit > 0 && i >= limit {
			break
		}
		inst := "-"
		if tx.Installment != nil {
			inst = tx.Installment.String()
			if !tx.IsInstallment {
				inst += " (out of range)"
			}
		}
		data = append(data, []string{
			formatDate(tx.Date),
			tx.CardReference,
			tx.Description,
			formatAmount(tx.AmountLocal, "-"),
			formatAmount(tx.AmountForeign, "-"),
			formatAmount(tx.AmountOrigin, "-"),
			inst,
		})
	}
	return data
}

func totalsTable(totals models.Totals) pterm.TableData {
	return pterm.TableData{
		{"Concept", "Local", "Foreign"},
		{"Total", totals.Local.StringFixed(2), totals.Foreign.StringFixed(2)},
		{"Installments", totals.InstallmentLocal.StringFixed(2), totals.InstallmentForeign.StringFixed(2)},
		{"Ordinary", totals.OrdinaryLocal.StringFixed(2), totals.OrdinaryForeign.StringFixed(2)},
		{"Refunds", totals.Refunds.StringFixed(2), ""},
		{"Installment share", totals.InstallmentPercent.StringFixed(2) + "%", ""},
		{fmt.Sprintf("New installment plans (%d)", totals.FirstInstallmentCount), totals.FirstInstallmentLocal.StringFixed(2), ""},
		{"Balance with previous", formatAmount(totals.BalanceWithPrevious, "-"), ""},
	}
}

func summaryTable(meta models.DocumentMetadata) pterm.TableData {
	data := pterm.TableData{{"Figure", "Amount"}}
	figures := []struct {
		label string
		value decimal.NullDecimal
	}{
		{"Previous balance", meta.Summary.PreviousBalance},
		{"Cash balance", meta.Summary.CashBalance},
		{"Minimum payment", meta.Summary.MinimumPayment},
		{"Cash payment", meta.Summary.CashPayment},
		{"Law deductions", meta.DeclaredDeductions},
	}
	for _, f := range figures {
		if f.value.Valid {
			data = append(data, []string{f.label, f.value.Decimal.StringFixed(2)})
		}
	}
	return data
}

func projectionTable(buckets []models.ProjectionBucket) pterm.TableData {
	data := pterm.TableData{{"Months left", "Period amount", "Outstanding"}}
	for _, b := range buckets {
		data = append(data, []string{
			strconv.Itoa(b.RemainingMonth),
			b.PeriodAmount.StringFixed(2),
			b.OutstandingBalance.StringFixed(2),
		})
	}
	return data
}

// Helper methods

func (rg *ReportGenerator) filterResultForOutput(result *models.ProcessingResult) map[string]interface{} {
	output := map[string]interface{}{
		"bank":            result.Bank,
		"totals":          result.Totals,
		"metadata":        result.Metadata,
		"no_transactions": result.NoTransactions,
		"processed_at":    result.ProcessedAt,
	}

	if result.HasWarning() {
		output["warning"] = result.Warning
	}

	if rg.config.IncludeTransactions {
		output["transactions"] = result.Transactions
	}

	if rg.config.IncludeProjection {
		output["projection"] = result.Projection
		months, balances := installment.ChartSeries(result.Projection)
		output["chart"] = map[string]interface{}{
			"months":   months,
			"balances": balances,
		}
	}

	return output
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}

func formatAmount(value decimal.NullDecimal, empty string) string {
	if !value.Valid {
		return empty
	}
	return value.Decimal.StringFixed(2)
}

func formatDate(date *time.Time) string {
	if date == nil {
		return ""
	}
	return date.Format("2006-01-02")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// TransactionCount returns the number of transactions across results
func TransactionCount(results []*models.ProcessingResult) int {
	count := 0
	for _, result := range results {
		count += len(result.Transactions)
	}
	return count
}
