package reporter

import (
	"fmt"
	"io"
	"os"

	"card-statement-analyzer/internal/models"
	"card-statement-analyzer/pkg/errors"
	"card-statement-analyzer/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with logging and a console
// fallback for machine formats that fail to encode
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator with error handling
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"report_config",
			config,
			err,
		).WithSuggestion("Check the report configuration values")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely generates a report, falling back to the console
// format when JSON or CSV rendering fails
func (srg *SafeReportGenerator) GenerateReportSafely(results []*models.ProcessingResult, writer io.Writer) error {
	srg.logger.WithFields(logger.Fields{
		"format":  srg.config.Format,
		"output":  getWriterDescription(writer),
		"results": len(results),
	}).Debug("Starting report generation")

	if writer == nil {
		return errors.InternalError("report generation", fmt.Errorf("writer cannot be nil"))
	}

	err := srg.GenerateReport(results, writer)
	if err == nil {
		srg.logger.Debug("Report generation completed successfully")
		return nil
	}

	srg.logger.WithError(err).Warn("Primary report generation failed")

	if len(results) == 0 || srg.config.Format == FormatConsole {
		return srg.wrapGenerationError(err)
	}
	return srg.generateWithFormatFallback(results, writer, err)
}

// generateWithFormatFallback retries with the console format
func (srg *SafeReportGenerator) generateWithFormatFallback(results []*models.ProcessingResult, writer io.Writer, originalErr error) error {
	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole

	srg.logger.WithField("fallback_format", FormatConsole).Info("Attempting format fallback")

	fallbackGenerator, err := NewReportGenerator(&fallbackConfig)
	if err != nil {
		return srg.wrapGenerationError(originalErr)
	}

	fmt.Fprintf(writer, "NOTE: Report generated in fallback format due to error with requested format\n")
	fmt.Fprintf(writer, "Original error: %v\n\n", originalErr)

	if err := fallbackGenerator.GenerateReport(results, writer); err != nil {
		return errors.InternalError("report fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", originalErr, err))
	}

	srg.logger.Info("Report generated successfully using format fallback")
	return nil
}

// wrapGenerationError wraps generation errors with context
func (srg *SafeReportGenerator) wrapGenerationError(err error) error {
	if statementErr, ok := errors.AsStatementError(err); ok {
		return statementErr
	}

	return errors.InternalError("report generation", err).
		WithSuggestion("Check the output destination and report format settings")
}

func getWriterDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		if w.Name() != "" {
			return w.Name()
		}
		return "file"
	case nil:
		return "none"
	default:
		return fmt.Sprintf("%T", writer)
	}
}
