// Package config builds the package configurations of the analyzer CLI from
// flags, the optional config file and ANALYZER_* environment variables, all
// read through viper.
package config

import (
	"fmt"
	"strings"

	"card-statement-analyzer/internal/analyzer"
	"card-statement-analyzer/internal/models"
	"card-statement-analyzer/internal/pending"
	"card-statement-analyzer/internal/reporter"
	"card-statement-analyzer/pkg/errors"
	"card-statement-analyzer/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Viper keys shared by the commands and the config file
const (
	KeyVerbose         = "verbose"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyLogOutput       = "log.output"
	KeyLogFile         = "log.file"
	KeyBank            = "bank"
	KeyPassword        = "password"
	KeyAskPassword     = "ask-password"
	KeyFormat          = "format"
	KeyOutput          = "output"
	KeyConcurrency     = "concurrency"
	KeyTolerance       = "tolerance"
	KeyMaxSize         = "max-size"
	KeyMaxTransactions = "max-transactions"
	KeyNoColor         = "no-color"
	KeyPendingTTL      = "pending.ttl"
	KeyPendingSweep    = "pending.sweep-interval"
)

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	loggerDefaults := logger.DefaultConfig()
	analyzerDefaults := analyzer.DefaultConfig()
	pendingDefaults := pending.DefaultConfig()

	v.SetDefault(KeyLogLevel, string(loggerDefaults.Level))
	v.SetDefault(KeyLogFormat, string(loggerDefaults.Format))
	v.SetDefault(KeyLogOutput, string(loggerDefaults.Output))
	v.SetDefault(KeyFormat, string(reporter.FormatConsole))
	v.SetDefault(KeyConcurrency, 4)
	v.SetDefault(KeyTolerance, analyzerDefaults.Tolerance.String())
	v.SetDefault(KeyMaxSize, analyzerDefaults.MaxDocumentSize)
	v.SetDefault(KeyPendingTTL, pendingDefaults.TTL)
	v.SetDefault(KeyPendingSweep, pendingDefaults.SweepInterval)
}

// CreateLoggerConfig creates the logger configuration; verbose forces the
// debug level
func CreateLoggerConfig(v *viper.Viper) (*logger.Config, error) {
	config := &logger.Config{
		Level:  logger.Level(strings.ToLower(v.GetString(KeyLogLevel))),
		Format: logger.Format(strings.ToLower(v.GetString(KeyLogFormat))),
		Output: logger.Output(strings.ToLower(v.GetString(KeyLogOutput))),
		File:   v.GetString(KeyLogFile),
	}
	if v.GetBool(KeyVerbose) {
		config.Level = logger.DebugLevel
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "log", config.Level, err)
	}
	return config, nil
}

// CreateAnalyzerConfig creates the analyzer service configuration
func CreateAnalyzerConfig(v *viper.Viper) (*analyzer.Config, error) {
	config := analyzer.DefaultConfig()

	if raw := strings.TrimSpace(v.GetString(KeyTolerance)); raw != "" {
		tolerance, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, KeyTolerance, raw, err).
				WithSuggestion("use a decimal amount such as 0.50")
		}
		config.Tolerance = tolerance
	}

	if size := v.GetInt64(KeyMaxSize); size != 0 {
		config.MaxDocumentSize = size
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "analyzer", nil, err)
	}
	return config, nil
}

// CreatePendingConfig creates the pending-password store configuration
func CreatePendingConfig(v *viper.Viper) (*pending.Config, error) {
	config := &pending.Config{
		TTL:           v.GetDuration(KeyPendingTTL),
		SweepInterval: v.GetDuration(KeyPendingSweep),
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "pending", config.TTL.String(), err)
	}
	return config, nil
}

// CreateReportConfig creates a report configuration for the selected output format
func CreateReportConfig(v *viper.Viper) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()
	format := reporter.OutputFormat(strings.ToLower(v.GetString(KeyFormat)))

	switch format {
	case reporter.FormatConsole:
		config.Format = reporter.FormatConsole
		config.UseColors = !v.GetBool(KeyNoColor) && v.GetString(KeyOutput) == ""
		config.MaxTransactions = v.GetInt(KeyMaxTransactions)
	case reporter.FormatJSON:
		config.Format = reporter.FormatJSON
		config.UseColors = false
	case reporter.FormatCSV:
		config.Format = reporter.FormatCSV
		config.UseColors = false
		config.CSVHeaders = true
		config.CSVDelimiter = ','
		config.IncludeProjection = false
	default:
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, KeyFormat, string(format),
			fmt.Errorf("valid formats: console, json, csv"))
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report", string(format), err)
	}
	return config, nil
}

// Concurrency returns the number of documents analyzed at once
func Concurrency(v *viper.Viper) (int, error) {
	n := v.GetInt(KeyConcurrency)
	if n < 1 {
		return 0, errors.ConfigurationError(errors.CodeInvalidConfig, KeyConcurrency, n,
			fmt.Errorf("concurrency must be at least 1"))
	}
	return n, nil
}

// ParseBank resolves the --bank flag; an empty value means auto-detect
func ParseBank(name string) (models.Bank, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	bank, err := models.ParseBank(name)
	if err != nil {
		return "", errors.ConfigurationError(errors.CodeUnknownBank, KeyBank, name, err)
	}
	return bank, nil
}
