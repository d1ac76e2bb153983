package config

import (
	"testing"
	"time"

	"card-statement-analyzer/internal/models"
	"card-statement-analyzer/internal/reporter"
	"card-statement-analyzer/pkg/errors"
	"card-statement-analyzer/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

func newViper(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for key, value := range values {
		v.Set(key, value)
	}
	return v
}

func TestCreateLoggerConfig(t *testing.T) {
	tests := []struct {
		name      string
		values    map[string]interface{}
		wantLevel logger.Level
		wantErr   bool
	}{
		{
			name:      "defaults",
			wantLevel: logger.WarnLevel,
		},
		{
			name:      "verbose forces debug",
			values:    map[string]interface{}{KeyVerbose: true, KeyLogLevel: "error"},
			wantLevel: logger.DebugLevel,
		},
		{
			name:      "upper case level",
			values:    map[string]interface{}{KeyLogLevel: "INFO", KeyLogFormat: "JSON"},
			wantLevel: logger.InfoLevel,
		},
		{
			name:    "invalid level",
			values:  map[string]interface{}{KeyLogLevel: "loud"},
			wantErr: true,
		},
		{
			name:    "file output without path",
			values:  map[string]interface{}{KeyLogOutput: "file"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateLoggerConfig(newViper(tt.values))
			if tt.wantErr {
				if !errors.HasCode(err, errors.CodeInvalidConfig) {
					t.Errorf("expected invalid_config error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Level != tt.wantLevel {
				t.Errorf("Level = %s, want %s", config.Level, tt.wantLevel)
			}
		})
	}
}

func TestCreateAnalyzerConfig(t *testing.T) {
	config, err := CreateAnalyzerConfig(newViper(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !config.Tolerance.Equal(decimal.RequireFromString("0.50")) {
		t.Errorf("Tolerance = %s, want 0.50", config.Tolerance)
	}

	config, err = CreateAnalyzerConfig(newViper(map[string]interface{}{KeyTolerance: "1.25", KeyMaxSize: 1024}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !config.Tolerance.Equal(decimal.RequireFromString("1.25")) || config.MaxDocumentSize != 1024 {
		t.Errorf("config = %+v", config)
	}

	for _, value := range []string{"abc", "-1"} {
		if _, err := CreateAnalyzerConfig(newViper(map[string]interface{}{KeyTolerance: value})); !errors.HasCode(err, errors.CodeInvalidConfig) {
			t.Errorf("tolerance %q: expected invalid_config, got %v", value, err)
		}
	}
}

func TestCreatePendingConfig(t *testing.T) {
	config, err := CreatePendingConfig(newViper(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.TTL != 5*time.Minute || config.SweepInterval != time.Minute {
		t.Errorf("config = %+v, want 5m/1m", config)
	}

	config, err = CreatePendingConfig(newViper(map[string]interface{}{KeyPendingTTL: "90s"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.TTL != 90*time.Second {
		t.Errorf("TTL = %s, want 90s", config.TTL)
	}

	if _, err := CreatePendingConfig(newViper(map[string]interface{}{KeyPendingTTL: "0s"})); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		name       string
		values     map[string]interface{}
		wantFormat reporter.OutputFormat
		wantColors bool
		wantErr    bool
	}{
		{
			name:       "console to terminal",
			values:     map[string]interface{}{KeyFormat: "console"},
			wantFormat: reporter.FormatConsole,
			wantColors: true,
		},
		{
			name:       "console to file",
			values:     map[string]interface{}{KeyFormat: "console", KeyOutput: "report.txt"},
			wantFormat: reporter.FormatConsole,
		},
		{
			name:       "console without colour",
			values:     map[string]interface{}{KeyFormat: "console", KeyNoColor: true},
			wantFormat: reporter.FormatConsole,
		},
		{
			name:       "json",
			values:     map[string]interface{}{KeyFormat: "JSON"},
			wantFormat: reporter.FormatJSON,
		},
		{
			name:       "csv",
			values:     map[string]interface{}{KeyFormat: "csv"},
			wantFormat: reporter.FormatCSV,
		},
		{
			name:    "unknown",
			values:  map[string]interface{}{KeyFormat: "xml"},
			wantErr: true,
		},
		{
			name:    "negative limit",
			values:  map[string]interface{}{KeyFormat: "console", KeyMaxTransactions: -2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateReportConfig(newViper(tt.values))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Format != tt.wantFormat {
				t.Errorf("Format = %s, want %s", config.Format, tt.wantFormat)
			}
			if config.UseColors != tt.wantColors {
				t.Errorf("UseColors = %v, want %v", config.UseColors, tt.wantColors)
			}
		})
	}
}

func TestConcurrency(t *testing.T) {
	if n, err := Concurrency(newViper(nil)); err != nil || n != 4 {
		t.Errorf("Concurrency() = %d, %v; want 4", n, err)
	}
	if _, err := Concurrency(newViper(map[string]interface{}{KeyConcurrency: 0})); err == nil {
		t.Error("expected error for zero concurrency")
	}
}

func TestParseBank(t *testing.T) {
	tests := []struct {
		input   string
		want    models.Bank
		wantErr bool
	}{
		{"", "", false},
		{"  ", "", false},
		{"Santander", models.BankSantander, false},
		{"itaú", models.BankItau, false},
		{"BROU", models.BankBROU, false},
		{"bank1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBank(tt.input)
			if tt.wantErr {
				if !errors.HasCode(err, errors.CodeUnknownBank) {
					t.Errorf("expected unknown_bank, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseBank(%q) = %s, %v; want %s", tt.input, got, err, tt.want)
			}
		})
	}
}
