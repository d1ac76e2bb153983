// Package reconciler cross-checks the law-deduction reversals detected on a
// statement against the total the statement declares for them.
package reconciler

import (
	"fmt"
	"strings"

	"card-statement-analyzer/internal/models"
	"card-statement-analyzer/internal/parsers"

	"github.com/shopspring/decimal"
)

// DefaultTolerance is the largest difference, in currency units, accepted
// between the detected and declared deduction totals
var DefaultTolerance = decimal.RequireFromString("0.50")

// WarningFormat is the advisory text attached to a mismatching result
const WarningFormat = "Validacion devoluciones: suma (%s) vs TOTAL DEV LEY (%s), dif=%s"

// Config holds configuration options for the validator
type Config struct {
	Tolerance decimal.Decimal
}

// DefaultConfig returns a default configuration for the validator
func DefaultConfig() *Config {
	return &Config{
		Tolerance: DefaultTolerance,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Tolerance.IsNegative() {
		return fmt.Errorf("tolerance cannot be negative, got %s", c.Tolerance)
	}
	return nil
}

// Reconciliation is the outcome of one cross-check
type Reconciliation struct {
	Detected   decimal.Decimal
	Declared   decimal.NullDecimal
	Difference decimal.Decimal
	Matches    int
	Warning    string
}

// Checked reports whether a declared total was available to compare against
func (r Reconciliation) Checked() bool {
	return r.Declared.Valid
}

// Validator compares law-deduction sums with declared totals
type Validator struct {
	config *Config
}

// NewValidator creates a validator; a nil config uses the defaults
func NewValidator(config *Config) (*Validator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Validator{config: config}, nil
}

// Reconcile sums the absolute local amounts of transactions whose
// description contains one of phrases and compares the sum with declared.
// A warning is set only when a declared total exists, the statement has
// transactions, and the difference exceeds the tolerance.
func (v *Validator) Reconcile(txns []models.Transaction, declared decimal.NullDecimal, phrases []string) Reconciliation {
	result := Reconciliation{
		Detected: decimal.Zero,
		Declared: declared,
	}

	for _, tx := range txns {
		if !matchesPhrase(tx.Description, phrases) {
			continue
		}
		result.Matches++
		if tx.AmountLocal.Valid {
			result.Detected = result.Detected.Add(tx.AmountLocal.Decimal.Abs())
		}
	}

	if !declared.Valid || len(txns) == 0 {
		return result
	}

	result.Difference = declared.Decimal.Sub(result.Detected).Abs()
	if result.Difference.GreaterThan(v.config.Tolerance) {
		result.Warning = fmt.Sprintf(WarningFormat,
			result.Detected.StringFixed(2),
			declared.Decimal.StringFixed(2),
			result.Difference.StringFixed(2))
	}
	return result
}

// Validate returns the advisory warning for txns, or "" when the totals
// agree or cannot be compared. It never fails.
func Validate(txns []models.Transaction, declared decimal.NullDecimal, phrases []string, tolerance decimal.Decimal) string {
	v := &Validator{config: &Config{Tolerance: tolerance.Abs()}}
	return v.Reconcile(txns, declared, phrases).Warning
}

func matchesPhrase(description string, phrases []string) bool {
	if len(phrases) == 0 {
		return false
	}
	folded := parsers.Fold(description)
	for _, phrase := range phrases {
		if strings.Contains(folded, parsers.Fold(phrase)) {
			return true
		}
	}
	return false
}
