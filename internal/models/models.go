package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Bank identifies the issuer whose grammar produced a transaction
type Bank string

const (
	BankBROU       Bank = "brou"
	BankSantander  Bank = "santander"
	BankItau       Bank = "itau"
	BankScotiabank Bank = "scotiabank"
)

// AllBanks lists the supported issuers in display order
var AllBanks = []Bank{BankBROU, BankItau, BankSantander, BankScotiabank}

// String returns the string representation of Bank
func (b Bank) String() string {
	return string(b)
}

// IsValid checks if the bank is one of the supported issuers
func (b Bank) IsValid() bool {
	for _, known := range AllBanks {
		if b == known {
			return true
		}
	}
	return false
}

// DisplayName returns the issuer name as printed on statements
func (b Bank) DisplayName() string {
	switch b {
	case BankBROU:
		return "BROU"
	case BankSantander:
		return "Santander"
	case BankItau:
		return "Itaú"
	case BankScotiabank:
		return "Scotiabank"
	default:
		return string(b)
	}
}

// ParseBank normalizes a user supplied bank name
func ParseBank(name string) (Bank, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "ú", "u")
	bank := Bank(normalized)
	if !bank.IsValid() {
		return "", fmt.Errorf("unknown bank: %s", name)
	}
	return bank, nil
}

// Installment is the "paid/total" marker found in a description
type Installment struct {
	Paid      int `json:"paid"`
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

// NewInstallment builds an Installment keeping Remaining = Total - Paid
func NewInstallment(paid, total int) *Installment {
	return &Installment{
		Paid:      paid,
		Total:     total,
		Remaining: total - paid,
	}
}

// String returns the marker as printed on statements
func (i *Installment) String() string {
	return fmt.Sprintf("%d/%d", i.Paid, i.Total)
}

// Transaction is one movement detected in a statement
type Transaction struct {
	Date          *time.Time          `json:"date"`
	CardReference string              `json:"card_reference,omitempty"`
	Description   string              `json:"description"`
	AmountLocal   decimal.NullDecimal `json:"amount_local"`
	AmountForeign decimal.NullDecimal `json:"amount_foreign"`
	AmountOrigin  decimal.NullDecimal `json:"amount_origin"`
	SourceBank    Bank                `json:"source_bank"`
	Installment   *Installment        `json:"installment,omitempty"`
	IsInstallment bool                `json:"is_installment"`
}

// Validate checks the invariants every emitted transaction must hold
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("transaction description cannot be empty")
	}

	if !ContainsLetter(t.Description) {
		return fmt.Errorf("transaction description has no alphabetic content: %q", t.Description)
	}

	if t.Installment != nil && t.Installment.Remaining != t.Installment.Total-t.Installment.Paid {
		return fmt.Errorf("installment remaining %d does not match %d/%d",
			t.Installment.Remaining, t.Installment.Paid, t.Installment.Total)
	}

	if t.IsInstallment && t.Installment == nil {
		return fmt.Errorf("transaction flagged as installment without installment data")
	}

	if !t.SourceBank.IsValid() {
		return fmt.Errorf("invalid source bank: %s", t.SourceBank)
	}

	return nil
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	date := "-"
	if t.Date != nil {
		date = t.Date.Format("2006-01-02")
	}
	local := "null"
	if t.AmountLocal.Valid {
		local = t.AmountLocal.Decimal.StringFixed(2)
	}
	return fmt.Sprintf("Transaction{Date: %s, Description: %s, Local: %s, Bank: %s}",
		date, t.Description, local, t.SourceBank)
}

// MarshalJSON renders dates as YYYY-MM-DD and absent dates as null
func (t Transaction) MarshalJSON() ([]byte, error) {
	type Alias Transaction
	var date *string
	if t.Date != nil {
		formatted := t.Date.Format("2006-01-02")
		date = &formatted
	}
	return json.Marshal(&struct {
		Date *string `json:"date"`
		Alias
	}{
		Date:  date,
		Alias: Alias(t),
	})
}

// ContainsLetter reports whether s has at least one alphabetic rune
func ContainsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// ProjectionBucket is one month of the installment outstanding-balance series
type ProjectionBucket struct {
	RemainingMonth     int             `json:"remaining_month"`
	PeriodAmount       decimal.Decimal `json:"period_amount"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

// Totals aggregates the local and foreign amounts of a statement
type Totals struct {
	Local                 decimal.Decimal     `json:"local"`
	Foreign               decimal.Decimal     `json:"foreign"`
	InstallmentLocal      decimal.Decimal     `json:"installment_local"`
	InstallmentForeign    decimal.Decimal     `json:"installment_foreign"`
	OrdinaryLocal         decimal.Decimal     `json:"ordinary_local"`
	OrdinaryForeign       decimal.Decimal     `json:"ordinary_foreign"`
	Refunds               decimal.Decimal     `json:"refunds"`
	InstallmentPercent    decimal.Decimal     `json:"installment_percent"`
	FirstInstallmentCount int                 `json:"first_installment_count"`
	FirstInstallmentLocal decimal.Decimal     `json:"first_installment_local"`
	BalanceWithPrevious   decimal.NullDecimal `json:"balance_with_previous"`
}

// SummaryFigures are the aggregates a statement declares about itself
type SummaryFigures struct {
	PreviousBalance decimal.NullDecimal `json:"previous_balance"`
	CashBalance     decimal.NullDecimal `json:"cash_balance"`
	MinimumPayment  decimal.NullDecimal `json:"minimum_payment"`
	CashPayment     decimal.NullDecimal `json:"cash_payment"`
}

// DocumentMetadata describes the source document of a result
type DocumentMetadata struct {
	Filename           string              `json:"filename"`
	Format             string              `json:"format"`
	PageCount          int                 `json:"page_count"`
	Encrypted          bool                `json:"encrypted"`
	Summary            SummaryFigures      `json:"summary"`
	DeclaredDeductions decimal.NullDecimal `json:"declared_deductions"`
}

// ProcessingResult is the full output of processing one document
type ProcessingResult struct {
	Bank           Bank               `json:"bank"`
	Transactions   []Transaction      `json:"transactions"`
	Totals         Totals             `json:"totals"`
	Projection     []ProjectionBucket `json:"projection"`
	Warning        string             `json:"warning,omitempty"`
	Metadata       DocumentMetadata   `json:"metadata"`
	NoTransactions bool               `json:"no_transactions"`
	ProcessedAt    time.Time          `json:"processed_at"`
}

// HasWarning reports whether the reconciliation check produced advisory text
func (r *ProcessingResult) HasWarning() bool {
	return r.Warning != ""
}

// InstallmentTransactions returns the subset flagged as installments
func (r *ProcessingResult) InstallmentTransactions() []Transaction {
	var out []Transaction
	for _, tx := range r.Transactions {
		if tx.IsInstallment {
			out = append(out, tx)
		}
	}
	return out
}
