package analyzer

import (
	"card-statement-analyzer/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeTotals aggregates the amounts of an annotated transaction list.
// Null amounts are skipped. previous is the declared previous balance, if
// the statement prints one.
func ComputeTotals(txns []models.Transaction, previous decimal.NullDecimal) models.Totals {
	totals := models.Totals{
		Local:                 decimal.Zero,
		Foreign:               decimal.Zero,
		InstallmentLocal:      decimal.Zero,
		InstallmentForeign:    decimal.Zero,
		Refunds:               decimal.Zero,
		InstallmentPercent:    decimal.Zero,
		FirstInstallmentLocal: decimal.Zero,
	}

	for _, tx := range txns {
		local := valueOrZero(tx.AmountLocal)
		foreign := valueOrZero(tx.AmountForeign)

		totals.Local = totals.Local.Add(local)
		totals.Foreign = totals.Foreign.Add(foreign)

		if local.IsNegative() {
			totals.Refunds = totals.Refunds.Add(local.Abs())
		}

		if !tx.IsInstallment {
			continue
		}
		totals.InstallmentLocal = totals.InstallmentLocal.Add(local)
		totals.InstallmentForeign = totals.InstallmentForeign.Add(foreign)

		// Purchases whose first installment falls on this statement
		if tx.Installment != nil && tx.Installment.Paid == 1 {
			totals.FirstInstallmentCount++
			totals.FirstInstallmentLocal = totals.FirstInstallmentLocal.Add(local)
		}
	}

	totals.OrdinaryLocal = totals.Local.Sub(totals.InstallmentLocal)
	totals.OrdinaryForeign = totals.Foreign.Sub(totals.InstallmentForeign)

	if totals.Local.IsPositive() {
		totals.InstallmentPercent = totals.InstallmentLocal.Div(totals.Local).Mul(hundred).Round(2)
	}

	if previous.Valid {
		totals.BalanceWithPrevious = decimal.NewNullDecimal(previous.Decimal.Add(totals.Local))
	}

	return totals
}

func valueOrZero(value decimal.NullDecimal) decimal.Decimal {
	if value.Valid {
		return value.Decimal
	}
	return decimal.Zero
}
