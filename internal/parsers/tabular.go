package parsers

import (
	"context"

	"card-statement-analyzer/internal/amount"
	"card-statement-analyzer/internal/loader"
	"card-statement-analyzer/internal/models"
	"card-statement-analyzer/pkg/errors"
	"card-statement-analyzer/pkg/logger"

	"github.com/shopspring/decimal"
)

// ColumnCard is the card number column of the BROU card export
const ColumnCard = "Tarjeta"

// savingsExcluded marks balance and summary rows of the savings export
var savingsExcluded = []string{"SALDO INICIAL", "SALDO FINAL", "TOTAL", "RESUMEN"}

// TableParser maps BROU spreadsheet exports to transactions. Card
// statements are tried first; a workbook without the card amount column is
// read as a savings account export.
type TableParser struct {
	logger logger.Logger
}

// NewTableParser creates a new TableParser
func NewTableParser() *TableParser {
	return &TableParser{
		logger: logger.WithComponent("parsers").WithField("bank", models.BankBROU),
	}
}

// Bank returns the issuer of spreadsheet exports
func (tp *TableParser) Bank() models.Bank {
	return models.BankBROU
}

// ParseWorkbook loads the first sheet of data and classifies its rows
func (tp *TableParser) ParseWorkbook(ctx context.Context, data []byte, format loader.Format) (*Extraction, error) {
	table, err := loader.LoadTable(data, format, loader.CardLayout)
	if err == nil {
		return tp.ParseCardTable(ctx, table)
	}
	if !errors.HasCode(err, errors.CodeMissingColumn) {
		return nil, err
	}

	savings, savingsErr := loader.LoadTable(data, format, loader.SavingsLayout)
	if savingsErr != nil {
		// The card layout failure is the more useful message for a
		// workbook that is neither export.
		return nil, err
	}
	return tp.ParseSavingsTable(ctx, savings)
}

// ParseCardTable maps the rows of a card statement export
func (tp *TableParser) ParseCardTable(ctx context.Context, table *loader.Table) (*Extraction, error) {
	return tp.parse(ctx, table, "card", func(row loader.Row) (models.Transaction, string) {
		tx := models.Transaction{
			Date:          parseTableDate(row.Value(loader.ColumnDate)),
			CardReference: row.Value(ColumnCard),
			Description:   row.Value(loader.ColumnDetail),
			AmountLocal:   row.Amount(loader.ColumnLocal),
			AmountForeign: row.Amount(loader.ColumnForeign),
			AmountOrigin:  row.Amount(loader.ColumnOrigin),
			SourceBank:    models.BankBROU,
		}
		if !models.ContainsLetter(tx.Description) {
			return tx, ReasonNoDetail
		}
		return tx, ""
	})
}

// ParseSavingsTable maps the rows of a savings account export; the local
// amount is the net of credit minus debit, or null when neither side parses
func (tp *TableParser) ParseSavingsTable(ctx context.Context, table *loader.Table) (*Extraction, error) {
	return tp.parse(ctx, table, "savings", func(row loader.Row) (models.Transaction, string) {
		description := row.Value(loader.ColumnDetail)
		debit := row.Amount(loader.ColumnDebit)
		credit := row.Amount(loader.ColumnCredit)

		local := amount.Null
		if credit.Valid || debit.Valid {
			net := decimal.Zero
			if credit.Valid {
				net = net.Add(credit.Decimal)
			}
			if debit.Valid {
				net = net.Sub(debit.Decimal)
			}
			local = decimal.NewNullDecimal(net)
		}

		tx := models.Transaction{
			Date:        parseTableDate(row.Value(loader.ColumnDate)),
			Description: description,
			AmountLocal: local,
			SourceBank:  models.BankBROU,
		}
		if !models.ContainsLetter(description) {
			return tx, ReasonNoDetail
		}
		if containsFolded(description, savingsExcluded) {
			return tx, ReasonExcluded
		}
		return tx, ""
	})
}

func (tp *TableParser) parse(ctx context.Context, table *loader.Table, layout string, mapRow func(loader.Row) (models.Transaction, string)) (*Extraction, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	stats := NewParseStats()
	stats.TotalLines = len(table.Rows)
	extraction := &Extraction{
		Bank:  models.BankBROU,
		Stats: stats,
	}

	for _, row := range table.Rows {
		if cancelled(ctx) {
			tp.logger.Warn("Table classification was cancelled")
			return nil, errors.InternalError("table classification", ctx.Err())
		}

		tx, reason := mapRow(row)
		if reason != "" {
			stats.Discard(reason, 1)
			continue
		}
		extraction.Transactions = append(extraction.Transactions, tx)
		stats.Emitted++
	}

	tp.logger.WithFields(logger.Fields{
		"layout":       layout,
		"rows":         stats.TotalLines,
		"transactions": stats.Emitted,
		"discarded":    stats.DiscardedTotal(),
	}).Debug("Table classified")

	return extraction, nil
}
