package parsers

import (
	"strconv"
	"strings"
	"time"

	"card-statement-analyzer/internal/amount"
	"card-statement-analyzer/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// tableDateLayouts are tried in order on spreadsheet date cells
var tableDateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02-01-2006",
}

// candidate is the raw material of one classified movement
type candidate struct {
	date    string
	card    string
	detail  string
	amounts []string
}

// build turns a candidate into a Transaction using the grammar's date layout
// and amount attribution. Unparseable amounts stay null.
func (c candidate) build(g *Grammar) models.Transaction {
	values := make([]decimal.NullDecimal, 0, len(c.amounts))
	for _, token := range c.amounts {
		values = append(values, amount.Parse(token))
	}

	detail := strings.Join(strings.Fields(c.detail), " ")
	local, foreign, origin := g.attribute(detail, values)

	return models.Transaction{
		Date:          parseDate(c.date, g.DateLayout),
		CardReference: c.card,
		Description:   detail,
		AmountLocal:   local,
		AmountForeign: foreign,
		AmountOrigin:  origin,
		SourceBank:    g.Bank,
	}
}

// parseDate parses value with layout; shapes that are not a real calendar
// date yield nil
func parseDate(value, layout string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" || layout == "" {
		return nil
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return nil
	}
	return &t
}

// parseTableDate accepts the textual layouts banks export and Excel serial
// numbers, which raw cell values carry for date-typed cells
func parseTableDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range tableDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial <= 0 {
		return nil
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return nil
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}
