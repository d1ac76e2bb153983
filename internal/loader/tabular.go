package loader

import (
	"bytes"
	"fmt"
	"strings"

	"card-statement-analyzer/internal/amount"
	"card-statement-analyzer/pkg/errors"
	"card-statement-analyzer/pkg/logger"

	"github.com/extrame/xls"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Column names of the card statement export
const (
	HeaderMarker  = "Fecha"
	ColumnDate    = "Fecha"
	ColumnDetail  = "Descripción"
	ColumnLocal   = "Importe $"
	ColumnForeign = "Importe U$S"
	ColumnOrigin  = "Importe Origen"
	ColumnDebit   = "Débito"
	ColumnCredit  = "Crédito"
)

// TableLayout describes how a spreadsheet export is cleaned
type TableLayout struct {
	Name string
	// DropFooter removes the last data row, which carries totals.
	DropFooter bool
	// Required columns fail the load with MissingColumn when absent.
	Required []string
	// Amounts are normalized with the numeric normalizer.
	Amounts []string
	// Keep survives the empty-column sweep.
	Keep []string
}

// CardLayout is the credit card statement export.
var CardLayout = TableLayout{
	Name:       "card",
	DropFooter: true,
	Required:   []string{ColumnLocal},
	Amounts:    []string{ColumnLocal, ColumnForeign, ColumnOrigin},
	Keep:       []string{ColumnOrigin},
}

// SavingsLayout is the savings account movements export.
var SavingsLayout = TableLayout{
	Name:     "savings",
	Required: []string{ColumnDate, ColumnDetail, ColumnDebit, ColumnCredit},
	Amounts:  []string{ColumnDebit, ColumnCredit},
}

// Row is one cleaned table row
type Row struct {
	Values  map[string]string
	Amounts map[string]decimal.NullDecimal
}

// Value returns the trimmed cell of column, or "" when the column is absent
func (r Row) Value(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// Amount returns the normalized amount of column; absent columns are null
func (r Row) Amount(column string) decimal.NullDecimal {
	return r.Amounts[column]
}

// Table is a spreadsheet after header detection and cleanup
type Table struct {
	Headers []string
	Rows    []Row
}

// HasColumn reports whether the cleaned table kept column
func (t *Table) HasColumn(column string) bool {
	for _, h := range t.Headers {
		if h == column {
			return true
		}
	}
	return false
}

// LoadTable reads the first sheet of a spreadsheet and cleans it with layout.
func LoadTable(data []byte, format Format, layout TableLayout) (*Table, error) {
	log := logger.WithComponent("loader").WithFields(logger.Fields{
		"format": format,
		"layout": layout.Name,
	})

	var grid [][]string
	var err error
	switch format {
	case FormatXLSX:
		grid, err = readXLSX(data)
	case FormatXLS:
		grid, err = readXLS(data)
	default:
		return nil, errors.UnsupportedFormat("spreadsheet", string(format))
	}
	if err != nil {
		return nil, err
	}

	table, err := buildTable(grid, layout)
	if err != nil {
		return nil, err
	}

	log.WithField("rows", len(table.Rows)).Debug("table loaded")
	return table, nil
}

func readXLSX(data []byte) (grid [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.InvalidDocument("spreadsheet", fmt.Errorf("xlsx reader crashed: %v", r))
		}
	}()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.InvalidDocument("spreadsheet", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidDocument("spreadsheet", fmt.Errorf("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.InvalidDocument("spreadsheet", err)
	}
	return rows, nil
}

func readXLS(data []byte) (grid [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.InvalidDocument("spreadsheet", fmt.Errorf("xls reader crashed: %v", r))
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, errors.InvalidDocument("spreadsheet", err)
	}
	if wb.NumSheets() == 0 {
		return nil, errors.InvalidDocument("spreadsheet", fmt.Errorf("workbook has no sheets"))
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.InvalidDocument("spreadsheet", fmt.Errorf("could not read first sheet"))
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells[c] = row.Col(c)
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// buildTable applies header detection and cleanup to a raw cell grid.
func buildTable(grid [][]string, layout TableLayout) (*Table, error) {
	var headerRows []int
	for i, cells := range grid {
		for _, value := range cells {
			if strings.Contains(strings.ToLower(value), strings.ToLower(HeaderMarker)) {
				headerRows = append(headerRows, i)
				break
			}
		}
	}
	// The first match is the preamble, the second opens the movements table.
	if len(headerRows) < 2 {
		return nil, errors.HeaderNotFound(len(headerRows))
	}

	headerIdx := headerRows[1]
	headers := make([]string, len(grid[headerIdx]))
	for i, h := range grid[headerIdx] {
		headers[i] = strings.TrimSpace(h)
	}

	body := grid[headerIdx+1:]
	if layout.DropFooter && len(body) > 0 {
		body = body[:len(body)-1]
	}

	width := len(headers)
	var kept [][]string
	for _, cells := range body {
		if isEmptyRow(cells) {
			continue
		}
		if len(cells) > width {
			width = len(cells)
		}
		kept = append(kept, cells)
	}
	for len(headers) < width {
		headers = append(headers, "")
	}

	keep := make(map[string]bool, len(layout.Keep))
	for _, name := range layout.Keep {
		keep[name] = true
	}

	var columns []int
	for col := 0; col < width; col++ {
		if keep[headers[col]] || columnHasData(kept, col) {
			columns = append(columns, col)
		}
	}

	table := &Table{}
	for _, col := range columns {
		table.Headers = append(table.Headers, headers[col])
	}

	for _, required := range layout.Required {
		if !table.HasColumn(required) {
			return nil, errors.MissingColumn(required, table.Headers)
		}
	}

	for _, cells := range kept {
		row := Row{
			Values:  make(map[string]string, len(columns)),
			Amounts: make(map[string]decimal.NullDecimal, len(layout.Amounts)),
		}
		for _, col := range columns {
			name := headers[col]
			if _, seen := row.Values[name]; seen {
				continue
			}
			row.Values[name] = cell(cells, col)
		}
		for _, name := range layout.Amounts {
			row.Amounts[name] = amount.ParseCell(row.Values[name])
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func cell(cells []string, col int) string {
	if col < len(cells) {
		return strings.TrimSpace(cells[col])
	}
	return ""
}

func isEmptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func columnHasData(rows [][]string, col int) bool {
	for _, cells := range rows {
		if cell(cells, col) != "" {
			return true
		}
	}
	return false
}
