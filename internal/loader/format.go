// Package loader turns raw statement bytes into either a cleaned table
// (spreadsheet exports) or a page text blob (PDF statements).
package loader

import (
	"path/filepath"
	"strings"

	"card-statement-analyzer/pkg/errors"
)

// Format is the document dialect selected from the file extension
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLS  Format = "xls"
	FormatXLSX Format = "xlsx"
)

// IsTabular reports whether the format is a spreadsheet dialect
func (f Format) IsTabular() bool {
	return f == FormatXLS || f == FormatXLSX
}

// DetectFormat selects the loader from the filename extension only.
func DetectFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".xls":
		return FormatXLS, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", errors.UnsupportedFormat(filename, ext)
	}
}
