// Package parsers turns extracted statement content into canonical
// transactions.
//
// PDF statements arrive as one text blob. A per-bank Grammar selects the
// movements region, discards metadata lines through blacklist and noise
// rules, and classifies each remaining line (or stacked group of lines)
// into a Transaction candidate. Spreadsheet exports arrive as a cleaned
// loader.Table and are mapped row by row.
//
// Parser Types:
//   - StatementParser: grammar-driven classifier for PDF text
//   - TableParser: BROU card and savings account exports
//
// Example usage:
//
//	parser, err := parsers.New(models.BankSantander)
//	extraction, err := parser.Parse(ctx, text)
//
//	bank, ok := parsers.Detect(text)
package parsers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"card-statement-analyzer/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold upper-cases s and strips combining accents, so LÍMITE and LIMITE
// compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToUpper(folded)
}

// containsFolded reports whether s contains any of the phrases, ignoring
// case and accents
func containsFolded(s string, phrases []string) bool {
	folded := Fold(s)
	for _, phrase := range phrases {
		if phrase != "" && strings.Contains(folded, Fold(phrase)) {
			return true
		}
	}
	return false
}

// equalsFolded reports whether s equals one of the phrases, ignoring case
// and accents
func equalsFolded(s string, phrases []string) bool {
	folded := strings.TrimSpace(Fold(s))
	for _, phrase := range phrases {
		if folded == Fold(phrase) {
			return true
		}
	}
	return false
}

// Cursor walks an indexable line sequence. Classification steps read ahead
// through Line and the caller advances by the number of lines they consumed.
type Cursor struct {
	lines []string
	pos   int
}

// NewCursor creates a cursor positioned on the first line
func NewCursor(lines []string) *Cursor {
	return &Cursor{lines: lines}
}

// Done reports whether every line has been consumed
func (c *Cursor) Done() bool {
	return c.pos >= len(c.lines)
}

// Line returns the line offset positions ahead of the cursor
func (c *Cursor) Line(offset int) (string, bool) {
	i := c.pos + offset
	if i < 0 || i >= len(c.lines) {
		return "", false
	}
	return c.lines[i], true
}

// Advance moves the cursor forward by n lines, at least one
func (c *Cursor) Advance(n int) {
	if n < 1 {
		n = 1
	}
	c.pos += n
}

// Position returns the index of the current line
func (c *Cursor) Position() int {
	return c.pos
}

// Region selects the movements region of text. Lines are trimmed and blank
// lines dropped. The region starts after the start-marker line (plus the
// grammar's skip) and ends before the first end-marker line, which is
// returned as stop. A missing start marker yields no lines unless the
// grammar allows scanning the whole text.
func Region(text string, g *Grammar) (lines []string, stop string) {
	var all []string
	for _, raw := range strings.Split(text, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			all = append(all, line)
		}
	}

	begin := -1
	for i, line := range all {
		if containsFolded(line, []string{g.StartMarker}) {
			begin = i + 1 + g.StartSkip
			break
		}
	}
	if begin < 0 {
		if !g.StartOptional {
			return nil, ""
		}
		begin = 0
	}
	if begin > len(all) {
		begin = len(all)
	}

	end := len(all)
	for i := begin; i < len(all); i++ {
		if containsFolded(all[i], g.EndMarkers) {
			end = i
			stop = all[i]
			break
		}
	}

	return all[begin:end], stop
}

// Discard reasons recorded in ParseStats
const (
	ReasonBlank       = "blank"
	ReasonBlacklisted = "blacklisted"
	ReasonNoLetters   = "no_letters"
	ReasonCorruptDate = "corrupt_date"
	ReasonTooShort    = "too_short"
	ReasonNoMatch     = "no_match"
	ReasonNoDetail    = "no_alphabetic_detail"
	ReasonSkipped     = "skipped_detail"
	ReasonExcluded    = "excluded_row"
)

// ParseStats holds statistics about a classification run
type ParseStats struct {
	TotalLines int
	Emitted    int
	Discarded  map[string]int
}

// NewParseStats creates a new ParseStats instance
func NewParseStats() *ParseStats {
	return &ParseStats{
		Discarded: make(map[string]int),
	}
}

// Discard records lines dropped for reason
func (ps *ParseStats) Discard(reason string, lines int) {
	ps.Discarded[reason] += lines
}

// DiscardedTotal returns the number of lines dropped for any reason
func (ps *ParseStats) DiscardedTotal() int {
	total := 0
	for _, n := range ps.Discarded {
		total += n
	}
	return total
}

// String returns a human-readable summary of classification statistics
func (ps *ParseStats) String() string {
	reasons := make([]string, 0, len(ps.Discarded))
	for reason := range ps.Discarded {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	var parts []string
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, ps.Discarded[reason]))
	}
	return fmt.Sprintf("Scanned %d lines, %d transactions, %d discarded [%s]",
		ps.TotalLines, ps.Emitted, ps.DiscardedTotal(), strings.Join(parts, " "))
}

// Extraction is everything a parser recovers from one document
type Extraction struct {
	Bank          models.Bank
	Transactions  []models.Transaction
	DeclaredTotal decimal.NullDecimal
	Summary       models.SummaryFigures
	LawPhrases    []string
	Stats         *ParseStats
}

// Parser classifies the text of a PDF statement
type Parser interface {
	Bank() models.Bank
	Parse(ctx context.Context, text string) (*Extraction, error)
}

func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
