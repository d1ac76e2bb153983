package parsers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"card-statement-analyzer/internal/amount"
	"card-statement-analyzer/internal/models"
	"card-statement-analyzer/pkg/errors"
	"card-statement-analyzer/pkg/logger"

	"github.com/shopspring/decimal"
)

var declaredTotalRe = regexp.MustCompile(`([\d.,]+-?)\s*$`)

// StatementParser classifies the text of a PDF statement with a Grammar
type StatementParser struct {
	grammar   *Grammar
	dateRe    *regexp.Regexp
	strongRe  *regexp.Regexp
	relaxedRe *regexp.Regexp
	logger    logger.Logger
}

// New returns the statement parser for a PDF issuer
func New(bank models.Bank) (Parser, error) {
	grammar := GetGrammar(bank)
	if grammar == nil {
		return nil, errors.ConfigurationError(errors.CodeUnknownBank, "bank", bank.String(), nil).
			WithSuggestion("PDF statements are supported for itau, santander and scotiabank")
	}
	return NewStatementParser(grammar)
}

// NewStatementParser validates grammar and compiles its line patterns
func NewStatementParser(grammar *Grammar) (*StatementParser, error) {
	if grammar == nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "grammar", nil,
			fmt.Errorf("grammar cannot be nil"))
	}

	if err := grammar.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "grammar", grammar.Bank.String(), err).
			WithSuggestion("Check the grammar definition values")
	}

	date := "(" + grammar.DatePattern + ")"
	datePart := date + `\s+`
	if !grammar.DateRequired {
		datePart = `(?:` + date + `\s+)?`
	}

	cardPart := "()"
	if grammar.CardDigits > 0 {
		card := fmt.Sprintf(`(\d{%d})\s+`, grammar.CardDigits)
		if grammar.CardRequired {
			cardPart = card
		} else {
			cardPart = `(?:` + card + `)?`
		}
	}

	log := logger.WithComponent("parsers").WithField("bank", grammar.Bank)
	log.WithFields(logger.Fields{
		"layout":      grammar.Layout,
		"start":       grammar.StartMarker,
		"end_markers": len(grammar.EndMarkers),
		"blacklist":   len(grammar.Blacklist),
	}).Debug("Created statement parser")

	return &StatementParser{
		grammar:   grammar,
		dateRe:    regexp.MustCompile(`^` + date),
		strongRe:  regexp.MustCompile(`^` + datePart + cardPart + `(.+)$`),
		relaxedRe: regexp.MustCompile(`^` + date + `\s+(.+)$`),
		logger:    log,
	}, nil
}

// Bank returns the issuer this parser classifies
func (sp *StatementParser) Bank() models.Bank {
	return sp.grammar.Bank
}

// Grammar returns the grammar driving the parser
func (sp *StatementParser) Grammar() *Grammar {
	return sp.grammar
}

// Parse selects the movements region of text and classifies it line by
// line. Each step reports how many lines it consumed.
func (sp *StatementParser) Parse(ctx context.Context, text string) (*Extraction, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	g := sp.grammar

	lines, stop := Region(text, g)
	stats := NewParseStats()
	stats.TotalLines = len(lines)

	extraction := &Extraction{
		Bank:       g.Bank,
		Summary:    sp.summary(text),
		LawPhrases: g.LawPhrases,
		Stats:      stats,
	}

	if g.HardStop != "" && stop != "" && containsFolded(stop, []string{g.HardStop}) {
		extraction.DeclaredTotal = declaredTotal(stop)
	}

	step := sp.inlineStep
	if g.Layout == LayoutStacked {
		step = sp.stackedStep
	}

	cursor := NewCursor(lines)
	for !cursor.Done() {
		if cancelled(ctx) {
			sp.logger.Warn("Statement classification was cancelled")
			return nil, errors.InternalError("statement classification", ctx.Err())
		}

		found, consumed := step(cursor, stats)
		if remaining := len(lines) - cursor.Position(); consumed > remaining {
			consumed = remaining
		}
		if found != nil {
			extraction.Transactions = append(extraction.Transactions, found.build(g))
			stats.Emitted++
		}
		cursor.Advance(consumed)
	}

	sp.logger.WithFields(logger.Fields{
		"region_lines":   stats.TotalLines,
		"transactions":   stats.Emitted,
		"discarded":      stats.DiscardedTotal(),
		"declared_total": extraction.DeclaredTotal.Valid,
	}).Debug("Statement classified")

	return extraction, nil
}

// inlineStep classifies a single-line movement, reading one line ahead for
// whitelisted concepts whose amount wrapped onto the next line.
func (sp *StatementParser) inlineStep(c *Cursor, stats *ParseStats) (*candidate, int) {
	g := sp.grammar
	line, _ := c.Line(0)

	if strings.TrimSpace(line) == "" {
		stats.Discard(ReasonBlank, 1)
		return nil, 1
	}
	if reason := sp.noise(line); reason != "" {
		stats.Discard(reason, 1)
		return nil, 1
	}

	head, tokens := amount.Trailing(line, g.MaxAmounts)
	if len(tokens) > 0 {
		if m := sp.strongRe.FindStringSubmatch(head); m != nil {
			return sp.accept(&candidate{date: m[1], card: m[2], detail: m[3], amounts: tokens}, 1, stats)
		}
	}

	if containsFolded(line, g.Whitelist) {
		if m := sp.relaxedRe.FindStringSubmatch(head); m != nil {
			if len(tokens) > 0 {
				return sp.accept(&candidate{date: m[1], detail: m[2], amounts: tokens}, 1, stats)
			}
			if next, ok := c.Line(1); ok {
				rest, wrapped := amount.Trailing(next, g.MaxAmounts)
				if len(wrapped) > 0 && strings.TrimSpace(rest) == "" {
					return sp.accept(&candidate{date: m[1], detail: m[2], amounts: wrapped}, 2, stats)
				}
			}
		}
	}

	stats.Discard(ReasonNoMatch, 1)
	return nil, 1
}

// stackedStep classifies records printed as date, detail and amounts lines,
// and undated refunds printed as detail and amounts lines.
func (sp *StatementParser) stackedStep(c *Cursor, stats *ParseStats) (*candidate, int) {
	g := sp.grammar
	line, _ := c.Line(0)

	if date := sp.dateRe.FindString(line); date != "" {
		detail, _ := c.Line(1)
		amounts, _ := c.Line(2)
		if sp.skipDetail(detail) {
			stats.Discard(ReasonSkipped, 3)
			return nil, 3
		}
		return sp.accept(&candidate{date: date, detail: detail, amounts: firstAmounts(amounts, g.MaxAmounts)}, 3, stats)
	}

	if containsFolded(line, g.RefundMarkers) {
		if amounts, ok := c.Line(1); ok {
			if sp.skipDetail(line) {
				stats.Discard(ReasonSkipped, 2)
				return nil, 2
			}
			return sp.accept(&candidate{detail: line, amounts: firstAmounts(amounts, g.MaxAmounts)}, 2, stats)
		}
	}

	stats.Discard(ReasonNoMatch, 1)
	return nil, 1
}

func (sp *StatementParser) accept(c *candidate, consumed int, stats *ParseStats) (*candidate, int) {
	c.detail = strings.TrimSpace(c.detail)
	if !models.ContainsLetter(c.detail) {
		stats.Discard(ReasonNoDetail, consumed)
		return nil, consumed
	}
	return c, consumed
}

// noise returns the discard reason of a metadata or artifact line, or ""
func (sp *StatementParser) noise(line string) string {
	g := sp.grammar
	switch {
	case containsFolded(line, g.Blacklist):
		return ReasonBlacklisted
	case !models.ContainsLetter(line):
		return ReasonNoLetters
	case g.CorruptDate != nil && g.CorruptDate.MatchString(line):
		return ReasonCorruptDate
	case utf8.RuneCountInString(strings.TrimSpace(line)) < g.MinLineLength:
		return ReasonTooShort
	}
	return ""
}

func (sp *StatementParser) skipDetail(detail string) bool {
	return equalsFolded(detail, sp.grammar.SkipExact) || containsFolded(detail, sp.grammar.Blacklist)
}

// summary captures the declared statement figures from the full text
func (sp *StatementParser) summary(text string) models.SummaryFigures {
	var figures models.SummaryFigures
	for _, p := range sp.grammar.Summary {
		m := p.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := amount.ParseLoose(m[1])
		switch p.Field {
		case FieldPreviousBalance:
			figures.PreviousBalance = value
		case FieldCashBalance:
			figures.CashBalance = value
		case FieldMinimumPayment:
			figures.MinimumPayment = value
		case FieldCashPayment:
			figures.CashPayment = value
		}
	}
	return figures
}

// declaredTotal reads the trailing figure of the hard-stop line as an
// absolute value
func declaredTotal(line string) decimal.NullDecimal {
	m := declaredTotalRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return amount.Null
	}
	value := amount.ParseLoose(m[1])
	if !value.Valid {
		return amount.Null
	}
	return decimal.NewNullDecimal(value.Decimal.Abs())
}

func firstAmounts(line string, max int) []string {
	tokens := amount.FindAll(line)
	if max > 0 && len(tokens) > max {
		tokens = tokens[:max]
	}
	return tokens
}
