package parsers

import (
	"fmt"
	"regexp"
	"strings"

	"card-statement-analyzer/internal/models"

	"github.com/shopspring/decimal"
)

// Layout tells the classifier how a statement prints one movement
type Layout string

const (
	// LayoutInline prints date, card, detail and amounts on a single line.
	LayoutInline Layout = "inline"
	// LayoutStacked prints date, detail and amounts on consecutive lines.
	LayoutStacked Layout = "stacked"
)

// AttributeFunc assigns the parsed amounts of a line to the local, foreign
// and origin columns.
type AttributeFunc func(detail string, amounts []decimal.NullDecimal) (local, foreign, origin decimal.NullDecimal)

// SummaryField names one of the declared statement figures
type SummaryField string

const (
	FieldPreviousBalance SummaryField = "previous_balance"
	FieldCashBalance     SummaryField = "cash_balance"
	FieldMinimumPayment  SummaryField = "minimum_payment"
	FieldCashPayment     SummaryField = "cash_payment"
)

// SummaryPattern captures a declared figure from the full statement text
type SummaryPattern struct {
	Field   SummaryField
	Pattern *regexp.Regexp
}

// Grammar is the per-bank phrase table and line shape used by the text
// classifier
type Grammar struct {
	Bank        models.Bank `json:"bank"`
	Description string      `json:"description,omitempty"`
	Layout      Layout      `json:"layout"`

	StartMarker string `json:"start_marker"`
	// StartSkip drops this many lines after the start-marker line.
	StartSkip int `json:"start_skip"`
	// StartOptional scans the whole text when the start marker is absent.
	StartOptional bool     `json:"start_optional"`
	EndMarkers    []string `json:"end_markers,omitempty"`

	Blacklist []string `json:"blacklist,omitempty"`
	Whitelist []string `json:"whitelist,omitempty"`
	// SkipExact discards details equal to one of these phrases.
	SkipExact []string `json:"skip_exact,omitempty"`
	// RefundMarkers open an undated refund record in the stacked layout.
	RefundMarkers []string `json:"refund_markers,omitempty"`
	MinLineLength int      `json:"min_line_length"`

	DatePattern  string `json:"date_pattern"`
	DateLayout   string `json:"date_layout"`
	DateRequired bool   `json:"date_required"`
	// CorruptDate matches a date glued to further digits.
	CorruptDate *regexp.Regexp `json:"-"`

	CardDigits   int  `json:"card_digits"`
	CardRequired bool `json:"card_required"`
	MaxAmounts   int  `json:"max_amounts"`

	// HardStop is the end marker whose line carries the declared total.
	HardStop   string           `json:"hard_stop,omitempty"`
	LawPhrases []string         `json:"law_phrases,omitempty"`
	Summary    []SummaryPattern `json:"-"`
	Attribute  AttributeFunc    `json:"-"`
}

// Validate checks that the grammar can drive the classifier
func (g *Grammar) Validate() error {
	if !g.Bank.IsValid() {
		return fmt.Errorf("grammar bank is invalid: %q", g.Bank)
	}

	if g.Layout != LayoutInline && g.Layout != LayoutStacked {
		return fmt.Errorf("unknown layout %q", g.Layout)
	}

	if strings.TrimSpace(g.StartMarker) == "" {
		return fmt.Errorf("start marker cannot be empty")
	}

	if g.StartSkip < 0 {
		return fmt.Errorf("start skip cannot be negative, got %d", g.StartSkip)
	}

	if strings.TrimSpace(g.DatePattern) == "" {
		return fmt.Errorf("date pattern cannot be empty")
	}
	if _, err := regexp.Compile(g.DatePattern); err != nil {
		return fmt.Errorf("invalid date pattern: %w", err)
	}

	if g.Layout == LayoutInline && (g.MaxAmounts < 1 || g.MaxAmounts > 2) {
		return fmt.Errorf("max amounts must be 1 or 2, got %d", g.MaxAmounts)
	}

	if g.CardRequired && g.CardDigits <= 0 {
		return fmt.Errorf("card digits must be positive when the card is required")
	}

	if g.HardStop != "" && !containsFolded(g.HardStop, g.EndMarkers) {
		return fmt.Errorf("hard stop %q must be one of the end markers", g.HardStop)
	}

	return nil
}

// attribute applies the grammar's amount rule, defaulting to local then
// foreign
func (g *Grammar) attribute(detail string, amounts []decimal.NullDecimal) (local, foreign, origin decimal.NullDecimal) {
	if g.Attribute != nil {
		return g.Attribute(detail, amounts)
	}
	return defaultAttribute(detail, amounts)
}

func defaultAttribute(_ string, amounts []decimal.NullDecimal) (local, foreign, origin decimal.NullDecimal) {
	if len(amounts) > 0 {
		local = amounts[0]
	}
	if len(amounts) > 1 {
		foreign = amounts[1]
	}
	return local, foreign, origin
}

// itauAttribute reads a pair as origin and foreign amounts, except for life
// insurance charges which print the local amount first.
func itauAttribute(detail string, amounts []decimal.NullDecimal) (local, foreign, origin decimal.NullDecimal) {
	switch len(amounts) {
	case 1:
		local = amounts[0]
	case 2:
		if strings.Contains(Fold(detail), "SEGURO DE VIDA") {
			local, foreign = amounts[0], amounts[1]
		} else {
			origin, foreign = amounts[0], amounts[1]
		}
	}
	return local, foreign, origin
}

// Predefined grammars for the PDF issuers
var (
	SantanderGrammar = &Grammar{
		Bank:        models.BankSantander,
		Description: "Santander card statement (PDF, may be password protected)",
		Layout:      LayoutInline,
		StartMarker: "SALDO ANTERIOR",
		EndMarkers:  []string{"TOTAL DEV LEY", "SALDO CONTADO", "IMPORTE TOTAL", "P.MINIMO", "P.CONTADO"},
		Blacklist: []string{
			"SALDO ANTERIOR", "SALDO CONTADO", "PAGO TOTAL", "PAGO MINIMO", "P.MINIMO", "P.CONTADO",
			"LIMITE", "CREDITO DISPONIBLE", "VENCIMIENTO", "CIERRE", "TASA", "CUOTAS A VENCER",
			"RESUMEN", "TOTAL DEV LEY", "IMPORTE TOTAL", "ESTADO DE CUENTA", "TARJETA DE CREDITO",
			"PAGINA", "TITULAR", "NUMERO DE CUENTA",
		},
		Whitelist:     []string{"MULTA POR MORA", "LEY 18212", "INTERESES FINANCIEROS", "I.V.A", "IVA"},
		MinLineLength: 15,
		DatePattern:   `\d{2}/\d{2}/\d{4}`,
		DateLayout:    "02/01/2006",
		DateRequired:  true,
		CorruptDate:   regexp.MustCompile(`^\d{2}/\d{2}/\d{4}\d+`),
		CardDigits:    3,
		CardRequired:  true,
		MaxAmounts:    1,
		HardStop:      "TOTAL DEV LEY",
		LawPhrases:    []string{"LEY INCL FINANC", "LEY INCL"},
		Summary: []SummaryPattern{
			{FieldPreviousBalance, regexp.MustCompile(`SALDO ANTERIOR\s+([\d.,]+)`)},
			{FieldCashBalance, regexp.MustCompile(`SALDO CONTADO\s+([\d.,]+)`)},
			{FieldMinimumPayment, regexp.MustCompile(`(?i)P\.?Minimo:?\s*([\d.,]+)`)},
			{FieldCashPayment, regexp.MustCompile(`(?i)P\.?Contado:?\s*([\d.,]+)`)},
		},
	}

	ItauGrammar = &Grammar{
		Bank:        models.BankItau,
		Description: "Itaú card statement (PDF)",
		Layout:      LayoutInline,
		StartMarker: "SALDO DEL ESTADO DE CUENTA ANTERIOR",
		EndMarkers:  []string{"UD. HA GENERADO"},
		Blacklist:   []string{"SALDO DEL ESTADO", "SALDO CONTADO", "PAGOS", "MILLAS", "INTERESES", "MORA"},
		DatePattern: `\d{2} \d{2} \d{2}`,
		DateLayout:  "02 01 06",
		CardDigits:  4,
		MaxAmounts:  2,
		Summary: []SummaryPattern{
			{FieldPreviousBalance, regexp.MustCompile(`SALDO DEL ESTADO DE CUENTA ANTERIOR\s+([\d.,]+)`)},
		},
		Attribute: itauAttribute,
	}

	ScotiabankGrammar = &Grammar{
		Bank:          models.BankScotiabank,
		Description:   "Scotiabank card statement (PDF, stacked records)",
		Layout:        LayoutStacked,
		StartMarker:   "Escaneá los códigos de barras de tus comprobantes",
		StartSkip:     1,
		StartOptional: true,
		Blacklist:     []string{"PAGO EN SCOTIABANK", "TOTAL TARJETA", "LEY 17934"},
		SkipExact:     []string{"PAGO"},
		RefundMarkers: []string{"DEV", "DEVOLUCION"},
		DatePattern:   `\d{2}/\d{2}/\d{2}`,
		DateLayout:    "02/01/06",
		DateRequired:  true,
		MaxAmounts:    2,
	}
)

// GetGrammar returns the predefined grammar of a PDF issuer, or nil for
// banks that do not publish PDF statements
func GetGrammar(bank models.Bank) *Grammar {
	switch bank {
	case models.BankSantander:
		return SantanderGrammar
	case models.BankItau:
		return ItauGrammar
	case models.BankScotiabank:
		return ScotiabankGrammar
	default:
		return nil
	}
}

// ListGrammars returns all predefined grammars
func ListGrammars() []*Grammar {
	return []*Grammar{
		ItauGrammar,
		SantanderGrammar,
		ScotiabankGrammar,
	}
}
