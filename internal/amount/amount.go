// Package amount parses locale-formatted money tokens as printed on
// Uruguayan statements: '.' groups thousands, ',' separates decimals and a
// trailing '-' marks a credit.
package amount

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// tokenPattern is the amount grammar without anchors.
const tokenPattern = `-?\d{1,3}(?:\.\d{3})*,\d{2}-?`

var (
	tokenRe = regexp.MustCompile(`^` + tokenPattern + `$`)

	// trailingRe matches one amount at the end of a line, preceded by
	// whitespace or the start of the line.
	trailingRe = regexp.MustCompile(`(?:^|\s)(` + tokenPattern + `)\s*$`)

	machineRe = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
	looseRe   = regexp.MustCompile(`^-?[\d.,]+-?$`)
)

// Null is the explicit "unparseable" value.
var Null = decimal.NullDecimal{}

// Matches reports whether token is a complete amount token.
func Matches(token string) bool {
	return tokenRe.MatchString(strings.TrimSpace(token))
}

// Parse converts a locale amount token into a signed decimal. Anything that
// does not match the grammar yields Null, never zero.
func Parse(token string) decimal.NullDecimal {
	token = strings.TrimSpace(token)
	if !tokenRe.MatchString(token) {
		return Null
	}
	return convert(token)
}

// ParseLoose accepts any run of digits, dots and commas with an optional
// sign, as captured next to declared statement figures. It applies the same
// conversion as Parse without the grouping check.
func ParseLoose(token string) decimal.NullDecimal {
	token = strings.TrimSpace(token)
	if !looseRe.MatchString(token) {
		return Null
	}
	return convert(token)
}

// ParseCell parses a spreadsheet cell. Cells exported as text use the locale
// grammar; raw numeric cells come through in machine format.
func ParseCell(cell string) decimal.NullDecimal {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return Null
	}
	if parsed := Parse(cell); parsed.Valid {
		return parsed
	}
	if machineRe.MatchString(cell) {
		d, err := decimal.NewFromString(cell)
		if err != nil {
			return Null
		}
		return decimal.NewNullDecimal(d)
	}
	return Null
}

// Trailing strips up to max amount tokens from the end of line, scanning
// right to left. It returns the remaining head and the tokens in reading
// order.
func Trailing(line string, max int) (string, []string) {
	head := strings.TrimRight(line, " \t")
	var tokens []string
	for len(tokens) < max {
		loc := trailingRe.FindStringSubmatchIndex(head)
		if loc == nil {
			break
		}
		tokens = append([]string{head[loc[2]:loc[3]]}, tokens...)
		head = strings.TrimRight(head[:loc[2]], " \t")
	}
	return head, tokens
}

// FindAll returns every amount token in line, left to right.
func FindAll(line string) []string {
	var tokens []string
	for _, field := range strings.Fields(line) {
		if tokenRe.MatchString(field) {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

// Sum adds the valid values and skips nulls.
func Sum(values ...decimal.NullDecimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		if v.Valid {
			total = total.Add(v.Decimal)
		}
	}
	return total
}

func convert(token string) decimal.NullDecimal {
	negative := false
	if strings.HasSuffix(token, "-") {
		negative = true
		token = strings.TrimSuffix(token, "-")
	}
	if strings.HasPrefix(token, "-") {
		negative = true
		token = strings.TrimPrefix(token, "-")
	}

	normalized := strings.ReplaceAll(token, ".", "")
	normalized = strings.Replace(normalized, ",", ".", 1)

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return Null
	}
	if negative {
		d = d.Neg()
	}
	return decimal.NewNullDecimal(d)
}
