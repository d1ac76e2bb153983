// Package installment detects "paid/total" markers in transaction
// descriptions and projects the outstanding installment balance.
package installment

import (
	"strconv"
	"strings"

	"card-statement-analyzer/internal/models"
)

// Horizon is the largest remaining count still treated as an installment.
const Horizon = 11

// Parse extracts the paid and total counts from a description such as
// "SUPERMERCADO TATA 2/6". Only the last two '/'-separated segments are
// considered. ok is false when either count is missing.
func Parse(description string) (paid, total int, ok bool) {
	text := strings.TrimSpace(description)
	if !strings.Contains(text, "/") {
		return 0, 0, false
	}

	parts := strings.Split(text, "/")
	left := strings.TrimSpace(parts[len(parts)-2])
	right := strings.TrimSpace(parts[len(parts)-1])

	// With an internal space only the last word can carry the paid count,
	// otherwise an unrelated number before it would be absorbed. All digits
	// of that word are kept.
	var paidDigits string
	if strings.Contains(left, " ") {
		fields := strings.Fields(left)
		paidDigits = digitsOnly(fields[len(fields)-1])
	} else {
		paidDigits = lastN(trailingDigits(left), 2)
	}
	totalDigits := firstN(leadingDigits(right), 2)
	if paidDigits == "" || totalDigits == "" {
		return 0, 0, false
	}

	paid, err := strconv.Atoi(paidDigits)
	if err != nil {
		return 0, 0, false
	}
	total, err = strconv.Atoi(totalDigits)
	if err != nil {
		return 0, 0, false
	}
	return paid, total, true
}

// Classify returns the installment marker of a description, if any, and
// whether it counts as an installment: the marker must be present and the
// remaining count must lie in [0, Horizon].
func Classify(description string) (*models.Installment, bool) {
	paid, total, ok := Parse(description)
	if !ok {
		return nil, false
	}
	inst := models.NewInstallment(paid, total)
	return inst, inst.Remaining >= 0 && inst.Remaining <= Horizon
}

// Annotate fills Installment and IsInstallment on every transaction.
func Annotate(transactions []models.Transaction) {
	for i := range transactions {
		inst, isInstallment := Classify(transactions[i].Description)
		transactions[i].Installment = inst
		transactions[i].IsInstallment = isInstallment
	}
}

func trailingDigits(s string) string {
	i := len(s)
	for i > 0 && isASCIIDigit(rune(s[i-1])) {
		i--
	}
	return s[i:]
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isASCIIDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && isASCIIDigit(rune(s[i])) {
		i++
	}
	return s[:i]
}

func lastN(s string, n int) string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
