package parsers

import (
	"strings"

	"card-statement-analyzer/internal/models"
)

// bankMarkers are issuer names printed on statement headers, checked in
// order. Scotiabank comes first because its statements mention payments
// made at other banks.
var bankMarkers = []struct {
	bank    models.Bank
	phrases []string
}{
	{models.BankScotiabank, []string{"SCOTIABANK"}},
	{models.BankSantander, []string{"SANTANDER"}},
	{models.BankItau, []string{"ITAU"}},
}

// Detect guesses the issuer of a PDF statement from its text. Issuer names
// win; otherwise the first grammar whose start marker appears is chosen.
func Detect(text string) (models.Bank, bool) {
	folded := Fold(text)

	for _, marker := range bankMarkers {
		for _, phrase := range marker.phrases {
			if strings.Contains(folded, phrase) {
				return marker.bank, true
			}
		}
	}

	for _, g := range ListGrammars() {
		if strings.Contains(folded, Fold(g.StartMarker)) {
			return g.Bank, true
		}
	}

	return "", false
}
