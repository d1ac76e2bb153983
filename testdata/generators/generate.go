// Command generate writes sample statement documents for manual runs of the
// analyzer CLI:
//
//	go run ./testdata/generators -output-dir testdata/generated
//	analyzer analyze testdata/generated/*.pdf testdata/generated/*.xlsx
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"card-statement-analyzer/internal/fixtures"
)

// Generator produces one sample document
type Generator struct {
	Name        string
	File        string
	Description string
	Build       func(password string) ([]byte, error)
}

var generators = []Generator{
	{
		Name:        "santander",
		File:        "santander.pdf",
		Description: "Santander PDF with installments and law-deduction refunds",
		Build:       pdf(fixtures.SantanderLines),
	},
	{
		Name:        "santander-locked",
		File:        "santander-locked.pdf",
		Description: "Santander PDF encrypted with -password",
		Build: func(password string) ([]byte, error) {
			return fixtures.EncryptedPDF(fixtures.SantanderLines(), password), nil
		},
	},
	{
		Name:        "itau",
		File:        "itau.pdf",
		Description: "Itau PDF with mixed currency movements",
		Build:       pdf(fixtures.ItauLines),
	},
	{
		Name:        "scotiabank",
		File:        "scotiabank.pdf",
		Description: "Scotiabank PDF in the stacked layout",
		Build:       pdf(fixtures.ScotiabankLines),
	},
	{
		Name:        "brou-card",
		File:        "brou-card.xlsx",
		Description: "BROU card statement export",
		Build:       workbook(fixtures.BROUCardRows),
	},
	{
		Name:        "brou-savings",
		File:        "brou-savings.xlsx",
		Description: "BROU savings account export",
		Build:       workbook(fixtures.BROUSavingsRows),
	},
}

func pdf(lines func() []string) func(string) ([]byte, error) {
	return func(string) ([]byte, error) {
		return fixtures.PDF(lines()), nil
	}
}

func workbook(rows func() [][]interface{}) func(string) ([]byte, error) {
	return func(string) ([]byte, error) {
		return fixtures.XLSX(rows())
	}
}

func main() {
	var (
		generator = flag.String("generator", "all", "generator to run, or 'all'")
		list      = flag.Bool("list", false, "list available generators")
		outputDir = flag.String("output-dir", "testdata/generated", "output directory for generated files")
		password  = flag.String("password", "12345678", "user password of encrypted samples")
	)
	flag.Parse()

	if *list {
		for _, gen := range generators {
			fmt.Printf("  %-18s %s\n", gen.Name, gen.Description)
		}
		return
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	ran := 0
	for _, gen := range generators {
		if *generator != "all" && *generator != gen.Name {
			continue
		}
		data, err := gen.Build(*password)
		if err != nil {
			log.Fatalf("Generator %s failed: %v", gen.Name, err)
		}
		path := filepath.Join(*outputDir, gen.File)
		if err := os.WriteFile(path, data, 0644); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		fmt.Printf("Generated %s (%d bytes)\n", path, len(data))
		ran++
	}

	if ran == 0 {
		log.Fatalf("Unknown generator %q, use -list to see the available ones", *generator)
	}
}
