package cmd

import (
	"fmt"
	"io"
	"strings"

	"card-statement-analyzer/internal/models"
	"card-statement-analyzer/internal/parsers"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var banksCmd = &cobra.Command{
	Use:   "banks",
	Short: "List the supported statement issuers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printBanks(cmd.OutOrStdout())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the analyzer version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "analyzer %s\n", getVersionString())
	},
}

func init() {
	rootCmd.AddCommand(banksCmd)
	rootCmd.AddCommand(versionCmd)
}

func printBanks(w io.Writer) error {
	data := pterm.TableData{{"Bank", "Name", "Documents", "Layout", "Movements start at"}}
	for _, g := range parsers.ListGrammars() {
		data = append(data, []string{
			g.Bank.String(),
			g.Bank.DisplayName(),
			"pdf",
			string(g.Layout),
			g.StartMarker,
		})
	}
	data = append(data, []string{
		models.BankBROU.String(),
		models.BankBROU.DisplayName(),
		"xls, xlsx",
		"card or savings export",
		"header row",
	})

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, strings.TrimRight(pterm.RemoveColorFromString(table), "\n"))
	return err
}
