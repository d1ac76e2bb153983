package main

import (
	"os"

	"card-statement-analyzer/cmd/analyzer/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)

	err := cmd.Execute()
	os.Exit(cmd.NewCLIErrorHandler(os.Stderr).HandleError(err))
}
