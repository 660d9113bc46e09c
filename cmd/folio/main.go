package main

import (
	"os"

	"github.com/devemco/folio/cmd/folio/commands"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := commands.NewRootCmd(commands.BuildInfo{Version: version, Commit: commit, Date: date})
	// Errors are already printed by the printer.
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
