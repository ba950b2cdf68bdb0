package main

import (
	"os"

	"github.com/hsmtools/hsmcheck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// Flag and subcommand errors map to the UNKNOWN exit code so
		// the monitoring system never sees a value outside 0-3.
		os.Exit(3)
	}
}
