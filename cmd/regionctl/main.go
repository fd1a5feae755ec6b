// Command regionctl inspects, reads, writes, and repairs region storage
// engine files directly, without going through an embedding server.
package main

import (
	"fmt"
	"os"

	"github.com/marmos91/regionstore/cmd/regionctl/cmdutil"
	"github.com/marmos91/regionstore/cmd/regionctl/commands"

	// Registers the Prometheus RegionMetrics constructor via package init.
	_ "github.com/marmos91/regionstore/pkg/metrics/prometheus"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	err := commands.Execute()

	if closeErr := cmdutil.CloseRegistry(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
