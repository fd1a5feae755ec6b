// Package cmdutil holds the flags, config binding, and output helpers
// shared across regionctl's subcommands.
package cmdutil

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"

	"github.com/marmos91/regionstore/pkg/metrics"
	"github.com/marmos91/regionstore/pkg/registry"
)

// CLIFlags holds the persistent flags the root command parses once;
// subcommands read from this struct instead of re-parsing cobra flags
// themselves.
type CLIFlags struct {
	Dir     string
	Output  string
	Metrics bool
}

// Flags is populated by the root command's PersistentPreRun.
var Flags CLIFlags

// BindViper sets v's environment prefix to REGIONCTL and enables
// AutomaticEnv. No flag is bound to v: the root command reads its
// persistent flags from cobra alone, so REGIONCTL_* environment variables
// do not supply them.
func BindViper(v *viper.Viper) {
	v.SetEnvPrefix("REGIONCTL")
	v.AutomaticEnv()
}

// shared is the process-wide Registry every subcommand shares, so a
// repl session or a sequence of `regionctl write` calls within one process
// reuses already-open regions instead of reopening the file each time.
var shared *registry.Registry

// Registry returns the shared Registry, creating it (and wiring
// Prometheus metrics, if enabled) on first use.
func Registry() *registry.Registry {
	if shared == nil {
		var m metrics.RegionMetrics
		if Flags.Metrics {
			metrics.InitRegistry()
			m = metrics.NewRegionMetrics()
		}
		shared = registry.NewRegistry(registry.Config{Metrics: m})
	}
	return shared
}

// CloseRegistry closes every region the shared Registry opened. Deferred
// from regionctl's main so a single invocation always flushes cleanly.
func CloseRegistry() error {
	if shared == nil {
		return nil
	}
	return shared.Close()
}

// TableRenderer is implemented by types that can render themselves as a
// table for PrintTable.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes data as a borderless, left-aligned table.
func PrintTable(w io.Writer, data TableRenderer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.Headers())
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, row := range data.Rows() {
		table.Append(row)
	}
	table.Render()
}

// ParseCoord parses a decimal chunk or region coordinate from a CLI
// positional argument.
func ParseCoord(arg string) (int32, error) {
	v, err := strconv.ParseInt(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q: %w", arg, err)
	}
	return int32(v), nil
}
