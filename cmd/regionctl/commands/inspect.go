package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/regionstore/cmd/regionctl/cmdutil"
	"github.com/marmos91/regionstore/pkg/region"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <regionX> <regionZ>",
	Short: "Show a region's free-range table and occupancy summary",
	Args:  cobra.ExactArgs(2),
	RunE:  runInspect,
}

// formatSectorBytes renders a sector count as a human-readable byte
// figure for the summary lines. Sectors are 4KiB, so everything at or
// above one sector lands on a binary unit.
func formatSectorBytes(sectors uint32) string {
	b := uint64(sectors) * region.SectorSize
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.2fGiB", float64(b)/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.2fMiB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.2fKiB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// freeRangeRows adapts Region.FreeRanges' result into PrintTable's contract.
type freeRangeRows [][2]uint32

func (f freeRangeRows) Headers() []string { return []string{"START", "END", "SECTORS"} }
func (f freeRangeRows) Rows() [][]string {
	rows := make([][]string, len(f))
	for i, r := range f {
		rows[i] = []string{fmt.Sprintf("%d", r[0]), fmt.Sprintf("%d", r[1]), fmt.Sprintf("%d", r[1]-r[0])}
	}
	return rows
}

func runInspect(cmd *cobra.Command, args []string) error {
	rx, err := cmdutil.ParseCoord(args[0])
	if err != nil {
		return err
	}
	rz, err := cmdutil.ParseCoord(args[1])
	if err != nil {
		return err
	}

	r, err := cmdutil.Registry().Open(cmdutil.Flags.Dir, rx, rz)
	if err != nil {
		return fmt.Errorf("open region: %w", err)
	}

	free := r.FreeRanges()
	wantedEnd := r.WantedEnd()

	var freeSectors uint32
	rows := make(freeRangeRows, 0, len(free))
	for _, fr := range free {
		rows = append(rows, [2]uint32{fr.Start, fr.End})
		freeSectors += fr.End - fr.Start
	}

	cmd.Printf("region %s\n", region.Key{Directory: cmdutil.Flags.Dir, X: rx, Z: rz})
	cmd.Printf("  wantedEnd:    %d sectors (%s)\n", wantedEnd, formatSectorBytes(wantedEnd))
	cmd.Printf("  free sectors: %d (%s)\n", freeSectors, formatSectorBytes(freeSectors))
	cmd.Printf("  free ranges:  %d\n\n", len(free))

	if len(rows) > 0 {
		cmdutil.PrintTable(cmd.OutOrStdout(), rows)
	}
	return nil
}
