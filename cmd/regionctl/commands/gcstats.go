package commands

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/regionstore/cmd/regionctl/cmdutil"
)

var gcStatsCmd = &cobra.Command{
	Use:   "gc-stats",
	Short: "Report free-sector fragmentation across every region file in --dir",
	Args:  cobra.NoArgs,
	RunE:  runGCStats,
}

var regionFileName = regexp.MustCompile(`^r\.(-?\d+)\.(-?\d+)\.mca$`)

type gcStatRow struct {
	x, z             int32
	wantedEnd        uint32
	freeSectors      uint32
	freeRanges       int
	fragmentationPct float64
}

type gcStatRows []gcStatRow

func (rows gcStatRows) Headers() []string {
	return []string{"REGION", "WANTED_END", "FREE_SECTORS", "FREE_RANGES", "FRAGMENTATION"}
}

func (rows gcStatRows) Rows() [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			fmt.Sprintf("%d,%d", r.x, r.z),
			fmt.Sprintf("%d", r.wantedEnd),
			fmt.Sprintf("%d", r.freeSectors),
			fmt.Sprintf("%d", r.freeRanges),
			fmt.Sprintf("%.1f%%", r.fragmentationPct),
		}
	}
	return out
}

func runGCStats(cmd *cobra.Command, args []string) error {
	entries, err := os.ReadDir(cmdutil.Flags.Dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}

	var rows gcStatRows
	for _, e := range entries {
		m := regionFileName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		x, _ := strconv.ParseInt(m[1], 10, 32)
		z, _ := strconv.ParseInt(m[2], 10, 32)

		r, err := cmdutil.Registry().Open(cmdutil.Flags.Dir, int32(x), int32(z))
		if err != nil {
			cmd.PrintErrf("skipping %s: %v\n", e.Name(), err)
			continue
		}

		free := r.FreeRanges()
		var freeSectors uint32
		for _, fr := range free {
			freeSectors += fr.End - fr.Start
		}
		wantedEnd := r.WantedEnd()

		frag := 0.0
		if wantedEnd > 2 {
			frag = float64(freeSectors) / float64(wantedEnd-2) * 100
		}

		rows = append(rows, gcStatRow{
			x: int32(x), z: int32(z),
			wantedEnd: wantedEnd, freeSectors: freeSectors,
			freeRanges: len(free), fragmentationPct: frag,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].x != rows[j].x {
			return rows[i].x < rows[j].x
		}
		return rows[i].z < rows[j].z
	})

	if len(rows) == 0 {
		cmd.Println("no region files found")
		return nil
	}
	cmdutil.PrintTable(cmd.OutOrStdout(), rows)
	return nil
}
