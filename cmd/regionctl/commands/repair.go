package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/marmos91/regionstore/cmd/regionctl/cmdutil"
	"github.com/marmos91/regionstore/pkg/region"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair tools that rewrite a region file outside the normal write path",
}

var repairClearCellCmd = &cobra.Command{
	Use:   "clear-cell <regionX> <regionZ> <chunkX> <chunkZ>",
	Short: "Zero a cell's header and timestamp table entries, marking it empty",
	Long: `clear-cell rewrites a region file's header and timestamp table entries for
one cell to zero, without touching its payload bytes. The next region open
sees the cell as empty and folds its old sector range back into the free
set. Use this to recover from a corrupted header entry that points at
garbage or overlapping sectors, a state the normal write path never
produces on its own but that a damaged file on disk can still exhibit.

The rewrite goes through a temp-file-plus-rename (github.com/natefinch/atomic)
rather than the region's own mmap, so a crash mid-repair leaves either the
untouched original file or the fully repaired one, never a torn header
table.`,
	Args: cobra.ExactArgs(4),
	RunE: runRepairClearCell,
}

func init() {
	repairCmd.AddCommand(repairClearCellCmd)
}

func runRepairClearCell(cmd *cobra.Command, args []string) error {
	rx, err := cmdutil.ParseCoord(args[0])
	if err != nil {
		return err
	}
	rz, err := cmdutil.ParseCoord(args[1])
	if err != nil {
		return err
	}
	cx, err := cmdutil.ParseCoord(args[2])
	if err != nil {
		return err
	}
	cz, err := cmdutil.ParseCoord(args[3])
	if err != nil {
		return err
	}

	// The repair must see the file on disk, not a stale mmap of it, and
	// must not race the region's own writer; close it first if this
	// process has it open.
	if err := cmdutil.Registry().CloseRegion(cmdutil.Flags.Dir, rx, rz); err != nil {
		return fmt.Errorf("close region before repair: %w", err)
	}

	key := region.Key{Directory: cmdutil.Flags.Dir, X: rx, Z: rz}
	path := key.Path()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read region file: %w", err)
	}
	if len(data) < 8192 {
		return fmt.Errorf("region file too short to hold header and timestamp tables")
	}

	x := floorMod(cx, region.GridSize)
	z := floorMod(cz, region.GridSize)
	idx := x + z*region.GridSize

	clear(data[idx*4 : idx*4+4])           // header table entry
	clear(data[4096+idx*4 : 4096+idx*4+4]) // timestamp table entry

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("rewrite region file: %w", err)
	}

	cmd.Printf("cleared cell (%d,%d) in region %s\n", cx, cz, key)
	return nil
}

func floorMod(v, m int32) int32 {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}
