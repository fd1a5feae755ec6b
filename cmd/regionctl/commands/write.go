package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/regionstore/cmd/regionctl/cmdutil"
	"github.com/marmos91/regionstore/pkg/codec"
)

var (
	writeCodecName string
	writeLevel     int
	writeTimestamp uint32
)

var writeCmd = &cobra.Command{
	Use:   "write <chunkX> <chunkZ> <file>",
	Short: "Compress a file and store it as a chunk's payload",
	Args:  cobra.ExactArgs(3),
	RunE:  runWrite,
}

func init() {
	writeCmd.Flags().StringVar(&writeCodecName, "codec", "zlib", "Codec to compress the payload with (gzip|zlib|identity)")
	writeCmd.Flags().IntVar(&writeLevel, "level", -1, "Compression level (codec-specific; -1 for the codec default)")
	writeCmd.Flags().Uint32Var(&writeTimestamp, "ts", 0, "Write timestamp; must exceed the cell's last accepted write (default: current unix time)")
}

func runWrite(cmd *cobra.Command, args []string) error {
	cx, err := cmdutil.ParseCoord(args[0])
	if err != nil {
		return err
	}
	cz, err := cmdutil.ParseCoord(args[1])
	if err != nil {
		return err
	}

	kind, err := codec.ParseKind(writeCodecName)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[2])
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	// Fresh cells start with timestamp 0 and the engine drops any write
	// whose timestamp doesn't exceed the cell's last accepted one, so a
	// zero default would silently no-op. Stamp unset --ts with the clock.
	ts := writeTimestamp
	if !cmd.Flags().Changed("ts") {
		ts = uint32(time.Now().Unix())
	}

	if err := cmdutil.Registry().WriteChunk(cmdutil.Flags.Dir, cx, cz, ts, data, kind, writeLevel); err != nil {
		return fmt.Errorf("write chunk (%d,%d): %w", cx, cz, err)
	}

	cmd.Printf("wrote chunk (%d,%d): %d bytes, codec=%s, ts=%d\n", cx, cz, len(data), kind, ts)
	return nil
}
