package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/regionstore/cmd/regionctl/cmdutil"
)

var readOutPath string

var readCmd = &cobra.Command{
	Use:   "read <chunkX> <chunkZ>",
	Short: "Read a chunk's decompressed payload",
	Args:  cobra.ExactArgs(2),
	RunE:  runRead,
}

func init() {
	readCmd.Flags().StringVarP(&readOutPath, "out", "O", "", "Write the payload to this file instead of stdout")
}

func runRead(cmd *cobra.Command, args []string) error {
	cx, err := cmdutil.ParseCoord(args[0])
	if err != nil {
		return err
	}
	cz, err := cmdutil.ParseCoord(args[1])
	if err != nil {
		return err
	}

	data, err := cmdutil.Registry().ReadChunk(cmdutil.Flags.Dir, cx, cz)
	if err != nil {
		return fmt.Errorf("read chunk (%d,%d): %w", cx, cz, err)
	}
	if data == nil {
		cmd.PrintErrf("chunk (%d,%d) is empty\n", cx, cz)
		return nil
	}

	if readOutPath != "" {
		return os.WriteFile(readOutPath, data, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
