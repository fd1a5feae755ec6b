package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/marmos91/regionstore/cmd/regionctl/cmdutil"
	"github.com/marmos91/regionstore/pkg/codec"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive shell for inspecting the regions under --dir",
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".regionctl_history")
}

func runREPL(cmd *cobra.Command, args []string) error {
	l := liner.NewLiner()
	defer l.Close()

	l.SetCtrlCAborts(true)
	l.SetCompleter(func(line string) []string {
		candidates := []string{"inspect", "read", "write", "gc-stats", "help", "quit"}
		var out []string
		for _, c := range candidates {
			if strings.HasPrefix(c, line) {
				out = append(out, c)
			}
		}
		return out
	})

	if f, err := os.Open(historyFilePath()); err == nil {
		l.ReadHistory(f)
		f.Close()
	}

	cmd.Printf("regionctl repl — directory %s. Type 'help' for commands.\n", cmdutil.Flags.Dir)

	for {
		line, err := l.Prompt("regionctl> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				cmd.Println("\nbye")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		l.AppendHistory(line)

		if err := dispatchREPLLine(cmd, line); err != nil {
			cmd.PrintErrln(err)
		}
		if line == "quit" || line == "exit" {
			break
		}
	}

	if f, err := os.Create(historyFilePath()); err == nil {
		l.WriteHistory(f)
		f.Close()
	}
	return nil
}

func dispatchREPLLine(cmd *cobra.Command, line string) error {
	fields := strings.Fields(line)
	verb := fields[0]
	rest := fields[1:]

	switch verb {
	case "help":
		cmd.Println("commands: inspect <rx> <rz> | read <cx> <cz> | write <cx> <cz> <codec> <ts> <text...> | gc-stats | quit")
		return nil
	case "quit", "exit":
		return nil
	case "inspect":
		if len(rest) != 2 {
			return fmt.Errorf("usage: inspect <regionX> <regionZ>")
		}
		return runInspect(cmd, rest)
	case "gc-stats":
		return runGCStats(cmd, nil)
	case "read":
		if len(rest) != 2 {
			return fmt.Errorf("usage: read <chunkX> <chunkZ>")
		}
		cx, err := cmdutil.ParseCoord(rest[0])
		if err != nil {
			return err
		}
		cz, err := cmdutil.ParseCoord(rest[1])
		if err != nil {
			return err
		}
		data, err := cmdutil.Registry().ReadChunk(cmdutil.Flags.Dir, cx, cz)
		if err != nil {
			return err
		}
		if data == nil {
			cmd.Println("(empty)")
			return nil
		}
		cmd.Printf("%d bytes: %q\n", len(data), truncate(data, 200))
		return nil
	case "write":
		if len(rest) < 4 {
			return fmt.Errorf("usage: write <chunkX> <chunkZ> <codec> <ts> <text...>")
		}
		cx, err := cmdutil.ParseCoord(rest[0])
		if err != nil {
			return err
		}
		cz, err := cmdutil.ParseCoord(rest[1])
		if err != nil {
			return err
		}
		kind, err := codec.ParseKind(rest[2])
		if err != nil {
			return err
		}
		ts, err := strconv.ParseUint(rest[3], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
		body := strings.Join(rest[4:], " ")
		if err := cmdutil.Registry().WriteChunk(cmdutil.Flags.Dir, cx, cz, uint32(ts), []byte(body), kind, -1); err != nil {
			return err
		}
		cmd.Printf("wrote %d bytes to (%d,%d)\n", len(body), cx, cz)
		return nil
	default:
		return fmt.Errorf("unknown command %q; type 'help'", verb)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
