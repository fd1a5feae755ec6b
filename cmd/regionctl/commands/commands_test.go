package commands

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/regionstore/cmd/regionctl/cmdutil"
	"github.com/marmos91/regionstore/pkg/codec"
)

func writeFileForTest(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func parseKindOrFail(t *testing.T, name string) codec.Kind {
	t.Helper()
	k, err := codec.ParseKind(name)
	require.NoError(t, err)
	return k
}

// resetForTest gives each test case a clean shared Registry and Flags, since
// both are package-level state shared with main.go in production use.
func resetForTest(t *testing.T, dir string) {
	t.Helper()
	cmdutil.Flags = cmdutil.CLIFlags{Dir: dir, Output: "table"}
	t.Cleanup(func() { _ = cmdutil.CloseRegistry() })
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	resetForTest(t, dir)

	var out bytes.Buffer
	writeCmd.SetOut(&out)
	writeCodecName, writeLevel, writeTimestamp = "zlib", -1, 5

	input := dir + "/payload.bin"
	require.NoError(t, writeFileForTest(input, []byte("hello region")))

	require.NoError(t, runWrite(writeCmd, []string{"0", "0", input}))
	assert.Contains(t, out.String(), "wrote chunk (0,0)")

	out.Reset()
	readCmd.SetOut(&out)
	readOutPath = ""
	require.NoError(t, runRead(readCmd, []string{"0", "0"}))
	assert.Equal(t, "hello region", out.String())
}

func TestReadEmptyCellPrintsToStderr(t *testing.T) {
	dir := t.TempDir()
	resetForTest(t, dir)

	var out, errOut bytes.Buffer
	readCmd.SetOut(&out)
	readCmd.SetErr(&errOut)
	readOutPath = ""

	require.NoError(t, runRead(readCmd, []string{"1", "1"}))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "empty")
}

func TestInspectReportsFreeRangesAfterShrinkingWrite(t *testing.T) {
	dir := t.TempDir()
	resetForTest(t, dir)

	big := make([]byte, 5000)
	require.NoError(t, cmdutil.Registry().WriteChunk(dir, 0, 0, 1, big, parseKindOrFail(t, "identity"), -1))
	require.NoError(t, cmdutil.Registry().WriteChunk(dir, 0, 0, 2, []byte("tiny"), parseKindOrFail(t, "identity"), -1))

	var out bytes.Buffer
	inspectCmd.SetOut(&out)
	require.NoError(t, runInspect(inspectCmd, []string{"0", "0"}))
	assert.Contains(t, out.String(), "free sectors:")
}

func TestGCStatsSkipsNonRegionFiles(t *testing.T) {
	dir := t.TempDir()
	resetForTest(t, dir)

	require.NoError(t, cmdutil.Registry().WriteChunk(dir, 0, 0, 1, []byte("x"), parseKindOrFail(t, "identity"), -1))
	require.NoError(t, cmdutil.CloseRegistry())
	resetForTest(t, dir)

	require.NoError(t, writeFileForTest(dir+"/notaregion.txt", []byte("noise")))

	var out bytes.Buffer
	gcStatsCmd.SetOut(&out)
	require.NoError(t, runGCStats(gcStatsCmd, nil))
	assert.Contains(t, out.String(), "0,0")
}
