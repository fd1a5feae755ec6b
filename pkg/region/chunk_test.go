package region

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/regionstore/pkg/codec"
)

func TestWriteChunkPreservesCodecKind(t *testing.T) {
	r := openTestRegion(t)

	for i, kind := range []codec.Kind{codec.Gzip, codec.Zlib, codec.Identity} {
		x, z := int32(i), int32(0)
		require.NoError(t, r.WriteChunk(x, z, 1, kind, []byte("payload")))

		got, err := r.ReadChunk(x, z)
		require.NoError(t, err)
		assert.Equal(t, kind, got.Kind)
	}
}

func TestOversizedOverflowFileWrittenToDisk(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(Key{Directory: dir, X: 0, Z: 0})
	require.NoError(t, err)
	defer r.Close()

	body := make([]byte, maxInlineBody+1024)
	require.NoError(t, r.WriteChunk(2, 2, 1, codec.Identity, body))

	path := overflowPath(dir, 2, 2)
	stat, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), stat.Size())
}

func TestOverwritingOversizedPayloadShrinksOverflowFile(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(Key{Directory: dir, X: 0, Z: 0})
	require.NoError(t, err)
	defer r.Close()

	big := make([]byte, maxInlineBody+8192)
	require.NoError(t, r.WriteChunk(1, 1, 1, codec.Identity, big))

	small := make([]byte, maxInlineBody+16)
	require.NoError(t, r.WriteChunk(1, 1, 2, codec.Identity, small))

	path := overflowPath(dir, 1, 1)
	stat, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(small)), stat.Size())

	got, err := r.ReadChunk(1, 1)
	require.NoError(t, err)
	assert.Equal(t, small, got.Body)
}

func TestOverflowPathIsScopedToChunkCoordinates(t *testing.T) {
	dir := "/regions/world"
	assert.Equal(t, filepath.Join(dir, "c.5.-3.mcc"), overflowPath(dir, 5, -3))
}

func TestEmptyCellReadIsNotPresent(t *testing.T) {
	var c chunkCell
	r := openTestRegion(t)

	payload, err := c.read(r, 0, 0)
	require.NoError(t, err)
	assert.False(t, payload.Present)
}
