//go:build !windows

package mmapfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesMinimumSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "r.0.0.mca")

	f, err := Open(path, 8192, AccessRandom)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, int64(8192), f.MappedLen())
	assert.Equal(t, int64(8192), f.Len())
}

func TestSecondOpenFailsLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")

	f, err := Open(path, 8192, AccessRandom)
	require.NoError(t, err)
	defer f.Close()

	_, err = Open(path, 8192, AccessRandom)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestReadWriteWithinWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")
	f, err := Open(path, 8192, AccessRandom)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.WriteAt([]byte("hello"), 100)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	got, err := f.Read(Range{Start: 100, End: 105})
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestReadPastWindowUsesPositionedRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")
	f, err := Open(path, 8192, AccessRandom)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.Grow(16384))

	n, err := f.WriteAt([]byte("past the map"), 9000)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	got, err := f.Read(Range{Start: 9000, End: 9012})
	require.NoError(t, err)
	assert.Equal(t, []byte("past the map"), got)
}

func TestStraddlingReadSpansWindowBoundary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")
	f, err := Open(path, 8192, AccessRandom)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.Grow(16384))

	payload := []byte("0123456789")
	n, err := f.WriteAt(payload, 8188) // straddles 8192
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	got, err := f.Read(Range{Start: 8188, End: 8198})
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")
	f, err := Open(path, 8192, AccessRandom)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Read(Range{Start: 8192, End: 1 << 20})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")
	f, err := Open(path, 8192, AccessRandom)
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
}

func TestGrowIsMonotonic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.0.0.mca")
	f, err := Open(path, 8192, AccessRandom)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.Grow(4096)) // smaller than current length: no-op
	assert.Equal(t, int64(8192), f.Len())

	require.NoError(t, f.Grow(20000))
	assert.Equal(t, int64(20000), f.Len())
}
