package region

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/regionstore/pkg/codec"
)

func openTestRegion(t *testing.T) *Region {
	t.Helper()
	r, err := Open(Key{Directory: t.TempDir(), X: 0, Z: 0})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestOpenFreshRegionHasNoFreeRangesOrPayloads(t *testing.T) {
	r := openTestRegion(t)

	assert.Equal(t, uint32(firstPayloadSector), r.WantedEnd())
	assert.Empty(t, r.FreeRanges())

	payload, err := r.ReadChunk(0, 0)
	require.NoError(t, err)
	assert.False(t, payload.Present)
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	r := openTestRegion(t)

	body, err := codec.Compress(codec.Zlib, []byte("a chunk's worth of nbt bytes"), 6)
	require.NoError(t, err)

	require.NoError(t, r.WriteChunk(3, -2, 100, codec.Zlib, body))

	got, err := r.ReadChunk(3, -2)
	require.NoError(t, err)
	assert.True(t, got.Present)
	assert.Equal(t, codec.Zlib, got.Kind)
	assert.Equal(t, body, got.Body)
}

func TestReadUnwrittenCellInDifferentCellIsEmpty(t *testing.T) {
	r := openTestRegion(t)

	require.NoError(t, r.WriteChunk(0, 0, 1, codec.Identity, []byte("x")))

	payload, err := r.ReadChunk(1, 0)
	require.NoError(t, err)
	assert.False(t, payload.Present)
}

func TestOverwriteWithSmallerBodyFreesTail(t *testing.T) {
	r := openTestRegion(t)

	big := make([]byte, 5000)
	require.NoError(t, r.WriteChunk(0, 0, 1, codec.Identity, big))
	start := r.cells[0].startSector
	count := r.cells[0].sectorCount
	require.Greater(t, count, uint8(1))

	small := []byte("tiny")
	require.NoError(t, r.WriteChunk(0, 0, 2, codec.Identity, small))

	assert.Equal(t, start, r.cells[0].startSector, "shrink reuses the same starting sector")
	assert.Less(t, r.cells[0].sectorCount, count)

	freed := r.FreeRanges()
	require.NotEmpty(t, freed)

	got, err := r.ReadChunk(0, 0)
	require.NoError(t, err)
	assert.Equal(t, small, got.Body)
}

func TestOverwriteWithLargerBodyReusesFreedHole(t *testing.T) {
	r := openTestRegion(t)

	// Cell 0 takes 2 sectors, then shrinks to 1, freeing a 1-sector hole
	// immediately after sector 2.
	require.NoError(t, r.WriteChunk(0, 0, 1, codec.Identity, make([]byte, 5000)))
	require.NoError(t, r.WriteChunk(0, 0, 2, codec.Identity, []byte("x")))
	freeBefore := r.FreeRanges()
	require.Len(t, freeBefore, 1)

	// Cell 1 grows to need exactly the freed hole's size.
	body := make([]byte, freeBefore[0].Len()*SectorSize-payloadHeaderSize)
	require.NoError(t, r.WriteChunk(1, 0, 1, codec.Identity, body))

	assert.Equal(t, freeBefore[0].Start, r.cells[localIdx(1, 0)].startSector)
	assert.Empty(t, r.FreeRanges())
}

func localIdx(x, z int32) int32 {
	_, _, idx := localIndex(x, z)
	return idx
}

func TestStaleTimestampIsRejected(t *testing.T) {
	r := openTestRegion(t)

	require.NoError(t, r.WriteChunk(0, 0, 100, codec.Identity, []byte("first")))
	require.NoError(t, r.WriteChunk(0, 0, 50, codec.Identity, []byte("stale, should not apply")))

	got, err := r.ReadChunk(0, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got.Body)

	require.NoError(t, r.WriteChunk(0, 0, 100, codec.Identity, []byte("same timestamp, still stale")))
	got, err = r.ReadChunk(0, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got.Body)
}

func TestOversizedPayloadGoesToOverflowFile(t *testing.T) {
	r := openTestRegion(t)

	body := make([]byte, maxInlineBody+4096)
	for i := range body {
		body[i] = byte(i)
	}

	require.NoError(t, r.WriteChunk(5, 5, 1, codec.Identity, body))
	assert.Equal(t, uint8(1), r.cells[localIdx(5, 5)].sectorCount)

	got, err := r.ReadChunk(5, 5)
	require.NoError(t, err)
	assert.True(t, got.Present)
	assert.Equal(t, body, got.Body)
}

func TestLocalIndexWrapsNegativeCoordinates(t *testing.T) {
	x, z, idx := localIndex(-1, -1)
	assert.Equal(t, int32(GridSize-1), x)
	assert.Equal(t, int32(GridSize-1), z)
	assert.Equal(t, x+z*GridSize, idx)
}

func TestCloseIsIdempotent(t *testing.T) {
	r := openTestRegion(t)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}

func TestReadWriteAfterCloseReturnsErrNotOpen(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(Key{Directory: dir, X: 0, Z: 0})
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = r.ReadChunk(0, 0)
	assert.ErrorIs(t, err, ErrNotOpen)

	err = r.WriteChunk(0, 0, 1, codec.Identity, []byte("x"))
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestConcurrentWritesAcrossCellsDoNotCorrupt(t *testing.T) {
	r := openTestRegion(t)

	const writers = 32
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			x, z := int32(i%GridSize), int32(i/GridSize)
			body := []byte{byte(i), byte(i >> 8)}
			assert.NoError(t, r.WriteChunk(x, z, uint32(i+1), codec.Identity, body))
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		x, z := int32(i%GridSize), int32(i/GridSize)
		got, err := r.ReadChunk(x, z)
		require.NoError(t, err)
		require.True(t, got.Present)
		assert.Equal(t, []byte{byte(i), byte(i >> 8)}, got.Body)
	}
}

func TestReopenRescansHeaderAndTimestampTables(t *testing.T) {
	dir := t.TempDir()
	key := Key{Directory: dir, X: 1, Z: 1}

	r, err := Open(key)
	require.NoError(t, err)
	require.NoError(t, r.WriteChunk(4, 4, 42, codec.Gzip, []byte{1, 2, 3}))
	require.NoError(t, r.Close())

	r2, err := Open(key)
	require.NoError(t, err)
	defer r2.Close()

	payload, err := r2.ReadChunk(4, 4)
	require.NoError(t, err)
	assert.True(t, payload.Present)
	assert.Equal(t, codec.Gzip, payload.Kind)
	assert.Equal(t, []byte{1, 2, 3}, payload.Body)

	// A write with a timestamp the reopened region already saw is stale.
	require.NoError(t, r2.WriteChunk(4, 4, 10, codec.Identity, []byte("stale")))
	payload, err = r2.ReadChunk(4, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, payload.Body)
}

// checkSectorAccounting asserts that the live header ranges and the free
// set are pairwise disjoint, non-adjacent within the free set, and together
// cover [2, wantedEnd) exactly.
func checkSectorAccounting(t *testing.T, r *Region) {
	t.Helper()

	var claimed []SectorRange
	for i := range r.cells {
		if r.cells[i].sectorCount > 0 {
			start := r.cells[i].startSector
			claimed = append(claimed, SectorRange{Start: start, End: start + uint32(r.cells[i].sectorCount)})
		}
	}

	free := r.FreeRanges()
	for i := 1; i < len(free); i++ {
		assert.Greater(t, free[i].Start, free[i-1].End, "free ranges must be non-adjacent")
	}
	for _, f := range free {
		assert.Greater(t, f.End, f.Start, "free ranges must have positive length")
	}

	all := append(append([]SectorRange(nil), claimed...), free...)
	sort.Slice(all, func(i, j int) bool { return all[i].Start < all[j].Start })

	cursor := uint32(firstPayloadSector)
	for _, rng := range all {
		require.Equal(t, cursor, rng.Start, "gap or overlap at sector %d", cursor)
		cursor = rng.End
	}
	assert.Equal(t, r.WantedEnd(), cursor, "ranges must cover up to wantedEnd")
}

func TestSectorAccountingSurvivesMixedGrowAndShrinkWrites(t *testing.T) {
	r := openTestRegion(t)

	// Several rounds of writes per cell with sizes that force every
	// allocator path: in-place reuse, shrink-and-free-tail, grow into a
	// freed hole, and grow past wantedEnd.
	sizes := []int{100, 9000, 100, 20000, 4091, 100}
	for round, size := range sizes {
		for cell := 0; cell < 8; cell++ {
			body := make([]byte, size+cell)
			err := r.WriteChunk(int32(cell), 0, uint32(round+1), codec.Identity, body)
			require.NoError(t, err)
		}
		checkSectorAccounting(t, r)
	}

	for cell := 0; cell < 8; cell++ {
		got, err := r.ReadChunk(int32(cell), 0)
		require.NoError(t, err)
		assert.Len(t, got.Body, sizes[len(sizes)-1]+cell)
	}
}
