// Package region implements the sector allocator and chunk read/write
// protocol over a single memory-mapped region file: a 32x32 grid of
// variable-sized, sector-aligned, compressed chunk payloads with a fixed
// header table at the start of the file.
package region

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/marmos91/regionstore/internal/logger"
	"github.com/marmos91/regionstore/pkg/codec"
	"github.com/marmos91/regionstore/pkg/mmapfile"
)

const (
	// SectorSize is the fixed on-disk allocation unit.
	SectorSize = 4096

	// GridSize is the width/height of a region's chunk grid.
	GridSize = 32

	// CellCount is the number of chunk cells in a region (GridSize^2).
	CellCount = GridSize * GridSize

	// headerTableSector holds the CellCount 4-byte chunk-location entries.
	headerTableSector = 0
	// timestampTableSector holds the CellCount 4-byte timestamp entries.
	timestampTableSector = 1
	// firstPayloadSector is the first sector payloads may occupy; the two
	// sectors below it hold the header and timestamp tables and are never
	// allocated.
	firstPayloadSector = 2

	// tableBytes is the size of the header or timestamp table.
	tableBytes = CellCount * 4

	// minRegionFileSize is the region file's minimum size: the header and
	// timestamp tables back to back.
	minRegionFileSize = 2 * tableBytes

	// maxSectorCount is the largest sector count a single-byte field can
	// hold; a payload needing more sectors is externalised to overflow.
	maxSectorCount = 255

	// payloadHeaderSize is the 4-byte length prefix plus 1-byte marker
	// that precedes every in-region payload body.
	payloadHeaderSize = 5

	// maxInlineBody is the largest compressed body that still fits in
	// maxSectorCount sectors alongside its header.
	maxInlineBody = maxSectorCount*SectorSize - payloadHeaderSize
)

// Key identifies a region by the directory it lives in and its grid
// coordinates. Two regions are equal iff all three fields match.
type Key struct {
	Directory string
	X         int32
	Z         int32
}

// Path returns the on-disk path of the region file this key names.
func (k Key) Path() string {
	return filepath.Join(k.Directory, fmt.Sprintf("r.%d.%d.mca", k.X, k.Z))
}

func (k Key) String() string {
	return fmt.Sprintf("%s/r.%d.%d.mca", k.Directory, k.X, k.Z)
}

// Payload is a chunk's stored payload as handed back by Region.ReadChunk:
// the codec that compressed Body, and Body itself, still compressed. The
// caller (the registry, in the public API's data flow) decompresses it.
type Payload struct {
	Present bool
	Kind    codec.Kind
	Body    []byte
}

// Region owns one region file's MappedFile, its 32x32 grid of chunk cells,
// and the free-range allocator over the file's sector space. All exported
// methods are safe for concurrent use.
type Region struct {
	key  Key
	file *mmapfile.File

	cells [CellCount]chunkCell

	free      *freeRangeSet
	wantedEnd atomic.Uint32

	// modifyMu serialises free-range mutations and wantedEnd growth. It is
	// held only while computing a new allocation and released before any
	// payload bytes are written, so writes to different cells only contend
	// here, never on the I/O itself.
	modifyMu sync.Mutex

	closed atomic.Bool
}

// Open opens (creating if absent) the region file named by key, scans its
// header table to populate the chunk-cell grid and free-range set, and
// returns a ready Region.
func Open(key Key) (*Region, error) {
	file, err := mmapfile.Open(key.Path(), minRegionFileSize, mmapfile.AccessRandom)
	if err != nil {
		return nil, fmt.Errorf("region: open %s: %w", key, err)
	}

	r := &Region{key: key, file: file, free: newFreeRangeSet()}

	headerTable, err := file.Read(mmapfile.Range{Start: 0, End: tableBytes})
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("region: read header table: %w", err)
	}
	timestampTable, err := file.Read(mmapfile.Range{Start: tableBytes, End: 2 * tableBytes})
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("region: read timestamp table: %w", err)
	}

	taken := make([]SectorRange, 0, CellCount)
	for idx := 0; idx < CellCount; idx++ {
		start, count := decodeEntry(headerTable[idx*4 : idx*4+4])
		ts := binary.BigEndian.Uint32(timestampTable[idx*4 : idx*4+4])

		r.cells[idx].startSector = start
		r.cells[idx].sectorCount = count
		r.cells[idx].lastSeenTimestamp.Store(ts)

		if count > 0 {
			taken = append(taken, SectorRange{Start: start, End: start + uint32(count)})
		}
	}

	wantedEnd := r.initFreeRanges(taken, uint32(file.Len()/SectorSize))
	r.wantedEnd.Store(wantedEnd)

	logger.Debug("region opened",
		logger.Directory(key.Directory),
		logger.Region(key.X, key.Z),
		logger.WantedEnd(wantedEnd),
		logger.FreeRangeCount(r.free.Count()),
	)

	return r, nil
}

// initFreeRanges sorts the taken ranges, emits the gaps between them (and
// between sector 2 and the first taken range) as free ranges, and returns
// the resulting wantedEnd — extended to the file's current sector count if
// the file has already grown past the last taken range.
func (r *Region) initFreeRanges(taken []SectorRange, fileSectors uint32) uint32 {
	sort.Slice(taken, func(i, j int) bool { return taken[i].Start < taken[j].Start })

	cursor := uint32(firstPayloadSector)
	for _, t := range taken {
		if t.Start > cursor {
			r.free.push(cursor, t.Start)
		}
		if t.End > cursor {
			cursor = t.End
		}
	}

	wantedEnd := cursor
	if wantedEnd < firstPayloadSector {
		wantedEnd = firstPayloadSector
	}
	if fileSectors > wantedEnd {
		r.free.push(wantedEnd, fileSectors)
		wantedEnd = fileSectors
	}
	return wantedEnd
}

// Key returns the region's identifying key.
func (r *Region) Key() Key { return r.key }

// WantedEnd returns the sector index one past the highest sector any live
// or pending write plans to use.
func (r *Region) WantedEnd() uint32 { return r.wantedEnd.Load() }

// FreeRanges returns a snapshot of the region's currently free sector
// ranges, ascending by start. Intended for introspection (regionctl
// inspect, metrics collection); never blocks a concurrent allocation for
// longer than the snapshot copy.
func (r *Region) FreeRanges() []SectorRange { return r.free.List() }

// localIndex maps absolute chunk coordinates to the region's local grid
// index and (x, z) pair: x,z = chunkX mod 32, chunkZ mod 32, with the
// remainder folded positive so negative coordinates land in [0,31].
func localIndex(chunkX, chunkZ int32) (x, z, idx int32) {
	x = floorMod(chunkX, GridSize)
	z = floorMod(chunkZ, GridSize)
	return x, z, x + z*GridSize
}

func floorMod(v, m int32) int32 {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}

// ReadChunk reads the cell at (chunkX, chunkZ) and returns its stored
// payload still compressed. Payload.Present is false for an empty cell —
// never an error.
func (r *Region) ReadChunk(chunkX, chunkZ int32) (Payload, error) {
	if r.closed.Load() {
		return Payload{}, ErrNotOpen
	}

	_, _, idx := localIndex(chunkX, chunkZ)
	cell := &r.cells[idx]

	cell.mu.RLock()
	defer cell.mu.RUnlock()

	return cell.read(r, chunkX, chunkZ)
}

// WriteChunk writes body (already compressed under kind) as the cell at
// (chunkX, chunkZ)'s payload, provided timestamp is strictly greater than
// the cell's last accepted write; otherwise it is a no-op.
func (r *Region) WriteChunk(chunkX, chunkZ int32, timestamp uint32, kind codec.Kind, body []byte) error {
	if r.closed.Load() {
		return ErrNotOpen
	}

	_, _, idx := localIndex(chunkX, chunkZ)
	cell := &r.cells[idx]

	// Fast path: reject a stale write before taking the cell lock.
	if cell.lastSeenTimestamp.Load() >= timestamp {
		return nil
	}

	cell.mu.Lock()
	defer cell.mu.Unlock()

	if cell.lastSeenTimestamp.Load() >= timestamp {
		return nil
	}

	return cell.write(r, chunkX, chunkZ, timestamp, kind, body)
}

// Close takes every cell's write lock in index order, flushes and closes
// any open overflow file, then closes the region's MappedFile. Idempotent.
func (r *Region) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	for i := range r.cells {
		cell := &r.cells[i]
		cell.mu.Lock()
		cell.overflowMu.Lock()
		if cell.overflow != nil {
			if err := cell.overflow.Close(); err != nil {
				errs = append(errs, err)
			}
			cell.overflow = nil
		}
		cell.overflowMu.Unlock()
		cell.mu.Unlock()
	}

	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		logger.Debug("region closed", logger.Region(r.key.X, r.key.Z))
		return nil
	}
	combined := errs[0]
	for _, e := range errs[1:] {
		combined = fmt.Errorf("%w; %v", combined, e)
	}
	return fmt.Errorf("%w: %v", ErrIO, combined)
}

// allocate resolves where a cell's next payload goes: reuse
// currentStart/currentEnd unchanged when the size matches, carve the front
// and free the tail when shrinking, or find a free range (first-fit,
// preferring adjacency to the current range) or grow the file when growing.
func (r *Region) allocate(currentStart, currentEnd, wanted uint32) (newStart, newEnd uint32, err error) {
	r.modifyMu.Lock()
	defer r.modifyMu.Unlock()

	currentLen := currentEnd - currentStart
	switch {
	case wanted == currentLen:
		return currentStart, currentEnd, nil

	case wanted < currentLen:
		newStart = currentStart
		newEnd = currentStart + wanted
		r.free.push(newEnd, currentEnd)
		return newStart, newEnd, nil

	default:
		if start, ok := r.free.takeFirstFitPreferAdjacent(wanted, currentStart, currentEnd); ok {
			newStart, newEnd = start, start+wanted
		} else {
			newStart = r.wantedEnd.Load()
			newEnd = newStart + wanted
			if err := r.file.Grow(int64(newEnd) * SectorSize); err != nil {
				return 0, 0, fmt.Errorf("%w: grow region file: %v", ErrIO, err)
			}
			r.wantedEnd.Store(newEnd)
		}
		if currentLen > 0 {
			r.free.push(currentStart, currentEnd)
		}
		return newStart, newEnd, nil
	}
}

// overflowPath builds the path of the overflow file for the absolute chunk
// coordinates (chunkX, chunkZ): "c.<chunkX>.<chunkZ>.mcc" in the region's
// directory.
func overflowPath(dir string, chunkX, chunkZ int32) string {
	return filepath.Join(dir, fmt.Sprintf("c.%d.%d.mcc", chunkX, chunkZ))
}

// decodeEntry parses a 4-byte header-table entry: a 24-bit
// big-endian start sector and an 8-bit count.
func decodeEntry(b []byte) (start uint32, count uint8) {
	start = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	count = b[3]
	return start, count
}

// encodeEntry is decodeEntry's inverse.
func encodeEntry(start uint32, count uint8) [4]byte {
	return [4]byte{byte(start >> 16), byte(start >> 8), byte(start), count}
}

