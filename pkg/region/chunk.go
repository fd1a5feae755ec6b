package region

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/marmos91/regionstore/internal/logger"
	"github.com/marmos91/regionstore/pkg/bufpool"
	"github.com/marmos91/regionstore/pkg/codec"
	"github.com/marmos91/regionstore/pkg/mmapfile"
)

// chunkCell is one (x, z) cell of a region's 32x32 grid: the parsed
// header-table entry, a lazily-opened overflow MappedFile, and the
// timestamp gate that makes writes to the cell monotonic.
//
// mu linearises reads and writes to the cell: ReadChunk takes a read
// lock, WriteChunk a write lock, for the whole operation. overflowMu
// is a second, independent lock guarding the lazy overflow handle, so two
// concurrent readers of an oversized cell don't race to open it.
type chunkCell struct {
	mu sync.RWMutex

	startSector uint32
	sectorCount uint8

	lastSeenTimestamp atomic.Uint32

	overflowMu sync.RWMutex
	overflow   *mmapfile.File
}

// read returns the cell's stored payload, still compressed. The caller
// holds cell.mu for reading.
func (c *chunkCell) read(r *Region, chunkX, chunkZ int32) (Payload, error) {
	if c.sectorCount == 0 {
		return Payload{}, nil
	}

	start := int64(c.startSector) * SectorSize
	header, err := r.file.Read(mmapfile.Range{Start: start, End: start + payloadHeaderSize})
	if err != nil {
		return Payload{}, fmt.Errorf("%w: read payload header: %v", ErrIO, err)
	}

	length := binary.BigEndian.Uint32(header[:4])
	marker := header[4]

	// length counts the marker byte, so a stored payload is never below 1;
	// zero means the header bytes don't describe a payload at all.
	if length == 0 {
		return Payload{}, fmt.Errorf("%w: zero payload length at sector %d", codec.ErrBadCodec, c.startSector)
	}

	kind, err := codec.KindFromMarker(marker)
	if err != nil {
		return Payload{}, err
	}
	oversized := codec.Oversized(marker)

	var body []byte
	if oversized {
		overflow, err := c.openOverflow(overflowPath(r.key.Directory, chunkX, chunkZ), 0)
		if err != nil {
			return Payload{}, err
		}
		raw, err := overflow.Read(mmapfile.Range{Start: 0, End: overflow.Len()})
		if err != nil {
			return Payload{}, fmt.Errorf("%w: read overflow: %v", ErrIO, err)
		}
		body = append([]byte(nil), raw...)
	} else {
		bodyEnd := start + payloadHeaderSize - 1 + int64(length)
		raw, err := r.file.Read(mmapfile.Range{Start: start + payloadHeaderSize, End: bodyEnd})
		if err != nil {
			return Payload{}, fmt.Errorf("%w: read payload body: %v", ErrIO, err)
		}
		// Copy out of the mmap borrow before releasing the cell's read
		// lock: once Region.ReadChunk returns, a subsequent write to this
		// same cell may reuse (and overwrite) these very sectors.
		body = append([]byte(nil), raw...)
	}

	return Payload{Present: true, Kind: kind, Body: body}, nil
}

// openOverflow returns the cell's open overflow MappedFile, opening it on
// first use with a double-checked read-then-write lock upgrade. minSize is
// the minimum size to ensure on open; pass 0 when only reading an existing
// file.
func (c *chunkCell) openOverflow(path string, minSize int64) (*mmapfile.File, error) {
	c.overflowMu.RLock()
	if c.overflow != nil {
		f := c.overflow
		c.overflowMu.RUnlock()
		return f, nil
	}
	c.overflowMu.RUnlock()

	c.overflowMu.Lock()
	defer c.overflowMu.Unlock()

	if c.overflow != nil {
		return c.overflow, nil
	}

	f, err := mmapfile.Open(path, minSize, mmapfile.AccessSequential)
	if err != nil {
		return nil, fmt.Errorf("%w: open overflow %s: %v", ErrIO, path, err)
	}
	c.overflow = f
	return f, nil
}

// resizeOverflow replaces the cell's overflow handle with one truncated to
// exactly size bytes, closing and reopening it if it was already larger —
// mmapfile.File only ever grows in place, so shrinking goes through the
// underlying file instead.
func (c *chunkCell) resizeOverflow(path string, size int64) (*mmapfile.File, error) {
	c.overflowMu.Lock()
	defer c.overflowMu.Unlock()

	if c.overflow != nil {
		if err := c.overflow.Close(); err != nil {
			return nil, fmt.Errorf("%w: close overflow %s: %v", ErrIO, path, err)
		}
		c.overflow = nil
	}

	if err := os.Truncate(path, size); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: truncate overflow %s: %v", ErrIO, path, err)
	}

	f, err := mmapfile.Open(path, size, mmapfile.AccessSequential)
	if err != nil {
		return nil, fmt.Errorf("%w: open overflow %s: %v", ErrIO, path, err)
	}
	c.overflow = f
	return f, nil
}

// write places a new payload for the cell: allocate sectors, write the
// sector image (and the overflow file for an oversized body), then publish
// the new header entry. The caller holds cell.mu for writing and has
// already passed the monotonicity gate.
func (c *chunkCell) write(r *Region, chunkX, chunkZ int32, timestamp uint32, kind codec.Kind, body []byte) error {
	oversized := false
	wantedSectors := (payloadHeaderSize + len(body) + SectorSize - 1) / SectorSize
	if wantedSectors > maxSectorCount {
		wantedSectors = 1
		oversized = true
	}

	currentStart, currentEnd := c.startSector, c.startSector+uint32(c.sectorCount)
	newStart, _, err := r.allocate(currentStart, currentEnd, uint32(wantedSectors))
	if err != nil {
		return err
	}

	// bufpool buffers aren't zeroed on Get, so the alignment padding past
	// the header+body is cleared explicitly before the buffer is reused.
	buf := bufpool.Get(wantedSectors * SectorSize)
	defer bufpool.Put(buf)

	marker := codec.Marker(kind, oversized)
	bodyLen := len(body)
	if oversized {
		bodyLen = 0
	}
	binary.BigEndian.PutUint32(buf[:4], uint32(1+bodyLen))
	buf[4] = marker
	if !oversized {
		copy(buf[payloadHeaderSize:], body)
	}
	clear(buf[payloadHeaderSize+bodyLen:])

	if _, err := r.file.WriteAt(buf, int64(newStart)*SectorSize); err != nil {
		return fmt.Errorf("%w: write payload: %v", ErrIO, err)
	}

	if oversized {
		path := overflowPath(r.key.Directory, chunkX, chunkZ)
		if _, err := c.resizeOverflow(path, int64(len(body))); err != nil {
			return err
		}
		if _, err := c.overflow.WriteAt(body, 0); err != nil {
			return fmt.Errorf("%w: write overflow: %v", ErrIO, err)
		}
	}

	_, _, idx := localIndex(chunkX, chunkZ)

	var tsBuf [4]byte
	binary.BigEndian.PutUint32(tsBuf[:], timestamp)
	if _, err := r.file.WriteAt(tsBuf[:], timestampTableSector*SectorSize+int64(idx)*4); err != nil {
		return fmt.Errorf("%w: write timestamp entry: %v", ErrIO, err)
	}

	// The header-table store is the linearisation point: it must land
	// after the payload and timestamp bytes it describes, as a single
	// ordered 4-byte write.
	entry := encodeEntry(newStart, uint8(wantedSectors))
	if _, err := r.file.WriteAt(entry[:], headerTableSector*SectorSize+int64(idx)*4); err != nil {
		return fmt.Errorf("%w: write header entry: %v", ErrIO, err)
	}

	c.startSector = newStart
	c.sectorCount = uint8(wantedSectors)
	c.lastSeenTimestamp.Store(timestamp)

	logger.Debug("chunk written",
		logger.Chunk(chunkX, chunkZ),
		logger.Sector(newStart),
		logger.SectorCount(uint32(wantedSectors)),
		logger.Oversized(oversized),
		logger.Timestamp(timestamp),
	)

	return nil
}
