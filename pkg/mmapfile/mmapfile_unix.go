//go:build !windows

// mmapfile_unix.go implements File as a hybrid between mmap and positioned
// I/O: reads and in-window writes go straight through a memory map of the
// file's length at open time, and anything past that window falls back to
// pread/pwrite. The map is never grown — see the package doc for why.
package mmapfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// File is an open, exclusively-locked file backed by a writable memory map
// of its length at open time.
//
// Reads entirely within the mapped window are zero-copy borrows into that
// map; reads straddling or past it copy from a positioned read. Writes
// within the window go directly into the map; writes straddling or past it
// fall through to a positioned write. The map is fixed for the life of the
// File — growing the file past the mapped window never remaps it, so
// borrows returned by Read stay valid until Close.
type File struct {
	path      string
	file      *os.File
	data      []byte // mmap window, length == mappedLen, immutable for File's life
	mappedLen int64

	fileLen atomic.Int64
	growMu  sync.Mutex
	closed  atomic.Bool
}

// Open opens path for read/write, creating it and any parent directories if
// absent, takes an advisory exclusive lock, ensures the on-disk length is
// at least minimumSize, and maps the file for its resulting length.
//
// hint is applied once via fadvise and does not change the read/write
// contract, only OS readahead behavior.
func Open(path string, minimumSize int64, hint AccessHint) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mmapfile: mkdir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("mmapfile: open: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("mmapfile: flock: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		unlockAndClose(f)
		return nil, fmt.Errorf("mmapfile: stat: %w", err)
	}

	size := info.Size()
	if size < minimumSize {
		if err := f.Truncate(minimumSize); err != nil {
			unlockAndClose(f)
			return nil, fmt.Errorf("mmapfile: truncate: %w", err)
		}
		size = minimumSize
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unlockAndClose(f)
		return nil, fmt.Errorf("mmapfile: mmap: %w", err)
	}

	fd := int(f.Fd())
	_ = unix.Fadvise(fd, 0, 0, unix.FADV_WILLNEED)
	switch hint {
	case AccessSequential:
		_ = unix.Fadvise(fd, 0, 0, unix.FADV_SEQUENTIAL)
	default:
		_ = unix.Fadvise(fd, 0, 0, unix.FADV_RANDOM)
	}

	mf := &File{
		path:      path,
		file:      f,
		data:      data,
		mappedLen: size,
	}
	mf.fileLen.Store(size)
	return mf, nil
}

func unlockAndClose(f *os.File) {
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	_ = f.Close()
}

// Path returns the path the File was opened with.
func (f *File) Path() string {
	return f.path
}

// MappedLen returns the fixed length of the memory-mapped window.
func (f *File) MappedLen() int64 {
	return f.mappedLen
}

// Len returns the file's current on-disk length, including growth past the
// mapped window.
func (f *File) Len() int64 {
	return f.fileLen.Load()
}

// Read returns the bytes in rng. Bytes entirely within the mapped window
// are returned as a zero-copy borrow; the caller must not mutate them and
// must not retain them past Close. Bytes straddling or past the window are
// copied into a freshly allocated buffer via a positioned read.
func (f *File) Read(rng Range) ([]byte, error) {
	if f.closed.Load() {
		return nil, ErrClosed
	}

	if rng.End <= f.mappedLen {
		return f.data[rng.Start:rng.End], nil
	}

	buf := make([]byte, rng.Len())
	if rng.Start < f.mappedLen {
		inWindow := f.mappedLen - rng.Start
		copy(buf[:inWindow], f.data[rng.Start:f.mappedLen])
		n, err := f.file.ReadAt(buf[inWindow:], f.mappedLen)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("mmapfile: pread: %w", err)
		}
		if int64(n) < rng.Len()-inWindow {
			return nil, ErrOutOfRange
		}
		return buf, nil
	}

	n, err := f.file.ReadAt(buf, rng.Start)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("mmapfile: pread: %w", err)
	}
	if int64(n) < rng.Len() {
		return nil, ErrOutOfRange
	}
	return buf, nil
}

// WriteAt writes p at off. Bytes entirely within the mapped window are
// copied directly into the map (picked up by the next Msync or Close);
// bytes straddling or past the window fall through to a positioned write.
// Growing the file to fit a write past the current length is the caller's
// responsibility via Grow.
func (f *File) WriteAt(p []byte, off int64) (int, error) {
	if f.closed.Load() {
		return 0, ErrClosed
	}

	end := off + int64(len(p))
	if end <= f.mappedLen {
		copy(f.data[off:end], p)
		return len(p), nil
	}

	if off < f.mappedLen {
		inWindow := f.mappedLen - off
		copy(f.data[off:f.mappedLen], p[:inWindow])
		n, err := f.file.WriteAt(p[inWindow:], f.mappedLen)
		if err != nil {
			return int(inWindow) + n, fmt.Errorf("mmapfile: pwrite: %w", err)
		}
		return int(inWindow) + n, nil
	}

	n, err := f.file.WriteAt(p, off)
	if err != nil {
		return n, fmt.Errorf("mmapfile: pwrite: %w", err)
	}
	return n, nil
}

// Grow ensures the file's on-disk length is at least newSize. It never
// remaps: the mapped window stays at its open-time length, and bytes past
// it remain reachable only through Read/WriteAt's positioned-I/O fallback.
func (f *File) Grow(newSize int64) error {
	f.growMu.Lock()
	defer f.growMu.Unlock()

	if newSize <= f.fileLen.Load() {
		return nil
	}
	if err := f.file.Truncate(newSize); err != nil {
		return fmt.Errorf("mmapfile: truncate: %w", err)
	}
	f.fileLen.Store(newSize)
	return nil
}

// Close flushes the mmap, releases the advisory lock, and closes the file.
// It is idempotent: a second call returns nil without repeating the
// underlying syscalls. Each failure is reported; Close still attempts the
// remaining steps after one fails.
func (f *File) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if err := unix.Msync(f.data, unix.MS_SYNC); err != nil {
		errs = append(errs, fmt.Errorf("mmapfile: msync: %w", err))
	}
	if err := unix.Munmap(f.data); err != nil {
		errs = append(errs, fmt.Errorf("mmapfile: munmap: %w", err))
	}
	if err := unix.Flock(int(f.file.Fd()), unix.LOCK_UN); err != nil {
		errs = append(errs, fmt.Errorf("mmapfile: unlock: %w", err))
	}
	if err := f.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("mmapfile: close: %w", err))
	}
	return errors.Join(errs...)
}
