package mmapfile

import "errors"

var (
	// ErrLocked is returned when the file's advisory exclusive lock is
	// already held by another process.
	ErrLocked = errors.New("mmapfile: file locked by another process")

	// ErrOutOfRange is returned when a positioned read returns fewer
	// bytes than requested because it ran past the end of the file.
	ErrOutOfRange = errors.New("mmapfile: read past end of file")

	// ErrClosed is returned by Read and WriteAt on a File after Close.
	ErrClosed = errors.New("mmapfile: file is closed")

	// ErrUnsupportedPlatform is returned by Open on platforms without
	// an mmap implementation (see mmapfile_windows.go).
	ErrUnsupportedPlatform = errors.New("mmapfile: unsupported platform")
)
