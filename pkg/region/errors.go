package region

import "errors"

// ErrNotOpen and ErrIO round out the error taxonomy. The rest of it
// (Locked, OutOfRange from pkg/mmapfile; BadCodec, BadLevel from
// pkg/codec) is owned by the leaf packages that detect it; region does not
// re-declare sentinels for them. Open wraps mmapfile's error with %w, so
// errors.Is(err, mmapfile.ErrLocked) works on Open's error, and codec
// errors from a chunk read are returned with ErrBadCodec intact. Chunk
// read/write I/O failures are wrapped under ErrIO with only the leaf
// error's text, so mmapfile sentinels are not matchable through them.
var (
	// ErrNotOpen indicates an operation on a region whose file has been closed.
	ErrNotOpen = errors.New("region: not open")

	// ErrIO wraps a syscall failure not otherwise categorized by a leaf
	// package's own sentinel (e.g. msync, flock unlock, allocator file
	// extension).
	ErrIO = errors.New("region: i/o failure")
)
