// mmapfile_shared.go contains types shared between mmapfile_unix.go and
// mmapfile_windows.go.

package mmapfile

// AccessHint tells the OS how the file is expected to be read, so it can
// tune readahead (posix_fadvise / Windows PrefetchVirtualMemory are both
// advisory; a wrong hint costs performance, never correctness).
type AccessHint int

const (
	// AccessRandom hints at scattered, non-sequential access — the
	// pattern a region file sees, since chunk payloads are scattered
	// across the sector space by the free-range allocator.
	AccessRandom AccessHint = iota

	// AccessSequential hints at mostly-forward access — the pattern an
	// overflow file sees, since it is read and rewritten as a whole.
	AccessSequential
)

// Range is a half-open byte range [Start, End) within a File.
type Range struct {
	Start int64
	End   int64
}

// Len returns the number of bytes the range spans.
func (r Range) Len() int64 {
	return r.End - r.Start
}
