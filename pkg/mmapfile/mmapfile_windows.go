//go:build windows

// mmapfile_windows.go stubs out File on Windows, where this package's flock
// and fadvise syscalls have no x/sys/windows equivalent wired up yet.

package mmapfile

// File is not supported on Windows.
type File struct{}

// Open always fails on Windows.
func Open(_ string, _ int64, _ AccessHint) (*File, error) {
	return nil, ErrUnsupportedPlatform
}

func (f *File) Path() string { return "" }

func (f *File) MappedLen() int64 { return 0 }

func (f *File) Len() int64 { return 0 }

func (f *File) Read(_ Range) ([]byte, error) {
	return nil, ErrUnsupportedPlatform
}

func (f *File) WriteAt(_ []byte, _ int64) (int, error) {
	return 0, ErrUnsupportedPlatform
}

func (f *File) Grow(_ int64) error {
	return ErrUnsupportedPlatform
}

func (f *File) Close() error {
	return nil
}
