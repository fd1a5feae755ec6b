// Package codec implements the three compression schemes used for chunk
// payloads: gzip, zlib, and identity (no compression).
//
// Compression markers match the on-disk byte exactly: 1 is gzip, 2 is
// zlib, 3 is identity. Anything else is rejected with ErrBadCodec.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Kind identifies a compression scheme by its on-disk marker byte.
type Kind uint8

const (
	Gzip       Kind = 1
	Zlib       Kind = 2
	Identity   Kind = 3
	markerMask      = 0x7F
)

var (
	// ErrBadCodec indicates a compression marker outside {1,2,3}, or a
	// decompressor rejecting its input.
	ErrBadCodec = errors.New("codec: unknown or invalid codec")

	// ErrBadLevel indicates a requested compression level outside the
	// codec's supported range.
	ErrBadLevel = errors.New("codec: compression level out of range")
)

// KindFromMarker extracts the codec kind from a payload's compression
// marker byte. The high bit (oversized flag) is masked off first.
func KindFromMarker(marker byte) (Kind, error) {
	k := Kind(marker & markerMask)
	switch k {
	case Gzip, Zlib, Identity:
		return k, nil
	default:
		return 0, fmt.Errorf("%w: marker %d", ErrBadCodec, marker)
	}
}

// ParseKind maps a codec name ("gzip", "zlib", "identity") to its Kind, for
// callers that take a codec by name rather than by on-disk marker (e.g. the
// regionctl CLI's --codec flag).
func ParseKind(name string) (Kind, error) {
	switch name {
	case "gzip":
		return Gzip, nil
	case "zlib":
		return Zlib, nil
	case "identity":
		return Identity, nil
	default:
		return 0, fmt.Errorf("%w: unknown codec name %q", ErrBadCodec, name)
	}
}

// String returns the codec's name ("gzip", "zlib", "identity", or
// "unknown" for an invalid Kind).
func (k Kind) String() string {
	switch k {
	case Gzip:
		return "gzip"
	case Zlib:
		return "zlib"
	case Identity:
		return "identity"
	default:
		return "unknown"
	}
}

// Oversized reports whether a payload's compression marker byte has the
// high bit set, indicating the body lives in an overflow file.
func Oversized(marker byte) bool {
	return marker&0x80 != 0
}

// Marker builds the on-disk compression marker byte for kind, optionally
// setting the oversized (high) bit.
func Marker(kind Kind, oversized bool) byte {
	b := byte(kind)
	if oversized {
		b |= 0x80
	}
	return b
}

// Decompress decompresses data according to kind.
func Decompress(kind Kind, data []byte) ([]byte, error) {
	switch kind {
	case Gzip:
		return decompressGzip(data)
	case Zlib:
		return decompressZlib(data)
	case Identity:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrBadCodec, kind)
	}
}

// Compress compresses data according to kind at the given level. level is
// interpreted per gzip/zlib's flate levels (gzip.DefaultCompression etc.);
// it is ignored for Identity.
func Compress(kind Kind, data []byte, level int) ([]byte, error) {
	switch kind {
	case Gzip:
		return compressGzip(data, level)
	case Zlib:
		return compressZlib(data, level)
	case Identity:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrBadCodec, kind)
	}
}

// decompressGzip reads the trailer's little-endian ISIZE field to presize
// the output buffer before decompressing, avoiding reallocation growth for
// large chunk payloads.
func decompressGzip(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: gzip stream too short", ErrBadCodec)
	}
	isize := binary.LittleEndian.Uint32(data[len(data)-4:])

	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCodec, err)
	}
	defer r.Close()

	out := make([]byte, isize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCodec, err)
	}
	return out, nil
}

// decompressZlib streams the output since zlib carries no length trailer.
func decompressZlib(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCodec, err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCodec, err)
	}
	return buf.Bytes(), nil
}

func compressGzip(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLevel, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCodec, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCodec, err)
	}
	return buf.Bytes(), nil
}

func compressZlib(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLevel, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCodec, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCodec, err)
	}
	return buf.Bytes(), nil
}
