package logger

import (
	"encoding/hex"
	"log/slog"
)

// ============================================================================
// Field Keys
// ============================================================================
//
// Centralizing key names keeps log output greppable and consistent across
// packages. Group related keys together.

// Tracing
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"
)

// Operation
const (
	KeyOperation = "operation" // readChunk, writeChunk, openRegion, closeRegion
	KeyDirectory = "directory" // region directory root
	KeyPath      = "path"      // filesystem path of a region or overflow file
)

// Region/chunk coordinates
const (
	KeyRegionX = "region_x"
	KeyRegionZ = "region_z"
	KeyChunkX  = "chunk_x"
	KeyChunkZ  = "chunk_z"
)

// Sector allocation
const (
	KeySector         = "sector"
	KeySectorCount    = "sector_count"
	KeyFreeRangeCount = "free_range_count"
	KeyWantedEnd      = "wanted_end"
)

// Codec
const (
	KeyCodec     = "codec"
	KeyOversized = "oversized"
	KeyTimestamp = "timestamp"
)

// I/O
const (
	KeyOffset       = "offset"
	KeyCount        = "count"
	KeyBytesRead    = "bytes_read"
	KeyBytesWritten = "bytes_written"
	KeyDurationMs   = "duration_ms"
)

// Errors
const (
	KeyError     = "error"
	KeyErrorCode = "error_code"
	KeySource    = "source"
)

// Identifiers
const (
	KeyHandle = "handle"
)

// ============================================================================
// Field Constructors
// ============================================================================

// TraceID returns a trace_id attribute
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a span_id attribute
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Operation returns an operation attribute
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Directory returns a directory attribute
func Directory(dir string) slog.Attr {
	return slog.String(KeyDirectory, dir)
}

// Path returns a path attribute
func Path(path string) slog.Attr {
	return slog.String(KeyPath, path)
}

// Region returns a "region" group attribute holding x and z members
func Region(x, z int32) slog.Attr {
	return slog.Group("region", slog.Int("x", int(x)), slog.Int("z", int(z)))
}

// Chunk returns a "chunk" group attribute holding x and z members
func Chunk(x, z int32) slog.Attr {
	return slog.Group("chunk", slog.Int("x", int(x)), slog.Int("z", int(z)))
}

// Sector returns a sector attribute (starting sector index)
func Sector(sector uint32) slog.Attr {
	return slog.Uint64(KeySector, uint64(sector))
}

// SectorCount returns a sector_count attribute
func SectorCount(count uint32) slog.Attr {
	return slog.Uint64(KeySectorCount, uint64(count))
}

// FreeRangeCount returns a free_range_count attribute
func FreeRangeCount(count int) slog.Attr {
	return slog.Int(KeyFreeRangeCount, count)
}

// WantedEnd returns a wanted_end attribute
func WantedEnd(sector uint32) slog.Attr {
	return slog.Uint64(KeyWantedEnd, uint64(sector))
}

// Codec returns a codec attribute identifying the compression scheme used
func Codec(name string) slog.Attr {
	return slog.String(KeyCodec, name)
}

// Oversized returns an oversized attribute
func Oversized(oversized bool) slog.Attr {
	return slog.Bool(KeyOversized, oversized)
}

// Timestamp returns a raw chunk timestamp attribute
func Timestamp(ts uint32) slog.Attr {
	return slog.Uint64(KeyTimestamp, uint64(ts))
}

// Offset returns an offset attribute
func Offset(offset int64) slog.Attr {
	return slog.Int64(KeyOffset, offset)
}

// Count returns a count attribute (e.g. bytes requested)
func Count(count int) slog.Attr {
	return slog.Int(KeyCount, count)
}

// BytesRead returns a bytes_read attribute
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// BytesWritten returns a bytes_written attribute
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// DurationMs returns a duration_ms attribute
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Handle returns a hex-encoded identifier attribute. Useful for logging
// opaque byte-oriented keys without dumping raw bytes into the log line.
func Handle(b []byte) slog.Attr {
	return slog.String(KeyHandle, hex.EncodeToString(b))
}

// Err returns an error attribute, or a zero-value (empty key) Attr if err is
// nil so callers can unconditionally pass the result to a logging call.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns an error_code attribute for the package's error taxonomy
// (NotOpen, Locked, Io, BadCodec, BadLevel, OutOfRange).
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// Source returns a source attribute identifying the subsystem emitting a log
// line (e.g. "mmapfile", "region", "registry").
func Source(source string) slog.Attr {
	return slog.String(KeySource, source)
}
