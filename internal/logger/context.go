package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for a region/chunk operation.
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	Operation string    // readChunk, writeChunk, openRegion, closeRegion, ...
	Directory string    // region directory the operation targets
	RegionX   int32     // region X coordinate
	RegionZ   int32     // region Z coordinate
	ChunkX    int32     // chunk X coordinate within the region's 32x32 grid
	ChunkZ    int32     // chunk Z coordinate within the region's 32x32 grid
	StartTime time.Time // for duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext scoped to the given region directory.
func NewLogContext(directory string) *LogContext {
	return &LogContext{
		Directory: directory,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithOperation returns a copy with the operation name set
func (lc *LogContext) WithOperation(operation string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Operation = operation
	}
	return clone
}

// WithRegion returns a copy with the region coordinates set
func (lc *LogContext) WithRegion(regionX, regionZ int32) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.RegionX = regionX
		clone.RegionZ = regionZ
	}
	return clone
}

// WithChunk returns a copy with the chunk coordinates set
func (lc *LogContext) WithChunk(chunkX, chunkZ int32) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ChunkX = chunkX
		clone.ChunkZ = chunkZ
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
