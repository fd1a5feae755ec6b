package metrics

// RegionMetrics is implemented by the Prometheus collector in
// pkg/metrics/prometheus; pkg/registry holds one as an optional,
// nil-safe field.
type RegionMetrics interface {
	// RecordRegionOpen records a region being opened (or reopened after
	// a prior CloseRegion) for directory.
	RecordRegionOpen(directory string)

	// RecordRegionClose records a region being closed.
	RecordRegionClose(directory string)

	// RecordChunkRead records a chunk read: codecName is "gzip", "zlib",
	// "identity", or "" for an empty cell; bytes is the decompressed
	// size; err is the outcome (nil on success).
	RecordChunkRead(codecName string, bytes int, err error)

	// RecordChunkWrite records a chunk write: codecName, uncompressed
	// bytes written, and outcome.
	RecordChunkWrite(codecName string, bytes int, err error)

	// RecordFreeSectors records the number of free sectors currently
	// tracked by a region's allocator.
	RecordFreeSectors(directory string, count int)

	// RecordWantedEnd records a region's current file-growth watermark,
	// in sectors.
	RecordWantedEnd(directory string, sectors uint32)
}

// newPrometheusRegionMetrics is set by pkg/metrics/prometheus's package
// init via RegisterRegionMetricsConstructor; this indirection keeps
// pkg/metrics free of a direct dependency on the concrete Prometheus
// types, avoiding an import cycle with pkg/metrics/prometheus.
var newPrometheusRegionMetrics func() RegionMetrics

// RegisterRegionMetricsConstructor registers the Prometheus region
// metrics constructor. Called from pkg/metrics/prometheus's package
// init.
func RegisterRegionMetricsConstructor(constructor func() RegionMetrics) {
	newPrometheusRegionMetrics = constructor
}

// NewRegionMetrics returns a Prometheus-backed RegionMetrics, or nil if
// InitRegistry has not been called. Callers pass the nil result straight
// through to pkg/registry.Config.Metrics for zero-overhead operation.
func NewRegionMetrics() RegionMetrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusRegionMetrics()
}

// RecordRegionOpen is the nil-safe wrapper pkg/registry calls directly,
// so it never needs to check whether metrics are enabled itself.
func RecordRegionOpen(m RegionMetrics, directory string) {
	if m != nil {
		m.RecordRegionOpen(directory)
	}
}

// RecordRegionClose is the nil-safe counterpart to RecordRegionOpen.
func RecordRegionClose(m RegionMetrics, directory string) {
	if m != nil {
		m.RecordRegionClose(directory)
	}
}

// RecordChunkRead is the nil-safe wrapper for RegionMetrics.RecordChunkRead.
func RecordChunkRead(m RegionMetrics, codecName string, bytes int, err error) {
	if m != nil {
		m.RecordChunkRead(codecName, bytes, err)
	}
}

// RecordChunkWrite is the nil-safe wrapper for RegionMetrics.RecordChunkWrite.
func RecordChunkWrite(m RegionMetrics, codecName string, bytes int, err error) {
	if m != nil {
		m.RecordChunkWrite(codecName, bytes, err)
	}
}

// RecordFreeSectors is the nil-safe wrapper for RegionMetrics.RecordFreeSectors.
func RecordFreeSectors(m RegionMetrics, directory string, count int) {
	if m != nil {
		m.RecordFreeSectors(directory, count)
	}
}

// RecordWantedEnd is the nil-safe wrapper for RegionMetrics.RecordWantedEnd.
func RecordWantedEnd(m RegionMetrics, directory string, sectors uint32) {
	if m != nil {
		m.RecordWantedEnd(directory, sectors)
	}
}
