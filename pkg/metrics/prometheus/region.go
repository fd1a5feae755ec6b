package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/regionstore/pkg/metrics"
)

// regionMetrics is the Prometheus implementation of metrics.RegionMetrics.
type regionMetrics struct {
	regionsOpen   prometheus.Gauge
	regionOpens   prometheus.Counter
	regionCloses  prometheus.Counter
	chunkReads    *prometheus.CounterVec
	chunkWrites   *prometheus.CounterVec
	chunkReadSize *prometheus.HistogramVec
	chunkWriteSz  *prometheus.HistogramVec
	freeSectors   *prometheus.GaugeVec
	wantedEnd     *prometheus.GaugeVec
}

// NewRegionMetrics creates a new Prometheus-backed RegionMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewRegionMetrics() metrics.RegionMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()
	labels := prometheus.Labels{"instance": metrics.InstanceID()}

	return &regionMetrics{
		regionsOpen: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name:        "regionstore_regions_open",
			Help:        "Number of region files currently open.",
			ConstLabels: labels,
		}),
		regionOpens: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name:        "regionstore_region_opens_total",
			Help:        "Total number of region files opened.",
			ConstLabels: labels,
		}),
		regionCloses: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name:        "regionstore_region_closes_total",
			Help:        "Total number of region files closed.",
			ConstLabels: labels,
		}),
		chunkReads: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name:        "regionstore_chunk_reads_total",
			Help:        "Total number of chunk reads by codec and outcome.",
			ConstLabels: labels,
		}, []string{"codec", "status"}),
		chunkWrites: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name:        "regionstore_chunk_writes_total",
			Help:        "Total number of chunk writes by codec and outcome.",
			ConstLabels: labels,
		}, []string{"codec", "status"}),
		chunkReadSize: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:        "regionstore_chunk_read_bytes",
			Help:        "Distribution of decompressed chunk read sizes.",
			ConstLabels: labels,
			Buckets:     []float64{1024, 4096, 16384, 65536, 262144, 1048576, 4194304},
		}, []string{"codec"}),
		chunkWriteSz: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:        "regionstore_chunk_write_bytes",
			Help:        "Distribution of uncompressed chunk write sizes.",
			ConstLabels: labels,
			Buckets:     []float64{1024, 4096, 16384, 65536, 262144, 1048576, 4194304},
		}, []string{"codec"}),
		freeSectors: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name:        "regionstore_region_free_sectors",
			Help:        "Free sectors tracked by a region's allocator.",
			ConstLabels: labels,
		}, []string{"directory"}),
		wantedEnd: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name:        "regionstore_region_wanted_end_sectors",
			Help:        "Current file-growth watermark of a region, in sectors.",
			ConstLabels: labels,
		}, []string{"directory"}),
	}
}

func (m *regionMetrics) RecordRegionOpen(directory string) {
	if m == nil {
		return
	}
	m.regionOpens.Inc()
	m.regionsOpen.Inc()
}

func (m *regionMetrics) RecordRegionClose(directory string) {
	if m == nil {
		return
	}
	m.regionCloses.Inc()
	m.regionsOpen.Dec()
}

func (m *regionMetrics) RecordChunkRead(codecName string, bytes int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.chunkReads.WithLabelValues(codecName, status).Inc()
	if err == nil && bytes > 0 {
		m.chunkReadSize.WithLabelValues(codecName).Observe(float64(bytes))
	}
}

func (m *regionMetrics) RecordChunkWrite(codecName string, bytes int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.chunkWrites.WithLabelValues(codecName, status).Inc()
	if err == nil && bytes > 0 {
		m.chunkWriteSz.WithLabelValues(codecName).Observe(float64(bytes))
	}
}

func (m *regionMetrics) RecordFreeSectors(directory string, count int) {
	if m == nil {
		return
	}
	m.freeSectors.WithLabelValues(directory).Set(float64(count))
}

func (m *regionMetrics) RecordWantedEnd(directory string, sectors uint32) {
	if m == nil {
		return
	}
	m.wantedEnd.WithLabelValues(directory).Set(float64(sectors))
}

func init() {
	metrics.RegisterRegionMetricsConstructor(NewRegionMetrics)
}
