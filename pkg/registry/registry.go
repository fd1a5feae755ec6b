// Package registry is the public entry point for the region storage
// engine: it maps (directory, regionX, regionZ) to an open Region, opening
// regions on demand and compressing/decompressing chunk payloads around
// pkg/region's compressed-body-in, compressed-body-out API.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/marmos91/regionstore/pkg/codec"
	"github.com/marmos91/regionstore/pkg/metrics"
	"github.com/marmos91/regionstore/pkg/region"
)

// Config configures a Registry.
type Config struct {
	// Metrics is an optional metrics collector. Pass nil to disable
	// metrics collection with zero overhead.
	Metrics metrics.RegionMetrics
}

// Registry owns every Region this process has opened, keyed by its
// region.Key. Regions are opened the first time a chunk in them is
// touched and stay open until CloseRegion or Close is called.
type Registry struct {
	mu      sync.RWMutex
	regions map[region.Key]*region.Region
	metrics metrics.RegionMetrics
}

// NewRegistry creates an empty Registry.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		regions: make(map[region.Key]*region.Region),
		metrics: cfg.Metrics,
	}
}

// regionKey derives the region a chunk belongs to: chunk coordinates
// floor-divided by the grid size.
func regionKey(directory string, chunkX, chunkZ int32) region.Key {
	return region.Key{
		Directory: directory,
		X:         floorDiv(chunkX, region.GridSize),
		Z:         floorDiv(chunkZ, region.GridSize),
	}
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// open returns the Region for key, opening it on demand.
func (reg *Registry) open(key region.Key) (*region.Region, error) {
	reg.mu.RLock()
	r, ok := reg.regions[key]
	reg.mu.RUnlock()
	if ok {
		return r, nil
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r, ok := reg.regions[key]; ok {
		return r, nil
	}

	r, err := region.Open(key)
	if err != nil {
		return nil, fmt.Errorf("registry: open %s: %w", key, err)
	}
	reg.regions[key] = r
	metrics.RecordRegionOpen(reg.metrics, key.Directory)
	return r, nil
}

// ReadChunk returns the decompressed bytes stored for (chunkX, chunkZ) in
// directory, or nil with no error for an empty cell.
func (reg *Registry) ReadChunk(directory string, chunkX, chunkZ int32) ([]byte, error) {
	r, err := reg.open(regionKey(directory, chunkX, chunkZ))
	if err != nil {
		return nil, err
	}

	payload, err := r.ReadChunk(chunkX, chunkZ)
	if err != nil {
		metrics.RecordChunkRead(reg.metrics, "", 0, err)
		return nil, err
	}
	if !payload.Present {
		metrics.RecordChunkRead(reg.metrics, "", 0, nil)
		return nil, nil
	}

	data, err := codec.Decompress(payload.Kind, payload.Body)
	metrics.RecordChunkRead(reg.metrics, codecName(payload.Kind), len(data), err)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// WriteChunk compresses data under kind at level and stores it for
// (chunkX, chunkZ) in directory, provided timestamp is newer than the
// cell's last accepted write.
func (reg *Registry) WriteChunk(directory string, chunkX, chunkZ int32, timestamp uint32, data []byte, kind codec.Kind, level int) error {
	compressed, err := codec.Compress(kind, data, level)
	if err != nil {
		return err
	}

	r, err := reg.open(regionKey(directory, chunkX, chunkZ))
	if err != nil {
		return err
	}

	err = r.WriteChunk(chunkX, chunkZ, timestamp, kind, compressed)
	metrics.RecordChunkWrite(reg.metrics, codecName(kind), len(data), err)
	if err == nil && reg.metrics != nil {
		var freeSectors int
		for _, fr := range r.FreeRanges() {
			freeSectors += int(fr.Len())
		}
		metrics.RecordFreeSectors(reg.metrics, directory, freeSectors)
		metrics.RecordWantedEnd(reg.metrics, directory, r.WantedEnd())
	}
	return err
}

// CloseRegion closes and forgets the region named by (directory, regionX,
// regionZ). A no-op if the region was never opened.
func (reg *Registry) CloseRegion(directory string, regionX, regionZ int32) error {
	key := region.Key{Directory: directory, X: regionX, Z: regionZ}

	reg.mu.Lock()
	r, ok := reg.regions[key]
	if ok {
		delete(reg.regions, key)
	}
	reg.mu.Unlock()

	if !ok {
		return nil
	}

	metrics.RecordRegionClose(reg.metrics, directory)
	if err := r.Close(); err != nil {
		return fmt.Errorf("registry: close %s: %w", key, err)
	}
	return nil
}

// Close closes every open region. Errors from individual regions are
// joined; Close still attempts every region after one fails.
func (reg *Registry) Close() error {
	reg.mu.Lock()
	regions := reg.regions
	reg.regions = make(map[region.Key]*region.Region)
	reg.mu.Unlock()

	var errs []error
	for key, r := range regions {
		metrics.RecordRegionClose(reg.metrics, key.Directory)
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("registry: close: %w", err)
	}
	return nil
}

// List returns the keys of every currently open region. Intended for
// introspection (regionctl inspect, metrics collection); never blocks a
// concurrent open or close for longer than the snapshot copy.
func (reg *Registry) List() []region.Key {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	keys := make([]region.Key, 0, len(reg.regions))
	for key := range reg.regions {
		keys = append(keys, key)
	}
	return keys
}

// Count returns the number of currently open regions.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.regions)
}

// Open returns the Region for (directory, regionX, regionZ), opening it on
// demand. Exported for introspection callers (regionctl inspect/gc-stats)
// that need the *region.Region itself rather than the compressed-body
// read/write API above.
func (reg *Registry) Open(directory string, regionX, regionZ int32) (*region.Region, error) {
	return reg.open(region.Key{Directory: directory, X: regionX, Z: regionZ})
}

func codecName(kind codec.Kind) string {
	return kind.String()
}

