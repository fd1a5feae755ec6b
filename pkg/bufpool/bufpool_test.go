package bufpool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsExactLengthFromCoveringTier(t *testing.T) {
	p := NewPool(1, 16, 255)

	tests := []struct {
		name    string
		size    int
		wantCap int
	}{
		{"one byte rides the one-sector tier", 1, 1 * sectorSize},
		{"full sector fits its tier exactly", sectorSize, 1 * sectorSize},
		{"one byte over a sector moves up a tier", sectorSize + 1, 16 * sectorSize},
		{"sixteen sectors fit the middle tier", 16 * sectorSize, 16 * sectorSize},
		{"largest in-region image fits the top tier", 255 * sectorSize, 255 * sectorSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := p.Get(tt.size)
			defer p.Put(buf)

			assert.Equal(t, tt.size, len(buf))
			assert.Equal(t, tt.wantCap, cap(buf))
		})
	}
}

func TestGetAboveLargestTierAllocatesDirectly(t *testing.T) {
	p := NewPool(1, 16, 255)

	size := 256 * sectorSize
	buf := p.Get(size)

	assert.Equal(t, size, len(buf))
	assert.Equal(t, size, cap(buf))

	// Returning it is a no-op, not a panic.
	p.Put(buf)
}

func TestPutRecyclesBufferThroughItsTier(t *testing.T) {
	p := NewPool(1)

	buf := p.Get(100)
	buf[0] = 0xAB
	p.Put(buf)

	again := p.Get(200)
	defer p.Put(again)

	require.Equal(t, sectorSize, cap(again))
	// Pooled buffers are not zeroed between uses; callers clear what they
	// need (the chunk write path clears its alignment padding).
	assert.Equal(t, byte(0xAB), again[0])
}

func TestPutIgnoresForeignAndNilBuffers(t *testing.T) {
	p := NewPool(1, 16)

	p.Put(nil)
	p.Put(make([]byte, 100))          // capacity matches no tier
	p.Put(make([]byte, 3*sectorSize)) // sector multiple, still no tier

	buf := p.Get(1)
	defer p.Put(buf)
	assert.Equal(t, sectorSize, cap(buf))
}

func TestPackageLevelPoolCoversEveryInRegionImage(t *testing.T) {
	for _, sectors := range []int{1, 2, 16, 17, 255} {
		buf := Get(sectors * sectorSize)
		assert.Equal(t, sectors*sectorSize, len(buf))
		assert.LessOrEqual(t, len(buf), cap(buf))
		Put(buf)
	}
}

func TestConcurrentGetPut(t *testing.T) {
	p := NewPool(1, 16, 255)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				size := ((g*200+i)%255 + 1) * sectorSize
				buf := p.Get(size)
				assert.Equal(t, size, len(buf))
				buf[0] = byte(i)
				p.Put(buf)
			}
		}(g)
	}
	wg.Wait()
}
