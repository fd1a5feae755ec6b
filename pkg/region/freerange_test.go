package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushMergesAdjacentRanges(t *testing.T) {
	s := newFreeRangeSet()
	s.push(10, 20)
	s.push(20, 30) // merges right onto [10,20)
	s.push(5, 10)  // merges left onto [10,30)

	assert.Equal(t, []SectorRange{{Start: 5, End: 30}}, s.List())
}

func TestPushMergesBothNeighbors(t *testing.T) {
	s := newFreeRangeSet()
	s.push(10, 20)
	s.push(30, 40)
	s.push(20, 30) // bridges the two into one range

	assert.Equal(t, []SectorRange{{Start: 10, End: 40}}, s.List())
	assert.Equal(t, 1, s.Count())
}

func TestPushKeepsDisjointRangesSeparate(t *testing.T) {
	s := newFreeRangeSet()
	s.push(10, 20)
	s.push(30, 40)

	assert.Equal(t, []SectorRange{{Start: 10, End: 20}, {Start: 30, End: 40}}, s.List())
}

func TestPushIgnoresZeroLengthRange(t *testing.T) {
	s := newFreeRangeSet()
	s.push(10, 10)
	assert.Equal(t, 0, s.Count())
}

func TestTakeFirstFitShrinksRange(t *testing.T) {
	s := newFreeRangeSet()
	s.push(10, 20)

	start, ok := s.takeFirstFit(4)
	assert.True(t, ok)
	assert.Equal(t, uint32(10), start)
	assert.Equal(t, []SectorRange{{Start: 14, End: 20}}, s.List())
}

func TestTakeFirstFitRemovesExhaustedRange(t *testing.T) {
	s := newFreeRangeSet()
	s.push(10, 14)

	start, ok := s.takeFirstFit(4)
	assert.True(t, ok)
	assert.Equal(t, uint32(10), start)
	assert.Equal(t, 0, s.Count())
}

func TestTakeFirstFitSkipsRangesTooSmall(t *testing.T) {
	s := newFreeRangeSet()
	s.push(10, 12) // only 2 sectors
	s.push(50, 60) // 10 sectors

	start, ok := s.takeFirstFit(5)
	assert.True(t, ok)
	assert.Equal(t, uint32(50), start)
}

func TestTakeFirstFitNoFit(t *testing.T) {
	s := newFreeRangeSet()
	s.push(10, 12)

	_, ok := s.takeFirstFit(100)
	assert.False(t, ok)
}

func TestTakeFirstFitPreferAdjacentPrefersTouchingRange(t *testing.T) {
	s := newFreeRangeSet()
	s.push(10, 15) // ends where current range starts (adjacent on the left)
	s.push(1, 9)   // larger and earlier by start, would win under plain first-fit

	start, ok := s.takeFirstFitPreferAdjacent(5, 15, 20)
	assert.True(t, ok)
	assert.Equal(t, uint32(10), start)
}

func TestTakeFirstFitPreferAdjacentFallsBackToFirstFit(t *testing.T) {
	s := newFreeRangeSet()
	s.push(100, 200)

	start, ok := s.takeFirstFitPreferAdjacent(5, 15, 20)
	assert.True(t, ok)
	assert.Equal(t, uint32(100), start)
}
