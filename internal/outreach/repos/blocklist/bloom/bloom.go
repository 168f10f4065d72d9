// Package bloom backs the blocklist prefilter with bits-and-blooms filters.
package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/outreach-gate/internal/outreach/repos/blocklist"
)

const (
	defaultFPRate  = 0.01
	defaultMinBits = 64
)

// Factory sizes filters with bitsbloom.EstimateParameters. MinBits is a floor
// for lists with only a handful of plain patterns.
type Factory struct {
	MinBits uint
}

// NewFactory returns a Factory with the default floor.
func NewFactory() blocklist.BloomFactory { return Factory{MinBits: defaultMinBits} }

// New builds an empty filter for capacity keys. A zero capacity is treated as
// one key and an fpRate outside (0, 1) falls back to 1%.
func (f Factory) New(capacity uint64, fpRate float64) blocklist.BloomFilter {
	if capacity == 0 {
		capacity = 1
	}
	if !(fpRate > 0 && fpRate < 1) {
		fpRate = defaultFPRate
	}
	m, k := bitsbloom.EstimateParameters(uint(capacity), fpRate)
	if m < f.MinBits {
		m = f.MinBits
	}
	return &filter{bf: bitsbloom.New(m, k)}
}

// filter is filled while a snapshot is built and only read once the snapshot
// is published to the cache, so it needs no lock of its own.
type filter struct {
	bf *bitsbloom.BloomFilter
}

func (f *filter) Add(key []byte) { f.bf.Add(key) }

func (f *filter) MightContain(key []byte) bool { return f.bf.Test(key) }

// Cap reports the filter size in bits.
func (f *filter) Cap() uint { return f.bf.Cap() }

var (
	_ blocklist.BloomFactory = Factory{}
	_ blocklist.BloomFilter  = (*filter)(nil)
)
