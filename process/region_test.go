package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionEligible(t *testing.T) {
	assert.True(t, MemoryRegion{Committed: true, Readable: true}.Eligible())
	assert.False(t, MemoryRegion{Committed: true, Readable: false}.Eligible())
	assert.False(t, MemoryRegion{Committed: false, Readable: true}.Eligible())
	assert.False(t, MemoryRegion{Committed: true, Readable: true, Guarded: true}.Eligible())
}

func TestRegionEnd(t *testing.T) {
	r := MemoryRegion{Base: 0x1000, Size: 0x200}
	assert.Equal(t, ProcessMemoryAddress(0x1200), r.End())
}

func TestRegionForAddress(t *testing.T) {
	regions := []MemoryRegion{
		{Base: 0x3000, Size: 0x1000},
		{Base: 0x1000, Size: 0x1000},
	}
	SortRegions(regions)

	r := RegionForAddress(0x1000, regions)
	require.NotNil(t, r)
	assert.Equal(t, ProcessMemoryAddress(0x1000), r.Base)

	// Last byte of the first region.
	r = RegionForAddress(0x1FFF, regions)
	require.NotNil(t, r)
	assert.Equal(t, ProcessMemoryAddress(0x1000), r.Base)

	// Gap between the regions.
	assert.Nil(t, RegionForAddress(0x2000, regions))
	// Before and after everything.
	assert.Nil(t, RegionForAddress(0x0, regions))
	assert.Nil(t, RegionForAddress(0x4000, regions))
}
