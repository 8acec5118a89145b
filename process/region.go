package process

import (
	"fmt"
	"sort"
)

// MemoryRegion describes one mapped region of a process's address
// space as reported by the platform. The Committed/Guarded vocabulary
// follows VirtualQuery; on Linux every mapped line is committed and
// nothing is guarded.
type MemoryRegion struct {
	Base      ProcessMemoryAddress
	Size      ProcessMemorySize
	Committed bool
	Readable  bool
	Guarded   bool
}

func (r MemoryRegion) String() string {
	return fmt.Sprintf("Base: %x, Size: %d, Committed: %t, Readable: %t, Guarded: %t",
		uint64(r.Base), uint(r.Size), r.Committed, r.Readable, r.Guarded)
}

// End returns the first address past the region.
func (r MemoryRegion) End() ProcessMemoryAddress {
	return r.Base + ProcessMemoryAddress(r.Size)
}

// Eligible reports whether the region may be scanned: committed,
// readable and not guarded. Nothing else is ever passed to ReadMemory.
func (r MemoryRegion) Eligible() bool {
	return r.Committed && r.Readable && !r.Guarded
}

// SortRegions orders regions by base address. RegionForAddress requires
// the slice to be sorted.
func SortRegions(regions []MemoryRegion) {
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Base < regions[j].Base
	})
}

// RegionForAddress returns the region containing addr, or nil. The
// slice must be sorted by base address.
func RegionForAddress(addr ProcessMemoryAddress, regions []MemoryRegion) *MemoryRegion {
	i := sort.Search(len(regions), func(i int) bool {
		return regions[i].End() > addr
	})
	if i < len(regions) && regions[i].Base <= addr {
		return &regions[i]
	}
	return nil
}
