// Package process_snapshot provides an in-memory implementation of
// process.Memory backed by captured region contents. Snapshots serve
// two purposes: offline scans of dumps taken on the game's own
// machine, and deterministic fixtures for tests.
package process_snapshot

import (
	"tablefind/process"
)

// Region is one captured memory region with its contents. Data may be
// shorter than a live region would have been; reads past the captured
// bytes fail like an unmapped address.
type Region struct {
	Base      process.ProcessMemoryAddress
	Data      []byte
	Committed bool
	Readable  bool
	Guarded   bool
}

// Snapshot implements process.Memory over a set of captured regions.
type Snapshot struct {
	pid        process.ProcessID
	moduleBase process.ProcessMemoryAddress
	regions    []Region
	index      []process.MemoryRegion
}

var _ process.Memory = (*Snapshot)(nil)

// New builds a snapshot from captured regions. Regions are sorted by
// base address; overlapping regions are the caller's bug.
func New(pid process.ProcessID, moduleBase process.ProcessMemoryAddress, regions []Region) *Snapshot {
	s := &Snapshot{
		pid:        pid,
		moduleBase: moduleBase,
		regions:    regions,
	}
	s.reindex()
	return s
}

// NewBuffer wraps a single readable committed region, the common shape
// for synthetic test fixtures.
func NewBuffer(base process.ProcessMemoryAddress, data []byte) *Snapshot {
	return New(0, 0, []Region{{
		Base:      base,
		Data:      data,
		Committed: true,
		Readable:  true,
	}})
}

func (s *Snapshot) reindex() {
	s.index = make([]process.MemoryRegion, 0, len(s.regions))
	for _, r := range s.regions {
		s.index = append(s.index, process.MemoryRegion{
			Base:      r.Base,
			Size:      process.ProcessMemorySize(len(r.Data)),
			Committed: r.Committed,
			Readable:  r.Readable,
			Guarded:   r.Guarded,
		})
	}
	process.SortRegions(s.index)

	// Keep the raw regions in the same order as the index
	byBase := make(map[process.ProcessMemoryAddress]Region, len(s.regions))
	for _, r := range s.regions {
		byBase[r.Base] = r
	}
	for i, mr := range s.index {
		s.regions[i] = byBase[mr.Base]
	}
}

func (s *Snapshot) PID() process.ProcessID {
	return s.pid
}

func (s *Snapshot) ModuleBase() process.ProcessMemoryAddress {
	return s.moduleBase
}

func (s *Snapshot) Regions() ([]process.MemoryRegion, error) {
	result := make([]process.MemoryRegion, len(s.index))
	copy(result, s.index)
	return result, nil
}

// ReadMemory serves reads from the captured bytes. Reads from
// ineligible regions fail, mirroring the live implementations. Reads
// that start inside a region but run past its captured end return the
// available prefix with ErrPartialRead.
func (s *Snapshot) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}

	mr := process.RegionForAddress(addr, s.index)
	if mr == nil || !mr.Eligible() {
		return nil, process.ErrAddressNotMapped
	}

	var reg *Region
	for i := range s.regions {
		if s.regions[i].Base == mr.Base {
			reg = &s.regions[i]
			break
		}
	}
	if reg == nil {
		return nil, process.ErrAddressNotMapped
	}

	offset := uint64(addr - reg.Base)
	end := offset + uint64(size)
	if end > uint64(len(reg.Data)) {
		avail := reg.Data[offset:]
		out := make([]byte, len(avail))
		copy(out, avail)
		return out, process.ErrPartialRead
	}

	out := make([]byte, size)
	copy(out, reg.Data[offset:end])
	return out, nil
}
