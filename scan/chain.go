package scan

import (
	"encoding/binary"
	"fmt"

	"tablefind/process"
)

// ChainStep is one hop of a pointer chain: add Offset, optionally
// dereference, then add PostAdd. Modeling the hops as data keeps the
// walk a small interpreter instead of ad hoc recursive dereferencing.
type ChainStep struct {
	Offset      int64 `json:"offset"`
	Dereference bool  `json:"dereference"`
	PostAdd     int64 `json:"post_add,omitempty"`
}

// Chain is a pointer-chain hint from the offsets document. Address is
// an RVA unless Absolute; DirectTable short-circuits the walk and
// treats the start address itself as the table base.
type Chain struct {
	Address     HexUint64   `json:"address"`
	Absolute    bool        `json:"absolute"`
	DirectTable bool        `json:"direct_table,omitempty"`
	FinalOffset int64       `json:"final_offset,omitempty"`
	Steps       []ChainStep `json:"steps,omitempty"`
}

// Resolve executes the chain against the read API and returns the
// final address. Resolution failures are ordinary errors; the caller
// treats an unresolvable chain as "no hint".
func (c Chain) Resolve(mem process.Memory) (process.ProcessMemoryAddress, error) {
	if c.Address == 0 {
		return 0, fmt.Errorf("chain: zero start address")
	}

	start := process.ProcessMemoryAddress(c.Address)
	if !c.Absolute {
		moduleBase := mem.ModuleBase()
		if moduleBase == 0 {
			return 0, fmt.Errorf("chain: relative address without module base")
		}
		start = moduleBase + start
	}

	if c.DirectTable {
		return addSigned(start, c.FinalOffset), nil
	}

	ptr, err := readPointer(mem, start)
	if err != nil {
		return 0, fmt.Errorf("chain: read root pointer: %w", err)
	}

	for i, step := range c.Steps {
		ptr = addSigned(ptr, step.Offset)
		if step.Dereference {
			if ptr == 0 {
				return 0, fmt.Errorf("chain: NULL pointer at step %d", i)
			}
			ptr, err = readPointer(mem, ptr)
			if err != nil {
				return 0, fmt.Errorf("chain: dereference at step %d: %w", i, err)
			}
		}
		ptr = addSigned(ptr, step.PostAdd)
	}

	return addSigned(ptr, c.FinalOffset), nil
}

func readPointer(mem process.Memory, addr process.ProcessMemoryAddress) (process.ProcessMemoryAddress, error) {
	data, err := mem.ReadMemory(addr, 8)
	if err != nil {
		return 0, err
	}
	if len(data) < 8 {
		return 0, process.ErrPartialRead
	}
	return process.ProcessMemoryAddress(binary.LittleEndian.Uint64(data)), nil
}

func addSigned(addr process.ProcessMemoryAddress, delta int64) process.ProcessMemoryAddress {
	if delta >= 0 {
		return addr + process.ProcessMemoryAddress(delta)
	}
	return addr - process.ProcessMemoryAddress(-delta)
}
