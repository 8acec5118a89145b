//go:build linux

// Package process_linux implements process.Memory for Linux using
// /proc/<pid>/maps for region enumeration and process_vm_readv for
// reads.
package process_linux

import (
	"fmt"
	"os"
	"sync"

	"tablefind/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// LinuxProcess implements the process.Memory interface for Linux systems
type LinuxProcess struct {
	pid        process.ProcessID
	moduleBase process.ProcessMemoryAddress
	log        *logger.Logger
	mm         []process.MemoryRegion
	mu         sync.Mutex
}

var _ process.Memory = (*LinuxProcess)(nil)

// Open attaches to the process with the given PID. The memory map is
// read once up front and the main module base resolved best-effort.
func Open(pid process.ProcessID) (*LinuxProcess, error) {
	procPath := fmt.Sprintf("/proc/%d", pid)
	if _, err := os.Stat(procPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("process with PID %d does not exist", pid)
	}

	p := &LinuxProcess{
		pid: pid,
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid))),
	}

	if err := p.UpdateRegions(); err != nil {
		return nil, fmt.Errorf("failed to initialize memory map: %w", err)
	}

	p.moduleBase = findModuleBase(pid)
	if p.moduleBase == 0 {
		p.log.Debugln("Main module base not resolved")
	}

	p.log.Infoln("Process opened")
	return p, nil
}

// PID returns the process ID
func (p *LinuxProcess) PID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// ModuleBase returns the load address of the main executable, or zero.
func (p *LinuxProcess) ModuleBase() process.ProcessMemoryAddress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.moduleBase
}

// UpdateRegions refreshes the memory map from /proc/<pid>/maps.
func (p *LinuxProcess) UpdateRegions() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pid == 0 {
		return process.ErrProcessNotOpen
	}

	mm, err := readMemoryRegions(int(p.pid))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	// RegionForAddress requires the memory map to be sorted by address
	process.SortRegions(mm)

	p.mm = mm
	return nil
}

// Regions returns a copy of the current memory map.
func (p *LinuxProcess) Regions() ([]process.MemoryRegion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil, process.ErrProcessNotOpen
	}

	result := make([]process.MemoryRegion, len(p.mm))
	copy(result, p.mm)
	return result, nil
}

func (p *LinuxProcess) isValidAddressInternal(addr process.ProcessMemoryAddress) bool {
	if addr <= 0x10000 {
		return false
	}
	if addr > 0x7d0000000000 {
		return false
	}

	if item := process.RegionForAddress(addr, p.mm); item != nil {
		return item.Eligible()
	}
	return false
}
