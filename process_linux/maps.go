//go:build linux

package process_linux

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"tablefind/process"
)

// readMemoryRegions reads and parses /proc/<pid>/maps. Every mapped
// line is committed; PROT_NONE mappings surface as not readable.
// Linux has no guard-page attribute in maps, so Guarded is always
// false here.
func readMemoryRegions(pid int) ([]process.MemoryRegion, error) {
	file, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var regions []process.MemoryRegion
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		// Parse address range (e.g., "00400000-0040b000")
		addrRange := strings.Split(fields[0], "-")
		if len(addrRange) != 2 {
			continue
		}

		startAddr, err := strconv.ParseUint(addrRange[0], 16, 64)
		if err != nil {
			continue
		}

		endAddr, err := strconv.ParseUint(addrRange[1], 16, 64)
		if err != nil {
			continue
		}

		perms := fields[1]
		regions = append(regions, process.MemoryRegion{
			Base:      process.ProcessMemoryAddress(startAddr),
			Size:      process.ProcessMemorySize(endAddr - startAddr),
			Committed: true,
			Readable:  len(perms) > 0 && perms[0] == 'r',
			Guarded:   false,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return regions, nil
}

// findModuleBase resolves the load address of the main executable by
// matching the /proc/<pid>/exe symlink target against the pathname
// column of /proc/<pid>/maps. Returns zero when it cannot be
// determined (e.g. permission denied on the symlink).
func findModuleBase(pid process.ProcessID) process.ProcessMemoryAddress {
	exe, err := os.Readlink(filepath.Join("/proc", strconv.Itoa(int(pid)), "exe"))
	if err != nil || exe == "" {
		return 0
	}

	file, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return 0
	}
	defer file.Close()

	best := process.ProcessMemoryAddress(0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 || fields[len(fields)-1] != exe {
			continue
		}
		addrRange := strings.Split(fields[0], "-")
		if len(addrRange) != 2 {
			continue
		}
		startAddr, err := strconv.ParseUint(addrRange[0], 16, 64)
		if err != nil {
			continue
		}
		addr := process.ProcessMemoryAddress(startAddr)
		if best == 0 || addr < best {
			best = addr
		}
	}
	return best
}
