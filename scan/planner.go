package scan

import (
	"sort"

	"tablefind/process"
)

// Address window planning. Up to three windows per table: around the
// module base, around a previous-base hint, and a bounded high-memory
// sweep used when neither hint exists or when hinted windows came back
// empty. The sweep ceiling matches the upper address limit the live
// scanner enforces.
const (
	sweepFloor   = process.ProcessMemoryAddress(0x10000000)
	sweepCeiling = process.ProcessMemoryAddress(0x7d0000000000)
	lowCutoff    = process.ProcessMemoryAddress(0x10000)
)

// Window is a half-open address range [Lo, Hi).
type Window struct {
	Lo process.ProcessMemoryAddress
	Hi process.ProcessMemoryAddress
}

// ScanRange is a window clipped to one eligible memory region; the
// unit of work handed to scan workers.
type ScanRange struct {
	Base process.ProcessMemoryAddress
	Size process.ProcessMemorySize
}

// planWindows builds the merged window set for one table. forceSweep
// adds the high sweep regardless of hints (the zero-hit retry path).
func planWindows(moduleBase, hint process.ProcessMemoryAddress, window HexUint64, forceSweep bool) []Window {
	half := process.ProcessMemoryAddress(window / 2)
	var windows []Window

	if moduleBase != 0 {
		windows = append(windows, centeredWindow(moduleBase, half))
	}
	if hint != 0 {
		windows = append(windows, centeredWindow(hint, half))
	}
	if len(windows) == 0 || forceSweep {
		windows = append(windows, Window{Lo: sweepFloor, Hi: sweepCeiling})
	}

	return mergeWindows(windows)
}

func centeredWindow(center, half process.ProcessMemoryAddress) Window {
	lo := lowCutoff
	if center > half && center-half > lowCutoff {
		lo = center - half
	}
	return Window{Lo: lo, Hi: center + half}
}

// mergeWindows sorts by start and merges overlapping or touching
// windows.
func mergeWindows(windows []Window) []Window {
	if len(windows) <= 1 {
		return windows
	}
	sort.Slice(windows, func(i, j int) bool {
		return windows[i].Lo < windows[j].Lo
	})
	merged := windows[:1]
	for _, w := range windows[1:] {
		last := &merged[len(merged)-1]
		if w.Lo <= last.Hi {
			if w.Hi > last.Hi {
				last.Hi = w.Hi
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

// intersectRegions clips each window to the eligible memory regions.
// Regions that fail eligibility, or that fall entirely outside every
// window, are counted skipped and never read.
func intersectRegions(windows []Window, regions []process.MemoryRegion) (ranges []ScanRange, scanned, skipped int) {
	for _, r := range regions {
		if !r.Eligible() {
			skipped++
			continue
		}
		covered := false
		for _, w := range windows {
			lo := r.Base
			if w.Lo > lo {
				lo = w.Lo
			}
			hi := r.End()
			if w.Hi < hi {
				hi = w.Hi
			}
			if lo >= hi {
				continue
			}
			covered = true
			ranges = append(ranges, ScanRange{
				Base: lo,
				Size: process.ProcessMemorySize(hi - lo),
			})
		}
		if covered {
			scanned++
		} else {
			skipped++
		}
	}
	return ranges, scanned, skipped
}
