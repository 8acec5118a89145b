//go:build !linux

package main

import (
	"fmt"

	"tablefind/process"
)

// Live attach is Linux-only; on other platforms scans run against
// snapshot dumps captured on the game's machine.
func openLive(pid process.ProcessID) (process.Memory, error) {
	return nil, fmt.Errorf("live attach is not supported on this platform; scan a snapshot with --snapshot")
}
