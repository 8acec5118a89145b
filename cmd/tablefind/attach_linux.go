//go:build linux

package main

import (
	"tablefind/process"
	"tablefind/process_linux"
)

// openLive attaches to a running process for direct memory reads.
func openLive(pid process.ProcessID) (process.Memory, error) {
	return process_linux.Open(pid)
}
