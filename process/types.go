// Package process defines the read-only memory access service used by
// the scan engine: address and size types, the memory region model,
// and the Memory interface implemented per platform.
package process

import (
	"errors"
	"fmt"
)

// ProcessID represents a unique identifier for a process
type ProcessID int

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

var (
	// ErrProcessNotFound is returned when no running process matches
	// the requested name.
	ErrProcessNotFound = errors.New("process not found")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrPartialRead is returned when a read returned fewer bytes than requested.
	ErrPartialRead = errors.New("partial read")
)
