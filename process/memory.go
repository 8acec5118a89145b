package process

// Memory is the read-only process memory access service consumed by
// the scan engine. There is deliberately no write operation anywhere
// on this interface: the engine only ever inspects the foreign
// process.
type Memory interface {
	// PID returns the process ID backing this view.
	PID() ProcessID

	// ModuleBase returns the load address of the main executable
	// module, or zero when it could not be determined.
	ModuleBase() ProcessMemoryAddress

	// Regions returns the current memory map.
	Regions() ([]MemoryRegion, error)

	// ReadMemory reads size bytes at addr. Implementations return
	// ErrAddressNotMapped for addresses outside any eligible region
	// and ErrPartialRead (possibly with a short slice) when the read
	// was cut off.
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)
}
