package process_snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablefind/process"
)

func twoRegionSnapshot() *Snapshot {
	return New(1234, 0x140000000, []Region{
		{Base: 0x2000, Data: []byte{9, 8, 7, 6}, Committed: true, Readable: true},
		{Base: 0x1000, Data: []byte{1, 2, 3, 4}, Committed: true, Readable: true},
	})
}

func TestSnapshotRegionsSorted(t *testing.T) {
	snap := twoRegionSnapshot()

	regions, err := snap.Regions()
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, process.ProcessMemoryAddress(0x1000), regions[0].Base)
	assert.Equal(t, process.ProcessMemoryAddress(0x2000), regions[1].Base)

	assert.Equal(t, process.ProcessID(1234), snap.PID())
	assert.Equal(t, process.ProcessMemoryAddress(0x140000000), snap.ModuleBase())
}

func TestSnapshotReadMemory(t *testing.T) {
	snap := twoRegionSnapshot()

	data, err := snap.ReadMemory(0x1001, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, data)

	data, err = snap.ReadMemory(0x2000, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7, 6}, data)
}

func TestSnapshotReadPastCapturedEnd(t *testing.T) {
	snap := twoRegionSnapshot()

	data, err := snap.ReadMemory(0x1002, 8)
	require.ErrorIs(t, err, process.ErrPartialRead)
	assert.Equal(t, []byte{3, 4}, data)
}

func TestSnapshotReadUnmapped(t *testing.T) {
	snap := twoRegionSnapshot()

	_, err := snap.ReadMemory(0x5000, 4)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)
}

func TestSnapshotReadIneligibleRegion(t *testing.T) {
	snap := New(0, 0, []Region{
		{Base: 0x1000, Data: []byte{1, 2, 3, 4}, Committed: true, Readable: false},
	})

	_, err := snap.ReadMemory(0x1000, 2)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)
}

func TestSnapshotZeroSizeRead(t *testing.T) {
	snap := twoRegionSnapshot()

	data, err := snap.ReadMemory(0x1000, 0)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestCaptureLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	src := New(4321, 0x140000000, []Region{
		{Base: 0x1000, Data: []byte{1, 2, 3, 4}, Committed: true, Readable: true},
		{Base: 0x3000, Data: []byte{5, 6}, Committed: true, Readable: false},
	})
	require.NoError(t, Capture(src, dir))

	loaded, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, process.ProcessID(4321), loaded.PID())
	assert.Equal(t, process.ProcessMemoryAddress(0x140000000), loaded.ModuleBase())

	data, err := loaded.ReadMemory(0x1000, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)

	// The ineligible region survives in the map but stays unreadable.
	regions, err := loaded.Regions()
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.False(t, regions[1].Eligible())
	_, err = loaded.ReadMemory(0x3000, 2)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)
}
