package process_snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"tablefind/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Dump directory layout: metadata.json plus one region_<base>.bin file
// per captured region. Regions too large to be worth capturing are
// skipped and counted.

const maxDumpRegionSize = 512 << 20

type dumpMetadata struct {
	PID        process.ProcessID `json:"pid"`
	ModuleBase uint64            `json:"module_base"`
	Regions    []dumpRegion      `json:"regions"`
}

type dumpRegion struct {
	Base      uint64 `json:"base"`
	Size      uint64 `json:"size"`
	Committed bool   `json:"committed"`
	Readable  bool   `json:"readable"`
	Guarded   bool   `json:"guarded"`
	File      string `json:"file,omitempty"`
}

var dumpLog = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "snapshot"))

// Capture reads every eligible region of mem and writes a dump into
// dirname. Regions that fail to read are recorded without contents so
// a later scan still knows the full map.
func Capture(mem process.Memory, dirname string) error {
	if err := os.MkdirAll(dirname, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	regions, err := mem.Regions()
	if err != nil {
		return fmt.Errorf("failed to enumerate regions: %w", err)
	}

	dumpLog.Infoln("Capturing snapshot of", len(regions), "regions to", dirname)

	meta := dumpMetadata{
		PID:        mem.PID(),
		ModuleBase: uint64(mem.ModuleBase()),
	}

	saved := 0
	skipped := 0
	for _, r := range regions {
		dr := dumpRegion{
			Base:      uint64(r.Base),
			Size:      uint64(r.Size),
			Committed: r.Committed,
			Readable:  r.Readable,
			Guarded:   r.Guarded,
		}

		if !r.Eligible() || r.Size > maxDumpRegionSize {
			skipped++
			meta.Regions = append(meta.Regions, dr)
			continue
		}

		data, err := mem.ReadMemory(r.Base, r.Size)
		if err != nil && len(data) == 0 {
			dumpLog.Debugln("Failed to read region at", r.Base.ToString(), err)
			skipped++
			meta.Regions = append(meta.Regions, dr)
			continue
		}

		dr.File = fmt.Sprintf("region_%x.bin", uint64(r.Base))
		dr.Size = uint64(len(data))
		if err := os.WriteFile(filepath.Join(dirname, dr.File), data, 0644); err != nil {
			return fmt.Errorf("failed to write region file: %w", err)
		}
		meta.Regions = append(meta.Regions, dr)
		saved++
	}

	metadataJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, "metadata.json"), metadataJSON, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	dumpLog.Infoln("Snapshot captured:", saved, "regions saved,", skipped, "skipped")
	return nil
}

// Load reads a dump directory produced by Capture.
func Load(dirname string) (*Snapshot, error) {
	raw, err := os.ReadFile(filepath.Join(dirname, "metadata.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta dumpMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	var regions []Region
	for _, dr := range meta.Regions {
		r := Region{
			Base:      process.ProcessMemoryAddress(dr.Base),
			Committed: dr.Committed,
			Readable:  dr.Readable,
			Guarded:   dr.Guarded,
		}
		if dr.File != "" {
			data, err := os.ReadFile(filepath.Join(dirname, dr.File))
			if err != nil {
				return nil, fmt.Errorf("failed to read region file %s: %w", dr.File, err)
			}
			r.Data = data
		} else {
			// Known but uncaptured region: keep it in the map as
			// unreadable so the planner counts it skipped.
			r.Readable = false
			r.Data = make([]byte, 0)
		}
		regions = append(regions, r)
	}

	dumpLog.Infoln("Snapshot loaded:", len(regions), "regions from", dirname)
	return New(meta.PID, process.ProcessMemoryAddress(meta.ModuleBase), regions), nil
}
