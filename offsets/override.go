// Package offsets emits base-address overrides in the shape the
// editor's offsets loader consumes: each confirmed table base becomes
// an absolute direct-table entry with no final offset.
package offsets

import (
	"encoding/json"
	"fmt"
	"os"

	"tablefind/scan"
)

// Override is one base-address entry for the downstream offsets
// loader.
type Override struct {
	Address     scan.HexUint64 `json:"address"`
	Absolute    bool           `json:"absolute"`
	DirectTable bool           `json:"direct_table"`
	FinalOffset int64          `json:"finalOffset"`
}

// Section keys the loader expects, per table kind.
var sectionNames = map[scan.TableKind]string{
	scan.TablePlayer:  "Player",
	scan.TableTeam:    "Team",
	scan.TableStaff:   "Staff",
	scan.TableStadium: "Stadium",
}

// FromReport converts every non-null base in the report into an
// override entry. Inconclusive and skipped tables are simply absent.
func FromReport(rep *scan.Report) map[string]Override {
	out := make(map[string]Override)
	for kind, base := range rep.Bases {
		if base == nil || *base == 0 {
			continue
		}
		section, ok := sectionNames[kind]
		if !ok {
			continue
		}
		out[section] = Override{
			Address:     *base,
			Absolute:    true,
			DirectTable: true,
			FinalOffset: 0,
		}
	}
	return out
}

// WriteFile writes the overrides document to path.
func WriteFile(path string, overrides map[string]Override) error {
	data, err := json.MarshalIndent(overrides, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal overrides: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write overrides: %w", err)
	}
	return nil
}
