package scan

import (
	"encoding/json"
	"sort"

	"tablefind/process"
)

// Status is the per-table outcome of a scan session.
type Status string

const (
	StatusConfirmed     Status = "CONFIRMED"
	StatusInconclusive  Status = "INCONCLUSIVE"
	StatusFallbackHint  Status = "FALLBACK_HINT"
	StatusSkippedConfig Status = "SKIPPED_CONFIG"
)

// Report is the session output: the bases map consumed by the offsets
// loader, plus the diagnostic detail block.
type Report struct {
	Bases   map[TableKind]*HexUint64 `json:"bases"`
	Details ReportDetails            `json:"report"`
}

// ReportDetails carries everything a human needs to judge a scan.
type ReportDetails struct {
	PID            int                        `json:"pid"`
	ElapsedSec     float64                    `json:"elapsed_sec"`
	RegionsScanned int                        `json:"regions_scanned"`
	RegionsSkipped int                        `json:"regions_skipped"`
	ChunksFailed   int                        `json:"chunks_failed,omitempty"`
	RangesAborted  int                        `json:"ranges_aborted,omitempty"`
	Tables         map[TableKind]*TableReport `json:"tables"`
}

// TableReport is the per-table diagnostic block.
type TableReport struct {
	Status     Status            `json:"status"`
	Base       *HexUint64        `json:"base"`
	Hits       []HitReport       `json:"hits"`
	Candidates []CandidateReport `json:"candidates"`
	Reasons    []string          `json:"reasons,omitempty"`
}

// HitReport is one sample hit included for diagnostics.
type HitReport struct {
	Role    string    `json:"role"`
	Address HexUint64 `json:"address"`
	Name    string    `json:"name"`
}

// CandidateReport is one ranked candidate with its vote tally.
type CandidateReport struct {
	Address       HexUint64 `json:"address"`
	Votes         int       `json:"votes"`
	DistinctNames int       `json:"distinct_names"`
}

// MarshalIndent renders the report as the JSON document written to
// disk and consumed downstream.
func (r *Report) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

const (
	reportMaxHits       = 10
	reportMaxCandidates = 5
)

// hitReports selects the sample hits for one table. Workers finish in
// arbitrary order, so the hits are sorted before truncation to keep
// the diagnostic block identical across identical runs.
func hitReports(hits []Hit, table TableKind) []HitReport {
	matched := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.Table == table {
			matched = append(matched, h)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Role != matched[j].Role {
			return matched[i].Role < matched[j].Role
		}
		return matched[i].Address < matched[j].Address
	})
	if len(matched) > reportMaxHits {
		matched = matched[:reportMaxHits]
	}

	out := []HitReport{}
	for _, h := range matched {
		out = append(out, HitReport{
			Role:    h.Role,
			Address: HexUint64(h.Address),
			Name:    h.Name,
		})
	}
	return out
}

func candidateReports(cands []*Candidate) []CandidateReport {
	out := []CandidateReport{}
	for _, c := range cands {
		out = append(out, CandidateReport{
			Address:       HexUint64(c.Base),
			Votes:         c.Votes,
			DistinctNames: c.NameCount(),
		})
		if len(out) == reportMaxCandidates {
			break
		}
	}
	return out
}

func hexAddr(addr process.ProcessMemoryAddress) *HexUint64 {
	h := HexUint64(addr)
	return &h
}
