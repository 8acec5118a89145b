package scan

import (
	"sort"

	"tablefind/process"
)

// Candidate is a hypothesized table base derived from hits via stride
// back-stepping. Votes counts contributing hits; Names tracks the
// distinct source names behind them for the diversity tie-break.
type Candidate struct {
	Table TableKind
	Base  process.ProcessMemoryAddress
	Votes int
	Names map[string]struct{}
}

// NameCount returns the number of distinct contributing names.
func (c *Candidate) NameCount() int {
	return len(c.Names)
}

// voteCandidates turns hits into ranked base candidates for one table.
// For each hit, the record address is the hit address minus the role's
// byte offset, and every base_i = record − i·stride for i in
// [0, maxSteps) receives one vote. The redundancy is the point: the
// true base collects votes from every genuine record found anywhere in
// the windows, while spurious bases only coincide.
func voteCandidates(table TableKind, tc *TableConfig, hits []Hit, maxSteps int) []*Candidate {
	stride := process.ProcessMemoryAddress(tc.Stride)
	byBase := make(map[process.ProcessMemoryAddress]*Candidate)

	for _, h := range hits {
		if h.Table != table {
			continue
		}
		roleOff, ok := tc.NameOffsets[h.Role]
		if !ok {
			// A pattern tagged for an unrelated role never votes here.
			continue
		}
		if h.Address < process.ProcessMemoryAddress(roleOff) {
			continue
		}
		rec := h.Address - process.ProcessMemoryAddress(roleOff)

		for i := 0; i < maxSteps; i++ {
			step := process.ProcessMemoryAddress(i) * stride
			if step > rec {
				break
			}
			base := rec - step
			cand := byBase[base]
			if cand == nil {
				cand = &Candidate{
					Table: table,
					Base:  base,
					Names: make(map[string]struct{}),
				}
				byBase[base] = cand
			}
			cand.Votes++
			cand.Names[h.Name] = struct{}{}
		}
	}

	ranked := make([]*Candidate, 0, len(byBase))
	for _, c := range byBase {
		ranked = append(ranked, c)
	}
	rankCandidates(ranked)
	return ranked
}

// rankCandidates orders by votes descending, then smaller address,
// then greater name diversity.
func rankCandidates(cands []*Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Votes != cands[j].Votes {
			return cands[i].Votes > cands[j].Votes
		}
		if cands[i].Base != cands[j].Base {
			return cands[i].Base < cands[j].Base
		}
		return cands[i].NameCount() > cands[j].NameCount()
	})
}
