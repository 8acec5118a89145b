package scan

import (
	"context"
	"time"

	"tablefind/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Session runs one scan: plan, encode, scan, vote, validate,
// aggregate. The config is immutable for the session's lifetime; all
// intermediate state (hits, candidates, validation results) is
// discarded once the report is built. A session always produces a
// complete report — failures surface as per-table statuses, never as
// an aborted run.
type Session struct {
	cfg *Config
	mem process.Memory
	log *logger.Logger
}

// NewSession binds a normalized config to a memory view.
func NewSession(cfg *Config, mem process.Memory) *Session {
	return &Session{
		cfg: cfg,
		mem: mem,
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "scan-session")),
	}
}

// Run executes the session. Cancelling ctx aborts unscanned regions;
// voting and validation proceed with whatever was collected, so a
// timed-out session degrades to INCONCLUSIVE or FALLBACK_HINT instead
// of failing.
func (s *Session) Run(ctx context.Context) *Report {
	start := time.Now()

	report := &Report{
		Bases: make(map[TableKind]*HexUint64),
		Details: ReportDetails{
			PID:    int(s.mem.PID()),
			Tables: make(map[TableKind]*TableReport),
		},
	}

	patterns, encSkipped := EncodePatterns(s.cfg)
	if encSkipped > 0 {
		s.log.Warn("Skipped ", encSkipped, " unencodable name list entries")
	}

	regions, err := s.mem.Regions()
	if err != nil {
		s.log.Warn("Failed to enumerate regions: ", err)
		regions = nil
	}

	moduleBase := process.ProcessMemoryAddress(s.cfg.ModuleBase)
	if moduleBase == 0 {
		moduleBase = s.mem.ModuleBase()
	}

	// Per-table hints: an explicit previous base wins, then the first
	// pointer chain that resolves.
	hints := make(map[TableKind]process.ProcessMemoryAddress)
	active := make([]TableKind, 0, len(AllTables))
	for _, kind := range AllTables {
		tc := s.cfg.Table(kind)
		if err := tc.Check(kind); err != nil {
			s.log.Infoln("Table", string(kind), "skipped:", err)
			report.Details.Tables[kind] = &TableReport{
				Status:     StatusSkippedConfig,
				Hits:       []HitReport{},
				Candidates: []CandidateReport{},
				Reasons:    []string{err.Error()},
			}
			report.Bases[kind] = nil
			continue
		}
		active = append(active, kind)
		hints[kind] = s.resolveHint(kind, tc)
	}

	// Pass 1: hinted windows where available, sweep otherwise.
	allHits, details := s.scanPass(ctx, active, patterns, regions, moduleBase, hints, false)
	report.Details.RegionsScanned = details.scanned
	report.Details.RegionsSkipped = details.skipped
	report.Details.ChunksFailed = details.stats.ChunksFailed
	report.Details.RangesAborted = details.stats.RangesAborted

	// Retry pass: tables whose hinted windows produced nothing get the
	// full high sweep before any hint fallback is considered.
	var retry []TableKind
	for _, kind := range active {
		if countHits(allHits, kind) == 0 && (moduleBase != 0 || hints[kind] != 0) {
			retry = append(retry, kind)
		}
	}
	if len(retry) > 0 && ctx.Err() == nil {
		s.log.Infoln("Retrying", len(retry), "tables with full sweep windows")
		retryHits, retryDetails := s.scanPass(ctx, retry, patterns, regions, moduleBase, hints, true)
		allHits = dedupeHits(append(allHits, retryHits...))
		report.Details.RegionsScanned += retryDetails.scanned
		report.Details.RegionsSkipped += retryDetails.skipped
		report.Details.ChunksFailed += retryDetails.stats.ChunksFailed
		report.Details.RangesAborted += retryDetails.stats.RangesAborted
	}

	// Vote, validate, aggregate. Tables never affect each other.
	for _, kind := range active {
		tc := s.cfg.Table(kind)
		tableHits := filterHits(allHits, kind)

		tr := &TableReport{
			Hits:       hitReports(tableHits, kind),
			Candidates: []CandidateReport{},
		}
		report.Details.Tables[kind] = tr

		if len(tableHits) == 0 {
			if hints[kind] != 0 {
				tr.Status = StatusFallbackHint
				tr.Base = hexAddr(hints[kind])
				report.Bases[kind] = tr.Base
				s.log.Infoln("Table", string(kind), "zero hits, falling back to hint", hints[kind].ToString())
			} else {
				tr.Status = StatusInconclusive
				report.Bases[kind] = nil
				s.log.Infoln("Table", string(kind), "zero hits, inconclusive")
			}
			continue
		}

		candidates := voteCandidates(kind, tc, tableHits, s.cfg.MaxSteps)
		tr.Candidates = candidateReports(candidates)

		chosen := s.pickValidated(kind, tc, candidates)
		if chosen != nil {
			tr.Status = StatusConfirmed
			tr.Base = hexAddr(chosen.Base)
			report.Bases[kind] = tr.Base
			s.log.Infoln("Table", string(kind), "confirmed at", chosen.Base.ToString(), "with", chosen.Votes, "votes")
		} else {
			tr.Status = StatusInconclusive
			report.Bases[kind] = nil
			tr.Reasons = append(tr.Reasons, "no candidate passed validation")
			s.log.Infoln("Table", string(kind), "inconclusive:", len(candidates), "candidates, none validated")
		}
	}

	report.Details.ElapsedSec = time.Since(start).Seconds()
	s.log.Infoln("Session complete in", report.Details.ElapsedSec, "seconds")
	return report
}

// resolveHint picks the previous-base hint for a table: the explicit
// base_hint if set, otherwise the first pointer chain that resolves.
func (s *Session) resolveHint(kind TableKind, tc *TableConfig) process.ProcessMemoryAddress {
	if tc.BaseHint != 0 {
		return process.ProcessMemoryAddress(tc.BaseHint)
	}
	for _, chain := range tc.PointerChains {
		addr, err := chain.Resolve(s.mem)
		if err != nil {
			s.log.Debugln("Table", string(kind), "pointer chain failed:", err)
			continue
		}
		if addr != 0 {
			s.log.Debugln("Table", string(kind), "hint from pointer chain:", addr.ToString())
			return addr
		}
	}
	return 0
}

type passDetails struct {
	scanned int
	skipped int
	stats   scanStats
}

// scanPass plans windows for the given tables, intersects them with
// the eligible regions, and runs the scanner over the union. Patterns
// stay tagged per table, so scanning a merged window set never
// cross-attributes a match.
func (s *Session) scanPass(ctx context.Context, tables []TableKind, patterns []Pattern,
	regions []process.MemoryRegion, moduleBase process.ProcessMemoryAddress,
	hints map[TableKind]process.ProcessMemoryAddress, forceSweep bool) ([]Hit, passDetails) {

	var windows []Window
	for _, kind := range tables {
		windows = append(windows, planWindows(moduleBase, hints[kind], s.cfg.SearchWindow, forceSweep)...)
	}
	windows = mergeWindows(windows)

	ranges, scanned, skipped := intersectRegions(windows, regions)

	tableSet := make(map[TableKind]bool, len(tables))
	for _, kind := range tables {
		tableSet[kind] = true
	}
	passPatterns := patterns[:0:0]
	for _, p := range patterns {
		if tableSet[p.Table] {
			passPatterns = append(passPatterns, p)
		}
	}

	hits, stats := scanRanges(ctx, s.mem, ranges, passPatterns, s.cfg.Workers)
	return hits, passDetails{scanned: scanned, skipped: skipped, stats: stats}
}

// pickValidated validates ranked candidates and returns the first
// accepted one. Back-stepping gives every base below the true one (up
// to max_steps strides down) the same vote count, so the top-vote tie
// tier is a plateau whose upper address edge is the true base. The
// tier is therefore walked from its highest address downward; bases
// further down the plateau can also pass sampling when enough sample
// indexes still land inside the table, so order matters. Candidates
// past the tie tier are taken in rank order up to the usual top K.
func (s *Session) pickValidated(kind TableKind, tc *TableConfig, candidates []*Candidate) *Candidate {
	if len(candidates) == 0 {
		return nil
	}

	tier := 1
	for tier < len(candidates) && candidates[tier].Votes == candidates[0].Votes {
		tier++
	}

	order := make([]*Candidate, 0, tier+DefaultTopK)
	for i := tier - 1; i >= 0; i-- {
		order = append(order, candidates[i])
	}
	for i := tier; i < len(candidates) && i < DefaultTopK; i++ {
		order = append(order, candidates[i])
	}

	for _, cand := range order {
		result := validateCandidate(s.mem, tc, cand)
		if result.Accepted {
			return cand
		}
		s.log.Debugln("Table", string(kind), "candidate", cand.Base.ToString(), "rejected:", result.Reasons)
	}
	return nil
}

func countHits(hits []Hit, table TableKind) int {
	n := 0
	for _, h := range hits {
		if h.Table == table {
			n++
		}
	}
	return n
}

func filterHits(hits []Hit, table TableKind) []Hit {
	var out []Hit
	for _, h := range hits {
		if h.Table == table {
			out = append(out, h)
		}
	}
	return out
}
