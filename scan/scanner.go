package scan

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"sync"

	"tablefind/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sync/errgroup"
)

// Hit is a confirmed pattern occurrence at a specific address.
// Produced by the region scanner, consumed by the voter, discarded
// with the session.
type Hit struct {
	Table   TableKind
	Role    string
	Address process.ProcessMemoryAddress
	Name    string
}

const scanChunkSize = 1 << 20

// scanStats counts what happened during one scanner pass.
type scanStats struct {
	ChunksFailed  int
	RangesAborted int
	RangesScanned int
}

var scanLog = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "region-scan"))

// scanRanges fans the planned ranges out over a bounded worker pool
// and collects every pattern occurrence. The Wait call is the barrier
// the voter depends on: voting never starts on a partial worker set.
// Cancellation stops scheduling further ranges; hits already collected
// are returned so the session can degrade gracefully.
func scanRanges(ctx context.Context, mem process.Memory, ranges []ScanRange, patterns []Pattern, workers int) ([]Hit, scanStats) {
	if len(ranges) == 0 || len(patterns) == 0 {
		return nil, scanStats{}
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	overlap := maxPatternLen(patterns) - 1
	if overlap < 0 {
		overlap = 0
	}

	scanLog.Infoln("Scanning", len(ranges), "ranges with", len(patterns), "patterns across", workers, "workers")

	var (
		mu    sync.Mutex
		hits  []Hit
		stats scanStats
	)

	var g errgroup.Group
	g.SetLimit(workers)

	for _, r := range ranges {
		if ctx.Err() != nil {
			stats.RangesAborted++
			continue
		}
		r := r
		g.Go(func() error {
			rangeHits, failed := scanOneRange(ctx, mem, r, patterns, overlap)
			mu.Lock()
			hits = append(hits, rangeHits...)
			stats.ChunksFailed += failed
			stats.RangesScanned++
			mu.Unlock()
			return nil
		})
	}

	// Fan-in barrier: all workers finish (or are cancelled) before the
	// hit set is handed to the voter.
	_ = g.Wait()

	scanLog.Infoln("Scan pass complete:", len(hits), "hits,", stats.ChunksFailed, "failed chunks,", stats.RangesAborted, "ranges aborted")
	return hits, stats
}

// scanOneRange reads a range in chunks and matches every pattern in
// each chunk. A failed chunk read skips only that chunk. Chunks extend
// into the next chunk by the overlap so boundary-straddling matches
// are found exactly once: matches starting inside the overlap belong
// to the next chunk.
func scanOneRange(ctx context.Context, mem process.Memory, r ScanRange, patterns []Pattern, overlap int) ([]Hit, int) {
	var hits []Hit
	failed := 0

	size := uint64(r.Size)
	for off := uint64(0); off < size; off += scanChunkSize {
		if ctx.Err() != nil {
			break
		}

		readLen := uint64(scanChunkSize + overlap)
		if off+readLen > size {
			readLen = size - off
		}

		data, err := mem.ReadMemory(r.Base+process.ProcessMemoryAddress(off), process.ProcessMemorySize(readLen))
		if err != nil && !errors.Is(err, process.ErrPartialRead) {
			scanLog.Debugln("Failed to read chunk at", (r.Base + process.ProcessMemoryAddress(off)).ToString(), err)
			failed++
			continue
		}
		if err != nil {
			// Partial read: search what came back, count the chunk.
			failed++
		}

		for _, p := range patterns {
			for pos := 0; ; {
				idx := bytes.Index(data[pos:], p.Bytes)
				if idx < 0 {
					break
				}
				start := pos + idx
				// Matches starting in the overlap are the next
				// chunk's responsibility.
				if uint64(start) < scanChunkSize || off+scanChunkSize >= size {
					hits = append(hits, Hit{
						Table:   p.Table,
						Role:    p.Role,
						Address: r.Base + process.ProcessMemoryAddress(off+uint64(start)),
						Name:    p.Name,
					})
				}
				pos = start + 1
			}
		}
	}

	return hits, failed
}

// dedupeHits drops duplicate (table, role, address) occurrences, which
// appear when a retry pass rescans a window that overlaps the first
// pass.
func dedupeHits(hits []Hit) []Hit {
	type key struct {
		table TableKind
		role  string
		addr  process.ProcessMemoryAddress
	}
	seen := make(map[key]bool, len(hits))
	out := hits[:0]
	for _, h := range hits {
		k := key{h.Table, h.Role, h.Address}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, h)
	}
	return out
}
