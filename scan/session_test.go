package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablefind/process"
	"tablefind/process_snapshot"
)

func sessionConfig(tables map[TableKind]*TableConfig) *Config {
	cfg := &Config{Workers: 2, Tables: tables}
	cfg.Normalize()
	return cfg
}

func testTeamConfig() *TableConfig {
	return &TableConfig{
		Stride: 1048,
		NameOffsets: map[string]HexUint64{
			"city": 0x8,
			"name": 0x48,
		},
		NameLength: 20,
		Encoding:   "utf16",
		Names: map[string][]string{
			"city": {"Boston", "Denver"},
			"name": {"Celtics", "Nuggets"},
		},
	}
}

func buildTeamTable(count int, city, name string) []byte {
	buf := make([]byte, count*1048)
	for i := 0; i < count; i++ {
		copy(buf[i*1048+0x8:], utf16LE(city))
		copy(buf[i*1048+0x48:], utf16LE(name))
	}
	return buf
}

func TestSessionConfirmsDenseTableWithoutHints(t *testing.T) {
	snap := process_snapshot.NewBuffer(testBase, buildPlayerTable(200, "Tyrese", "Maxey"))
	cfg := sessionConfig(map[TableKind]*TableConfig{TablePlayer: testTableConfig()})

	report := NewSession(cfg, snap).Run(context.Background())

	tr := report.Details.Tables[TablePlayer]
	require.NotNil(t, tr)
	assert.Equal(t, StatusConfirmed, tr.Status)
	require.NotNil(t, report.Bases[TablePlayer])
	assert.Equal(t, uint64(testBase), uint64(*report.Bases[TablePlayer]))

	// 200 records x 2 roles, every hit back-steps over the base.
	require.NotEmpty(t, tr.Candidates)
	assert.GreaterOrEqual(t, tr.Candidates[0].Votes, 200)
	assert.NotEmpty(t, tr.Hits)
	assert.Greater(t, report.Details.RegionsScanned, 0)
}

func TestSessionFindsTableMovedAwayFromStaleHint(t *testing.T) {
	// The table moved one stride up since the hint was recorded.
	newBase := testBase + process.ProcessMemoryAddress(testStride)
	snap := process_snapshot.NewBuffer(newBase, buildPlayerTable(200, "Tyrese", "Maxey"))

	tc := testTableConfig()
	tc.BaseHint = HexUint64(testBase)
	cfg := sessionConfig(map[TableKind]*TableConfig{TablePlayer: tc})

	report := NewSession(cfg, snap).Run(context.Background())

	tr := report.Details.Tables[TablePlayer]
	assert.Equal(t, StatusConfirmed, tr.Status)
	require.NotNil(t, report.Bases[TablePlayer])
	assert.Equal(t, uint64(newBase), uint64(*report.Bases[TablePlayer]))
}

func TestSessionInconclusiveWhenNoNamesPresent(t *testing.T) {
	snap := process_snapshot.NewBuffer(testBase, make([]byte, 200*testStride))
	cfg := sessionConfig(map[TableKind]*TableConfig{TablePlayer: testTableConfig()})

	report := NewSession(cfg, snap).Run(context.Background())

	tr := report.Details.Tables[TablePlayer]
	assert.Equal(t, StatusInconclusive, tr.Status)
	assert.Nil(t, report.Bases[TablePlayer])
	assert.Empty(t, tr.Hits)
}

func TestSessionFallsBackToHintOnZeroHits(t *testing.T) {
	snap := process_snapshot.NewBuffer(testBase, make([]byte, 200*testStride))

	tc := testTableConfig()
	tc.BaseHint = 0x12345000
	cfg := sessionConfig(map[TableKind]*TableConfig{TablePlayer: tc})

	report := NewSession(cfg, snap).Run(context.Background())

	tr := report.Details.Tables[TablePlayer]
	assert.Equal(t, StatusFallbackHint, tr.Status)
	require.NotNil(t, report.Bases[TablePlayer])
	assert.Equal(t, uint64(0x12345000), uint64(*report.Bases[TablePlayer]))
}

func TestSessionFallsBackToPointerChainHint(t *testing.T) {
	snap := process_snapshot.NewBuffer(testBase, make([]byte, 200*testStride))

	tc := testTableConfig()
	tc.PointerChains = []Chain{
		{Address: 0x13000000, Absolute: true, DirectTable: true},
	}
	cfg := sessionConfig(map[TableKind]*TableConfig{TablePlayer: tc})

	report := NewSession(cfg, snap).Run(context.Background())

	tr := report.Details.Tables[TablePlayer]
	assert.Equal(t, StatusFallbackHint, tr.Status)
	require.NotNil(t, report.Bases[TablePlayer])
	assert.Equal(t, uint64(0x13000000), uint64(*report.Bases[TablePlayer]))
}

func TestSessionRetryPassCountsScannedRegions(t *testing.T) {
	// The only region lies outside the hinted window, so nothing is
	// scanned until the sweep retry reaches it.
	snap := process_snapshot.NewBuffer(0x40000000, make([]byte, 0x1000))

	tc := testTableConfig()
	tc.BaseHint = 0x12345000
	cfg := sessionConfig(map[TableKind]*TableConfig{TablePlayer: tc})

	report := NewSession(cfg, snap).Run(context.Background())

	assert.Equal(t, StatusFallbackHint, report.Details.Tables[TablePlayer].Status)
	assert.Equal(t, 1, report.Details.RegionsScanned)
	assert.Equal(t, 1, report.Details.RegionsSkipped)
}

func TestSessionConfirmsSparseTableOverDecoyHit(t *testing.T) {
	teamBase := process.ProcessMemoryAddress(0x20000000)
	decoy := make([]byte, 0x100)
	copy(decoy[0x8:], utf16LE("Boston"))

	snap := process_snapshot.New(0, 0, []process_snapshot.Region{
		{Base: teamBase, Data: buildTeamTable(10, "Boston", "Celtics"), Committed: true, Readable: true},
		{Base: 0x30000000, Data: decoy, Committed: true, Readable: true},
	})
	cfg := sessionConfig(map[TableKind]*TableConfig{TableTeam: testTeamConfig()})

	report := NewSession(cfg, snap).Run(context.Background())

	tr := report.Details.Tables[TableTeam]
	assert.Equal(t, StatusConfirmed, tr.Status)
	require.NotNil(t, report.Bases[TableTeam])
	assert.Equal(t, uint64(teamBase), uint64(*report.Bases[TableTeam]))

	// The lone decoy occurrence never outvotes the real table.
	require.NotEmpty(t, tr.Candidates)
	assert.GreaterOrEqual(t, tr.Candidates[0].Votes, 8)
}

func TestSessionSkipsUnconfiguredTablesIndependently(t *testing.T) {
	snap := process_snapshot.NewBuffer(testBase, buildPlayerTable(200, "Tyrese", "Maxey"))

	cfg := sessionConfig(map[TableKind]*TableConfig{
		TablePlayer: testTableConfig(),
		TableStaff:  {Stride: 0}, // incomplete on purpose
	})

	report := NewSession(cfg, snap).Run(context.Background())

	assert.Equal(t, StatusConfirmed, report.Details.Tables[TablePlayer].Status)
	for _, kind := range []TableKind{TableTeam, TableStaff, TableStadium} {
		tr := report.Details.Tables[kind]
		require.NotNil(t, tr, "table %s missing from report", kind)
		assert.Equal(t, StatusSkippedConfig, tr.Status)
		assert.Nil(t, report.Bases[kind])
		assert.NotEmpty(t, tr.Reasons)
	}
}

func TestSessionDegradesGracefullyWhenCancelled(t *testing.T) {
	snap := process_snapshot.NewBuffer(testBase, buildPlayerTable(200, "Tyrese", "Maxey"))
	cfg := sessionConfig(map[TableKind]*TableConfig{TablePlayer: testTableConfig()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := NewSession(cfg, snap).Run(ctx)

	// The report is still complete; the unscanned table just fails to
	// confirm.
	tr := report.Details.Tables[TablePlayer]
	require.NotNil(t, tr)
	assert.Equal(t, StatusInconclusive, tr.Status)
	assert.Nil(t, report.Bases[TablePlayer])
	assert.Greater(t, report.Details.RangesAborted, 0)
}

func TestSessionIsDeterministic(t *testing.T) {
	snap := process_snapshot.NewBuffer(testBase, buildPlayerTable(200, "Tyrese", "Maxey"))
	cfg := sessionConfig(map[TableKind]*TableConfig{TablePlayer: testTableConfig()})

	first := NewSession(cfg, snap).Run(context.Background())
	second := NewSession(cfg, snap).Run(context.Background())

	assert.Equal(t, first.Bases, second.Bases)
	for kind, tr := range first.Details.Tables {
		assert.Equal(t, tr.Status, second.Details.Tables[kind].Status)
		assert.Equal(t, tr.Candidates, second.Details.Tables[kind].Candidates)
		assert.Equal(t, tr.Hits, second.Details.Tables[kind].Hits)
	}
}
