package scan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfigJSON = `{
  "process_name": "NBA2K26.exe",
  "tables": {
    "player": {
      "stride": 1176,
      "name_offsets": {"first": "0x10", "last": 56},
      "name_length": 20,
      "names": {
        "first": ["Tyrese"],
        "last": ["Maxey"]
      },
      "base_hint": "0x2AB4F600000"
    },
    "team": {
      "stride": 1048,
      "name_offsets": {"city": 8},
      "names": {"city": ["Boston"]}
    }
  }
}`

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfigJSON))
	require.NoError(t, err)

	assert.Equal(t, "NBA2K26.exe", cfg.ProcessName)
	assert.Equal(t, HexUint64(DefaultSearchWindow), cfg.SearchWindow)
	assert.Equal(t, DefaultMaxSteps, cfg.MaxSteps)

	player := cfg.Table(TablePlayer)
	require.NotNil(t, player)
	assert.Equal(t, "utf16", player.Encoding)
	assert.Equal(t, 151, player.MinVotes)
	assert.Equal(t, 3, player.MinNameMatches)
	assert.Equal(t, HexUint64(0x2AB4F600000), player.BaseHint)
	assert.Equal(t, HexUint64(0x10), player.NameOffsets["first"])
	assert.Equal(t, HexUint64(56), player.NameOffsets["last"])

	team := cfg.Table(TableTeam)
	require.NotNil(t, team)
	assert.Equal(t, 8, team.MinVotes)
	assert.Equal(t, 2, team.MinNameMatches)
}

func TestParseConfigRejectsUnknownTable(t *testing.T) {
	_, err := ParseConfig([]byte(`{"tables": {"mascot": {"stride": 8}}}`))
	assert.Error(t, err)
}

func TestParseConfigRejectsBadJSON(t *testing.T) {
	_, err := ParseConfig([]byte(`{`))
	assert.Error(t, err)
}

func TestTableConfigCheck(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*TableConfig)
	}{
		{"nil config", nil},
		{"zero stride", func(tc *TableConfig) { tc.Stride = 0 }},
		{"no offsets", func(tc *TableConfig) { tc.NameOffsets = nil }},
		{"role without names", func(tc *TableConfig) { delete(tc.Names, "last") }},
		{"offset outside record", func(tc *TableConfig) { tc.NameOffsets["first"] = 2000 }},
		{"bad encoding", func(tc *TableConfig) { tc.Encoding = "shiftjis" }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var tc *TableConfig
			if c.mutate != nil {
				tc = testTableConfig()
				c.mutate(tc)
			}
			assert.Error(t, tc.Check(TablePlayer))
		})
	}

	assert.NoError(t, testTableConfig().Check(TablePlayer))
}

func TestRoleCharsPrecedence(t *testing.T) {
	tc := testTableConfig()
	tc.NameLengths = map[string]int{"first": 16}

	assert.Equal(t, 16, tc.RoleChars("first"))
	assert.Equal(t, 20, tc.RoleChars("last")) // shared name_length

	// With no configured lengths the capacity is derived from the bytes
	// left in the record, two bytes per character for utf16.
	tc.NameLengths = nil
	tc.NameLength = 0
	assert.Equal(t, int(tc.Stride-0x38)/2, tc.RoleChars("last"))
}

func TestRoleBytes(t *testing.T) {
	tc := testTableConfig()
	assert.Equal(t, uint(40), uint(tc.RoleBytes("first")))

	tc.Encoding = "latin1"
	assert.Equal(t, uint(20), uint(tc.RoleBytes("first")))
}

func TestHexUint64Unmarshal(t *testing.T) {
	var doc struct {
		A HexUint64 `json:"a"`
		B HexUint64 `json:"b"`
		C HexUint64 `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a": "0x1A2B", "b": 1234, "c": "99"}`), &doc)
	require.NoError(t, err)
	assert.Equal(t, HexUint64(0x1A2B), doc.A)
	assert.Equal(t, HexUint64(1234), doc.B)
	assert.Equal(t, HexUint64(99), doc.C)

	var bad HexUint64
	assert.Error(t, json.Unmarshal([]byte(`"0xZZ"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`true`), &bad))
}

func TestHexUint64Marshal(t *testing.T) {
	out, err := json.Marshal(HexUint64(0x2AB4F600000))
	require.NoError(t, err)
	assert.Equal(t, `"0x2AB4F600000"`, string(out))
}
