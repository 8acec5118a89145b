package scan

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"tablefind/process"
)

// Defaults applied by Normalize. The player table is dense (thousands
// of records), so its vote threshold is far higher than the sparse
// tables', which instead lean on multiple independent name matches to
// suppress short-string false positives.
const (
	DefaultSearchWindow = 0x8000000
	DefaultMaxSteps     = 600
	DefaultTopK         = 5
)

var defaultMinVotes = map[TableKind]int{
	TablePlayer:  151,
	TableTeam:    8,
	TableStaff:   6,
	TableStadium: 4,
}

var defaultMinNameMatches = map[TableKind]int{
	TablePlayer:  3,
	TableTeam:    2,
	TableStaff:   2,
	TableStadium: 2,
}

// Config is the immutable per-session scan configuration, loaded from
// a single JSON document. No component mutates it after Normalize; it
// is shared read-only across all scan workers.
type Config struct {
	ProcessName  string                     `json:"process_name"`
	PID          int                        `json:"pid,omitempty"`
	ModuleBase   HexUint64                  `json:"module_base,omitempty"`
	SearchWindow HexUint64                  `json:"search_window,omitempty"`
	MaxSteps     int                        `json:"max_steps,omitempty"`
	Workers      int                        `json:"workers,omitempty"`
	Tables       map[TableKind]*TableConfig `json:"tables"`
}

// TableConfig describes one record table: its stride, where the name
// fields live inside a record, how they are encoded, and the curated
// name lists used for pattern matching. A zero stride means the table
// is unsupported and skipped.
type TableConfig struct {
	Stride         uint64               `json:"stride"`
	NameOffsets    map[string]HexUint64 `json:"name_offsets"`
	NameLength     int                  `json:"name_length,omitempty"`
	NameLengths    map[string]int       `json:"name_lengths,omitempty"`
	Encoding       string               `json:"encoding,omitempty"`
	Names          map[string][]string  `json:"names"`
	BaseHint       HexUint64            `json:"base_hint,omitempty"`
	PointerChains  []Chain              `json:"pointer_chains,omitempty"`
	MinVotes       int                  `json:"min_votes,omitempty"`
	MinNameMatches int                  `json:"min_name_matches,omitempty"`
}

// LoadConfig reads and normalizes a config document from disk.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(raw)
}

// ParseConfig parses and normalizes a config document.
func ParseConfig(raw []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for kind := range cfg.Tables {
		if !kind.Valid() {
			return nil, fmt.Errorf("parse config: unknown table kind %q", kind)
		}
	}
	cfg.Normalize()
	return &cfg, nil
}

// Normalize fills defaults. Called once at load time; the config is
// read-only afterwards.
func (c *Config) Normalize() {
	if c.SearchWindow == 0 {
		c.SearchWindow = DefaultSearchWindow
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.Tables == nil {
		c.Tables = map[TableKind]*TableConfig{}
	}
	for kind, tc := range c.Tables {
		if tc == nil {
			continue
		}
		if tc.Encoding == "" {
			tc.Encoding = "utf16"
		}
		if tc.MinVotes <= 0 {
			tc.MinVotes = defaultMinVotes[kind]
		}
		if tc.MinNameMatches <= 0 {
			tc.MinNameMatches = defaultMinNameMatches[kind]
		}
	}
}

// Table returns the config for kind, or nil.
func (c *Config) Table(kind TableKind) *TableConfig {
	if c.Tables == nil {
		return nil
	}
	return c.Tables[kind]
}

// ConfigIssue explains why a table's configuration is unusable.
type ConfigIssue struct {
	Table  TableKind
	Reason string
}

func (e ConfigIssue) Error() string {
	return fmt.Sprintf("table %s: %s", e.Table, e.Reason)
}

// Check reports whether the table config is complete enough to scan.
// Incomplete tables are marked SKIPPED_CONFIG by the session; they
// never block the others.
func (tc *TableConfig) Check(kind TableKind) error {
	if tc == nil {
		return ConfigIssue{Table: kind, Reason: "not configured"}
	}
	if tc.Stride == 0 {
		return ConfigIssue{Table: kind, Reason: "stride unset"}
	}
	if len(tc.NameOffsets) == 0 {
		return ConfigIssue{Table: kind, Reason: "no name offsets"}
	}
	for _, role := range tc.Roles() {
		if len(tc.Names[role]) == 0 {
			return ConfigIssue{Table: kind, Reason: fmt.Sprintf("no names for role %q", role)}
		}
		if uint64(tc.NameOffsets[role]) >= tc.Stride {
			return ConfigIssue{Table: kind, Reason: fmt.Sprintf("offset for role %q outside record", role)}
		}
	}
	if _, err := codecFor(tc.Encoding); err != nil {
		return ConfigIssue{Table: kind, Reason: err.Error()}
	}
	return nil
}

// Roles returns the offset-role names in deterministic order.
func (tc *TableConfig) Roles() []string {
	roles := make([]string, 0, len(tc.NameOffsets))
	for role := range tc.NameOffsets {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// RoleChars returns the name field capacity for role in characters:
// the per-role map wins over the shared length, and as a last resort
// the capacity is derived from the bytes remaining in the record after
// the role offset, the way the editor derives it from the stride.
func (tc *TableConfig) RoleChars(role string) int {
	if n, ok := tc.NameLengths[role]; ok && n > 0 {
		return n
	}
	if tc.NameLength > 0 {
		return tc.NameLength
	}
	codec, err := codecFor(tc.Encoding)
	if err != nil {
		return 0
	}
	off := uint64(tc.NameOffsets[role])
	if tc.Stride > off {
		return int(tc.Stride-off) / codec.bytesPerChar
	}
	return 0
}

// RoleBytes returns the byte length read for a role's name field.
func (tc *TableConfig) RoleBytes(role string) process.ProcessMemorySize {
	codec, err := codecFor(tc.Encoding)
	if err != nil {
		return 0
	}
	return process.ProcessMemorySize(tc.RoleChars(role) * codec.bytesPerChar)
}
