// Package scan implements the table discovery engine: it plans scan
// windows over a foreign process's memory, encodes known record names
// into byte patterns, scans eligible regions in parallel, votes base
// address candidates via stride back-stepping, validates the winners
// by sampling records, and aggregates everything into a report.
package scan

// TableKind identifies one of the four record tables the engine can
// locate. Tables are fully independent of each other.
type TableKind string

const (
	TablePlayer  TableKind = "player"
	TableTeam    TableKind = "team"
	TableStaff   TableKind = "staff"
	TableStadium TableKind = "stadium"
)

// AllTables lists every supported table kind in report order.
var AllTables = []TableKind{TablePlayer, TableTeam, TableStaff, TableStadium}

// Valid reports whether k names a supported table.
func (k TableKind) Valid() bool {
	switch k {
	case TablePlayer, TableTeam, TableStaff, TableStadium:
		return true
	}
	return false
}
