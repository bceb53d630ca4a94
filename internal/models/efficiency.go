package models

// LeagueAverageEfficiency is the points-per-100-possessions reference used
// when nothing better is known.
const LeagueAverageEfficiency = 100.0

// EfficiencyRecord is a season-aggregate offensive and defensive efficiency.
type EfficiencyRecord struct {
	OffEff float64 `db:"off_eff" json:"off_eff"`
	DefEff float64 `db:"def_eff" json:"def_eff"`
	Games  int     `db:"games" json:"games"`
}

// EfficiencyTable maps teams to their season-aggregate efficiency. Lookups for
// unknown teams return the table's league average.
type EfficiencyTable struct {
	Records map[TeamID]EfficiencyRecord
	League  EfficiencyRecord
}

// NewEfficiencyTable returns an empty table whose default is the fixed league average.
func NewEfficiencyTable() *EfficiencyTable {
	return &EfficiencyTable{
		Records: make(map[TeamID]EfficiencyRecord),
		League:  EfficiencyRecord{OffEff: LeagueAverageEfficiency, DefEff: LeagueAverageEfficiency},
	}
}

// Get returns the record for team, or the league average when team is unknown.
func (t *EfficiencyTable) Get(team TeamID) EfficiencyRecord {
	if t == nil {
		return EfficiencyRecord{OffEff: LeagueAverageEfficiency, DefEff: LeagueAverageEfficiency}
	}
	if rec, ok := t.Records[team]; ok {
		return rec
	}
	return t.League
}

// Has reports whether team has an explicit record.
func (t *EfficiencyTable) Has(team TeamID) bool {
	if t == nil {
		return false
	}
	_, ok := t.Records[team]
	return ok
}

// Set stores the record for team.
func (t *EfficiencyTable) Set(team TeamID, rec EfficiencyRecord) {
	t.Records[team] = rec
}

// Len returns the number of explicit records.
func (t *EfficiencyTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}
