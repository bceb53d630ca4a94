// Package efficiency converts scoring into per-100-possession rates and
// adjusts them for opponent strength.
package efficiency

import (
	"github.com/yourusername/hoopscore/internal/models"
)

// LeagueAveragePossessions is used when no box score is available.
const LeagueAveragePossessions = 65.0

// possessionConstant is added to the fga - orb + to estimate.
const possessionConstant = 0.4

// EstimatePossessions estimates a team's possessions in a game. Without a box
// score it returns the league-average constant. It never returns a
// non-positive value.
func EstimatePossessions(box *models.BoxScore) float64 {
	if box == nil {
		return LeagueAveragePossessions
	}
	poss := float64(box.FGA-box.ORB+box.TO) + possessionConstant
	if poss <= 0 {
		return LeagueAveragePossessions
	}
	return poss
}

// GamePossessions estimates the shared possession count of a game, averaging
// the two teams' estimates when both box scores are present.
func GamePossessions(home, away *models.BoxScore) float64 {
	switch {
	case home != nil && away != nil:
		return (EstimatePossessions(home) + EstimatePossessions(away)) / 2
	case home != nil:
		return EstimatePossessions(home)
	case away != nil:
		return EstimatePossessions(away)
	default:
		return LeagueAveragePossessions
	}
}

// RawEfficiency returns points per 100 possessions, or 0 when possessions is
// not positive.
func RawEfficiency(points, possessions float64) float64 {
	if possessions <= 0 {
		return 0
	}
	return points / possessions * 100
}

// PointsFromEfficiency inverts RawEfficiency.
func PointsFromEfficiency(efficiency, possessions float64) float64 {
	return efficiency * possessions / 100
}

// RowEfficiency returns the raw offensive and defensive efficiency of one row.
func RowEfficiency(row *models.TeamGameRow) (off, def float64) {
	off = RawEfficiency(float64(row.PointsFor), row.Possessions)
	def = RawEfficiency(float64(row.PointsAgainst), row.Possessions)
	return off, def
}

// AdjustedRow returns the opponent-adjusted offensive and defensive
// efficiency of one row. Unknown opponents resolve to the table's league
// average.
func AdjustedRow(row *models.TeamGameRow, opponents *models.EfficiencyTable) (adjOff, adjDef float64) {
	off, def := RowEfficiency(row)
	opp := opponents.Get(row.OpponentID)
	return off - opp.DefEff, def - opp.OffEff
}

// AdjustRaw applies the opponent adjustment to already computed raw values.
func AdjustRaw(rawOff, rawDef float64, opp models.EfficiencyRecord) (adjOff, adjDef float64) {
	return rawOff - opp.DefEff, rawDef - opp.OffEff
}

// OpponentAdjusted averages the adjusted efficiencies over rows. An empty
// input returns zeros.
func OpponentAdjusted(rows []models.TeamGameRow, opponents *models.EfficiencyTable) (adjOff, adjDef float64) {
	if len(rows) == 0 {
		return 0, 0
	}
	var sumOff, sumDef float64
	for i := range rows {
		o, d := AdjustedRow(&rows[i], opponents)
		sumOff += o
		sumDef += d
	}
	n := float64(len(rows))
	return sumOff / n, sumDef / n
}

// SeasonAggregates computes each team's season efficiency from all of its
// rows in one pass. The table's league default is the pooled efficiency of
// every row in the input.
func SeasonAggregates(rows []models.TeamGameRow) *models.EfficiencyTable {
	type acc struct {
		pf, pa, poss float64
		games        int
	}
	byTeam := make(map[models.TeamID]*acc)
	var leaguePts, leaguePoss float64

	for i := range rows {
		r := &rows[i]
		a := byTeam[r.TeamID]
		if a == nil {
			a = &acc{}
			byTeam[r.TeamID] = a
		}
		a.pf += float64(r.PointsFor)
		a.pa += float64(r.PointsAgainst)
		a.poss += r.Possessions
		a.games++
		leaguePts += float64(r.PointsFor)
		leaguePoss += r.Possessions
	}

	table := models.NewEfficiencyTable()
	if leaguePoss > 0 {
		avg := RawEfficiency(leaguePts, leaguePoss)
		table.League = models.EfficiencyRecord{OffEff: avg, DefEff: avg}
	}
	for team, a := range byTeam {
		table.Set(team, models.EfficiencyRecord{
			OffEff: RawEfficiency(a.pf, a.poss),
			DefEff: RawEfficiency(a.pa, a.poss),
			Games:  a.games,
		})
	}
	return table
}

// BySeason splits rows by season and aggregates each season separately.
func BySeason(rows []models.TeamGameRow) map[string]*models.EfficiencyTable {
	grouped := make(map[string][]models.TeamGameRow)
	for _, r := range rows {
		grouped[r.Season] = append(grouped[r.Season], r)
	}
	out := make(map[string]*models.EfficiencyTable, len(grouped))
	for season, seasonRows := range grouped {
		out[season] = SeasonAggregates(seasonRows)
	}
	return out
}
