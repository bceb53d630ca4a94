package efficiency

import (
	"sort"

	"github.com/yourusername/hoopscore/internal/models"
)

// Melt turns each final game into two team perspective rows. Games without
// both scores are skipped. Rows come back ordered by date, game id, then
// home before away.
func Melt(games []models.Game) []models.TeamGameRow {
	rows := make([]models.TeamGameRow, 0, len(games)*2)
	for i := range games {
		g := &games[i]
		if !g.IsFinal() {
			continue
		}
		poss := GamePossessions(g.HomeBox, g.AwayBox)
		rows = append(rows,
			models.TeamGameRow{
				GameID:        g.ID,
				TeamID:        g.HomeTeamID,
				OpponentID:    g.AwayTeamID,
				Conference:    g.HomeConference,
				Season:        g.Season,
				Date:          g.Date,
				PointsFor:     *g.HomeScore,
				PointsAgainst: *g.AwayScore,
				Possessions:   poss,
				IsHome:        true,
				IsNeutral:     g.IsNeutral,
			},
			models.TeamGameRow{
				GameID:        g.ID,
				TeamID:        g.AwayTeamID,
				OpponentID:    g.HomeTeamID,
				Conference:    g.AwayConference,
				Season:        g.Season,
				Date:          g.Date,
				PointsFor:     *g.AwayScore,
				PointsAgainst: *g.HomeScore,
				Possessions:   poss,
				IsHome:        false,
				IsNeutral:     g.IsNeutral,
			},
		)
	}
	SortRows(rows)
	return rows
}

// SortRows orders rows chronologically with deterministic tie breaks.
func SortRows(rows []models.TeamGameRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.GameID != b.GameID {
			return a.GameID < b.GameID
		}
		return a.IsHome && !b.IsHome
	})
}

// GroupByTeamSeason splits rows into per team-season slices, each in
// chronological order.
func GroupByTeamSeason(rows []models.TeamGameRow) map[TeamSeason][]models.TeamGameRow {
	out := make(map[TeamSeason][]models.TeamGameRow)
	for _, r := range rows {
		key := TeamSeason{Team: r.TeamID, Season: r.Season}
		out[key] = append(out[key], r)
	}
	for key := range out {
		SortRows(out[key])
	}
	return out
}

// TeamSeason identifies one team's season.
type TeamSeason struct {
	Team   models.TeamID
	Season string
}
