package features

import (
	"math"
	"time"

	"github.com/yourusername/hoopscore/internal/efficiency"
	"github.com/yourusername/hoopscore/internal/models"
	"github.com/yourusername/hoopscore/internal/ratings"
)

// snapshot computes a team's vector from its own games before asOf, with no
// fallback applied.
func (d *dataset) snapshot(team models.TeamID, season string, asOf time.Time) models.FeatureVector {
	return d.snapshotMemo.get(snapshotKey(team, season, asOf), func() models.FeatureVector {
		return d.computeSnapshot(team, season, asOf)
	})
}

func (d *dataset) computeSnapshot(team models.TeamID, season string, asOf time.Time) models.FeatureVector {
	prior := priorRows(d.groups[efficiency.TeamSeason{Team: team, Season: season}], asOf)

	v := models.LeagueDefaults(team, season, asOf)
	v.Conference = d.conferenceOf(team)
	v.GamesPlayed = len(prior)
	v.RestDays = d.restDays(prior, asOf)
	if len(prior) == 0 {
		return v
	}

	table := d.opponentTable(season, asOf)
	adjOff := make([]float64, len(prior))
	adjDef := make([]float64, len(prior))
	for i := range prior {
		adjOff[i], adjDef[i] = efficiency.AdjustedRow(&prior[i], table)
	}

	short := tailLen(len(prior), d.config.ShortWindow)
	long := tailLen(len(prior), d.config.LongWindow)

	v.WinPctShort = winPct(prior[len(prior)-short:])
	v.WinPctLong = winPct(prior[len(prior)-long:])
	v.PointDiffShort = meanDiff(prior[len(prior)-short:])
	v.PointDiffLong = meanDiff(prior[len(prior)-long:])
	v.AdjOffShort = mean(adjOff[len(adjOff)-short:])
	v.AdjOffLong = mean(adjOff[len(adjOff)-long:])
	v.AdjDefShort = mean(adjDef[len(adjDef)-short:])
	v.AdjDefLong = mean(adjDef[len(adjDef)-long:])
	v.Momentum = v.WinPctShort - v.WinPctLong

	var home, away []models.TeamGameRow
	for i := range prior {
		switch prior[i].Venue() {
		case models.VenueHome:
			home = append(home, prior[i])
		case models.VenueAway:
			away = append(away, prior[i])
		}
	}
	if len(home) > 0 {
		v.HomeWinPct = winPct(home)
		v.HomePointDiff = meanDiff(home)
	}
	if len(away) > 0 {
		v.AwayWinPct = winPct(away)
		v.AwayPointDiff = meanDiff(away)
	}

	rated := d.ratingsAsOf(season, asOf)
	v.PowerRating = rated.Get(team).NetRating
	sos := ratings.StrengthOfSchedule(prior, rated, d.config.Ratings)
	v.SOS = sos.AvgOpponentNet
	v.QualityWins = float64(sos.QualityWins)
	v.BadLosses = float64(sos.BadLosses)
	return v
}

// restDays is the number of days since the previous game, capped. A season
// opener gets the default.
func (d *dataset) restDays(prior []models.TeamGameRow, asOf time.Time) float64 {
	if len(prior) == 0 {
		return float64(d.config.RestDefaultDays)
	}
	days := models.DaysBetween(prior[len(prior)-1].Date, asOf)
	return math.Max(0, math.Min(float64(days), float64(d.config.RestCapDays)))
}

func tailLen(n, window int) int {
	if window <= 0 || window > n {
		return n
	}
	return window
}

func winPct(rows []models.TeamGameRow) float64 {
	if len(rows) == 0 {
		return models.DefaultWinPct
	}
	wins := 0
	for i := range rows {
		if rows[i].Won() {
			wins++
		}
	}
	return float64(wins) / float64(len(rows))
}

func meanDiff(rows []models.TeamGameRow) float64 {
	if len(rows) == 0 {
		return models.DefaultPointDiff
	}
	var sum float64
	for i := range rows {
		sum += rows[i].PointDiff()
	}
	return sum / float64(len(rows))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, x := range values {
		sum += x
	}
	return sum / float64(len(values))
}
