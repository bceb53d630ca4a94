package features

import (
	"time"

	"github.com/yourusername/hoopscore/internal/efficiency"
	"github.com/yourusername/hoopscore/internal/models"
)

// vector returns the team's feature vector as of asOf, substituting a
// fallback source for the performance fields when the team has fewer than
// the minimum number of current-season games. Games played and rest days
// always reflect the team's actual schedule.
func (d *dataset) vector(team models.TeamID, season string, asOf time.Time) models.FeatureVector {
	v := d.snapshot(team, season, asOf)
	if v.GamesPlayed > 0 && v.GamesPlayed >= d.config.MinGamesThreshold {
		return v
	}

	source, kind := d.fallbackSource(team, season, asOf)
	fields := v.PerformanceFields()
	for i, src := range source.PerformanceFields() {
		*fields[i] = *src
	}
	v.IsFallback = true
	v.FallbackType = kind
	return v
}

// fallbackSource walks the hierarchy: the team's own prior season regressed
// toward league average, then the conference mean as of the same date, then
// league defaults.
func (d *dataset) fallbackSource(team models.TeamID, season string, asOf time.Time) (models.FeatureVector, models.FallbackType) {
	minGames := max(1, d.config.MinGamesThreshold)

	if prev, err := models.PreviousSeason(season); err == nil {
		prevRows := d.groups[efficiency.TeamSeason{Team: team, Season: prev}]
		if len(prevRows) >= minGames {
			_, end, _ := models.SeasonWindow(prev)
			// Games logged past the nominal window still belong to the season.
			if last := prevRows[len(prevRows)-1].Date; !last.Before(end) {
				end = last.AddDate(0, 0, 1)
			}
			source := d.snapshot(team, prev, end)
			d.regress(&source)
			return source, models.FallbackPriorSeason
		}
	}

	if conf := d.conferenceOf(team); conf != "" {
		var peers []models.FeatureVector
		for _, peer := range d.conferencePeers(team, season, conf) {
			pv := d.snapshot(peer, season, asOf)
			if pv.GamesPlayed >= minGames {
				peers = append(peers, pv)
			}
		}
		if len(peers) > 0 {
			return averageVectors(peers), models.FallbackConference
		}
	}

	return models.LeagueDefaults(team, season, asOf), models.FallbackLeague
}

// regress pulls each performance field toward its league default by the
// configured fraction.
func (d *dataset) regress(v *models.FeatureVector) {
	defaults := models.LeagueDefaults(v.TeamID, v.Season, v.AsOf)
	target := defaults.PerformanceFields()
	keep := 1 - d.config.PriorSeasonRegression
	for i, f := range v.PerformanceFields() {
		*f = *target[i] + keep*(*f-*target[i])
	}
}

func averageVectors(vectors []models.FeatureVector) models.FeatureVector {
	var out models.FeatureVector
	sums := out.PerformanceFields()
	for i := range vectors {
		for j, f := range vectors[i].PerformanceFields() {
			*sums[j] += *f
		}
	}
	n := float64(len(vectors))
	for _, f := range sums {
		*f /= n
	}
	return out
}
