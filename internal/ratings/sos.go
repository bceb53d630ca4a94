package ratings

import (
	"github.com/yourusername/hoopscore/internal/models"
)

// SOS summarizes the quality of a team's schedule.
type SOS struct {
	AvgOpponentNet float64 `json:"avg_opponent_net"`
	QualityWins    int     `json:"quality_wins"`
	BadLosses      int     `json:"bad_losses"`
	Games          int     `json:"games"`
}

// StrengthOfSchedule averages opponent net rating over the team's rows and
// counts wins over top-K opponents and losses to bottom-K opponents. Each K
// is capped at half the rated teams so the two groups never overlap.
// Opponents missing from ratings count toward the average at the neutral
// rating but are never a quality win or a bad loss.
func StrengthOfSchedule(rows []models.TeamGameRow, ratings *Result, config Config) SOS {
	if len(rows) == 0 {
		return SOS{}
	}

	n := ratings.Len()
	top := min(max(config.QualityWinTopK, 0), n/2)
	bottom := min(max(config.BadLossBottomK, 0), n/2)
	badLossRank := n - bottom

	var sos SOS
	var sumNet float64
	for i := range rows {
		row := &rows[i]
		opp := ratings.Get(row.OpponentID)
		sumNet += opp.NetRating
		sos.Games++

		if !ratings.Has(row.OpponentID) {
			continue
		}
		if row.Won() && opp.Rank <= top {
			sos.QualityWins++
		}
		if !row.Won() && opp.Rank > badLossRank {
			sos.BadLosses++
		}
	}
	sos.AvgOpponentNet = sumNet / float64(sos.Games)
	return sos
}

// ScheduleFor returns the rows belonging to team.
func ScheduleFor(team models.TeamID, rows []models.TeamGameRow) []models.TeamGameRow {
	var out []models.TeamGameRow
	for _, r := range rows {
		if r.TeamID == team {
			out = append(out, r)
		}
	}
	return out
}
