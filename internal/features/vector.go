package features

import (
	"github.com/yourusername/hoopscore/internal/models"
)

// Columns returns the model input column names for a game: every team stat
// for the home side, the away side and their difference, then the neutral
// site flag.
func Columns() []string {
	cols := make([]string, 0, len(models.StatNames)*3+1)
	for _, prefix := range []string{"home_", "away_", "diff_"} {
		for _, name := range models.StatNames {
			cols = append(cols, prefix+name)
		}
	}
	return append(cols, "is_neutral")
}

// Row flattens a game's features in Columns order.
func Row(gf *models.GameFeatures) []float64 {
	home := gf.Home.Stats()
	away := gf.Away.Stats()
	row := make([]float64, 0, len(home)*3+1)
	row = append(row, home...)
	row = append(row, away...)
	for i := range home {
		row = append(row, home[i]-away[i])
	}
	neutral := 0.0
	if gf.IsNeutral {
		neutral = 1
	}
	return append(row, neutral)
}

// Matrix flattens a set of games and their labels. Games without a result
// get label -1.
func Matrix(games []models.GameFeatures) ([][]float64, []float64) {
	x := make([][]float64, len(games))
	y := make([]float64, len(games))
	for i := range games {
		x[i] = Row(&games[i])
		switch {
		case games[i].HomeWon == nil:
			y[i] = -1
		case *games[i].HomeWon:
			y[i] = 1
		}
	}
	return x, y
}
