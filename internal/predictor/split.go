package predictor

import (
	"math"
	"time"

	"github.com/yourusername/hoopscore/internal/models"
)

// TemporalSplit puts the games of the most recent validationDays calendar
// days into validation and everything earlier into training.
func TemporalSplit(games []models.GameFeatures, validationDays int) (train, validation []models.GameFeatures) {
	if len(games) == 0 {
		return nil, nil
	}
	latest := games[0].Date
	for i := range games {
		if games[i].Date.After(latest) {
			latest = games[i].Date
		}
	}
	cutoff := models.TruncateDay(latest).AddDate(0, 0, -(validationDays - 1))
	for i := range games {
		if games[i].Date.Before(cutoff) {
			train = append(train, games[i])
		} else {
			validation = append(validation, games[i])
		}
	}
	return train, validation
}

// AssertTemporalOrder fails with a LeakageViolation unless every training
// game is strictly earlier than every validation game.
func AssertTemporalOrder(train, validation []models.GameFeatures) error {
	if len(train) == 0 || len(validation) == 0 {
		return nil
	}
	trainMax := latestDate(train)
	valMin := validation[0].Date
	for i := range validation {
		if validation[i].Date.Before(valMin) {
			valMin = validation[i].Date
		}
	}
	if !trainMax.Before(valMin) {
		return &models.LeakageViolation{TrainMax: trainMax, ValidationMin: valMin}
	}
	return nil
}

func latestDate(games []models.GameFeatures) time.Time {
	var latest time.Time
	for i := range games {
		if games[i].Date.After(latest) {
			latest = games[i].Date
		}
	}
	return latest
}

// SeasonWeights weights each game by decay^(seasons before the newest
// season present). Unparseable seasons get the oldest weight seen.
func SeasonWeights(games []models.GameFeatures, decay float64) []float64 {
	current := math.MinInt
	years := make([]int, len(games))
	for i := range games {
		y, err := models.ParseSeason(games[i].Season)
		if err != nil {
			y = math.MinInt
		}
		years[i] = y
		if y > current {
			current = y
		}
	}

	oldest := current
	for _, y := range years {
		if y != math.MinInt && y < oldest {
			oldest = y
		}
	}

	w := make([]float64, len(games))
	for i, y := range years {
		if y == math.MinInt {
			y = oldest
		}
		w[i] = math.Pow(decay, float64(current-y))
	}
	return w
}

// HomeWinRate is the share of non-neutral games the home team won.
func HomeWinRate(games []models.GameFeatures) float64 {
	wins, n := 0, 0
	for i := range games {
		g := &games[i]
		if g.IsNeutral || g.HomeWon == nil {
			continue
		}
		n++
		if *g.HomeWon {
			wins++
		}
	}
	if n == 0 {
		return 0.5
	}
	return float64(wins) / float64(n)
}
