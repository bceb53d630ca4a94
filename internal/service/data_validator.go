package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/hoopscore/internal/models"
)

// DataValidator checks raw game rows before team names are resolved.
type DataValidator struct {
	now func() time.Time
}

// NewDataValidator creates a new data validator. now defaults to time.Now and
// decides which unscored games are still upcoming.
func NewDataValidator(now func() time.Time) *DataValidator {
	if now == nil {
		now = time.Now
	}
	return &DataValidator{now: now}
}

// ValidatedRow is a raw row that passed the field checks.
type ValidatedRow struct {
	Raw    *models.RawGame
	Date   time.Time
	Season string
}

// ValidateRaw checks required fields, the date, the season window and score
// presence. It returns the first problem found.
func (v *DataValidator) ValidateRaw(raw *models.RawGame) (ValidatedRow, *models.DataQualityError) {
	row := ValidatedRow{Raw: raw}
	fail := func(kind models.DataQualityKind, format string, args ...any) (ValidatedRow, *models.DataQualityError) {
		return row, &models.DataQualityError{Kind: kind, GameID: raw.GameID, Detail: fmt.Sprintf(format, args...)}
	}

	if strings.TrimSpace(raw.GameID) == "" {
		return fail(models.QualityMissingGameID, "game id is required")
	}
	if strings.TrimSpace(raw.HomeTeamRaw) == "" || strings.TrimSpace(raw.AwayTeamRaw) == "" {
		return fail(models.QualityEmptyTeamName, "home %q, away %q", raw.HomeTeamRaw, raw.AwayTeamRaw)
	}

	date, err := ParseGameDate(raw.Date)
	if err != nil {
		return fail(models.QualityMalformedDate, "%v", err)
	}
	row.Date = date

	season := strings.TrimSpace(raw.Season)
	if season == "" {
		label, ok := models.SeasonForDate(date)
		if !ok {
			return fail(models.QualityOutsideSeason, "date %s is outside every season window", date.Format(models.DateLayout))
		}
		season = label
	}
	if _, err := models.ParseSeason(season); err != nil {
		return fail(models.QualityOutsideSeason, "%v", err)
	}
	if !models.InSeasonWindow(season, date) {
		return fail(models.QualityOutsideSeason, "date %s is outside season %s", date.Format(models.DateLayout), season)
	}
	row.Season = season

	switch {
	case (raw.HomeScore == nil) != (raw.AwayScore == nil):
		return fail(models.QualityPartialScore, "only one score present")
	case raw.HomeScore != nil && (*raw.HomeScore < 0 || *raw.AwayScore < 0):
		return fail(models.QualityMissingScore, "negative score %d-%d", *raw.HomeScore, *raw.AwayScore)
	case raw.HomeScore == nil && date.Before(models.TruncateDay(v.now())):
		return fail(models.QualityMissingScore, "no score for a game dated %s", date.Format(models.DateLayout))
	}

	return row, nil
}

// ValidateGame checks a game after team resolution.
func (v *DataValidator) ValidateGame(game *models.Game) *models.DataQualityError {
	if game.HomeTeamID == game.AwayTeamID {
		return &models.DataQualityError{
			Kind:   models.QualitySameTeam,
			GameID: game.ID,
			Detail: fmt.Sprintf("both sides resolved to %s", game.HomeTeamID),
		}
	}
	if game.IsFinal() && *game.HomeScore == *game.AwayScore {
		return &models.DataQualityError{
			Kind:   models.QualityMissingScore,
			GameID: game.ID,
			Detail: fmt.Sprintf("tied final score %d-%d", *game.HomeScore, *game.AwayScore),
		}
	}
	return nil
}

var gameDateLayouts = []string{models.DateLayout, time.RFC3339, "01/02/2006", "2006/01/02"}

// ParseGameDate parses a game date in any of the accepted layouts and returns
// the UTC calendar day.
func ParseGameDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range gameDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return models.TruncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
