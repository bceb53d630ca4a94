package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/hoopscore/internal/identity"
	"github.com/yourusername/hoopscore/internal/logger"
	"github.com/yourusername/hoopscore/internal/metrics"
	"github.com/yourusername/hoopscore/internal/models"
)

// IngestionService turns raw scraped rows into validated games. Bad rows are
// skipped and reported; a run never aborts.
type IngestionService struct {
	resolver   *identity.Resolver
	validator  *DataValidator
	normalizer *DataNormalizer
	quality    *logger.QualityLogger
	logger     *logrus.Entry
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(resolver *identity.Resolver, validator *DataValidator, log *logrus.Logger) *IngestionService {
	if log == nil {
		log = logrus.New()
	}
	if resolver == nil {
		resolver = identity.NewResolver(log)
	}
	if validator == nil {
		validator = NewDataValidator(nil)
	}
	quality := logger.NewQualityLogger(log)
	return &IngestionService{
		resolver:   resolver,
		validator:  validator,
		normalizer: NewDataNormalizer(resolver, quality),
		quality:    quality,
		logger:     log.WithField("component", "ingestion"),
	}
}

// Resolver returns the team resolver used by the service.
func (s *IngestionService) Resolver() *identity.Resolver {
	return s.resolver
}

// Normalize validates and resolves raw rows. The returned games are ordered by
// date then game id, and the outcome does not depend on input order.
func (s *IngestionService) Normalize(raws []models.RawGame) ([]models.Game, *DataQualityReport) {
	start := time.Now()
	report := &DataQualityReport{Total: len(raws)}
	collisionsBefore := len(s.resolver.Collisions())

	ordered := make([]*models.RawGame, len(raws))
	for i := range raws {
		ordered[i] = &raws[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Date != ordered[j].Date {
			return ordered[i].Date < ordered[j].Date
		}
		return ordered[i].GameID < ordered[j].GameID
	})

	seenIDs := make(map[string]struct{}, len(raws))
	seenMatchups := make(map[string]string, len(raws))
	booked := make(map[string]string, 2*len(raws))
	games := make([]models.Game, 0, len(raws))

	for _, raw := range ordered {
		row, issue := s.validator.ValidateRaw(raw)
		if issue != nil {
			s.skip(report, issue)
			continue
		}
		if _, dup := seenIDs[raw.GameID]; dup {
			s.skip(report, &models.DataQualityError{
				Kind: models.QualityDuplicateGame, GameID: raw.GameID, Detail: "game id seen earlier in the batch",
			})
			continue
		}
		seenIDs[raw.GameID] = struct{}{}

		game := s.normalizer.NormalizeGame(row)
		if issue := s.validator.ValidateGame(&game); issue != nil {
			s.skip(report, issue)
			continue
		}

		day := game.DateKey()
		matchup := day + "|" + string(game.HomeTeamID) + "|" + string(game.AwayTeamID)
		if first, dup := seenMatchups[matchup]; dup {
			s.skip(report, &models.DataQualityError{
				Kind: models.QualityDuplicateGame, GameID: game.ID,
				Detail: fmt.Sprintf("same matchup and date as game %s", first),
			})
			continue
		}
		if issue := checkBooking(booked, &game, day); issue != nil {
			s.skip(report, issue)
			continue
		}
		seenMatchups[matchup] = game.ID
		booked[day+"|"+string(game.HomeTeamID)] = game.ID
		booked[day+"|"+string(game.AwayTeamID)] = game.ID

		if game.Unresolved {
			report.Unresolved++
		}
		report.Accepted++
		metrics.RecordGameIngested(true)
		games = append(games, game)
	}

	for _, c := range s.resolver.Collisions()[collisionsBefore:] {
		issue := models.DataQualityError{
			Kind:   models.QualityNameCollision,
			Detail: fmt.Sprintf("%q and %q both reduce to %q (%s)", c.FirstRaw, c.SecondRaw, c.Key, c.ID),
		}
		report.flag(issue)
		metrics.RecordDataQualityIssue(string(issue.Kind))
		s.quality.LogNameCollision("", c.FirstRaw, c.SecondRaw, string(c.ID))
	}

	sort.SliceStable(games, func(i, j int) bool {
		if !games[i].Date.Equal(games[j].Date) {
			return games[i].Date.Before(games[j].Date)
		}
		return games[i].ID < games[j].ID
	})

	report.Duration = time.Since(start)
	s.quality.LogQualitySummary(report.Accepted, report.Skipped, report.ByKind())
	s.logger.Info(report.String())
	return games, report
}

func (s *IngestionService) skip(report *DataQualityReport, issue *models.DataQualityError) {
	report.skip(issue)
	metrics.RecordGameIngested(false)
	metrics.RecordDataQualityIssue(string(issue.Kind))
	s.quality.LogSkippedGame(issue.GameID, string(issue.Kind), issue.Detail)
}

// checkBooking rejects a game whose team already plays another game that day.
func checkBooking(booked map[string]string, game *models.Game, day string) *models.DataQualityError {
	for _, team := range []models.TeamID{game.HomeTeamID, game.AwayTeamID} {
		if other, ok := booked[day+"|"+string(team)]; ok {
			return &models.DataQualityError{
				Kind:   models.QualityDoubleBooked,
				GameID: game.ID,
				Detail: fmt.Sprintf("%s already plays game %s on %s", team, other, day),
			}
		}
	}
	return nil
}
