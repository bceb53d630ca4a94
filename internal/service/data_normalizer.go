package service

import (
	"github.com/yourusername/hoopscore/internal/identity"
	"github.com/yourusername/hoopscore/internal/logger"
	"github.com/yourusername/hoopscore/internal/models"
)

// DataNormalizer turns validated raw rows into games with resolved team ids.
type DataNormalizer struct {
	resolver *identity.Resolver
	quality  *logger.QualityLogger
}

// NewDataNormalizer creates a new data normalizer
func NewDataNormalizer(resolver *identity.Resolver, quality *logger.QualityLogger) *DataNormalizer {
	return &DataNormalizer{resolver: resolver, quality: quality}
}

// NormalizeGame resolves both team names and copies the remaining fields.
func (n *DataNormalizer) NormalizeGame(row ValidatedRow) models.Game {
	raw := row.Raw
	home := n.resolve(raw.HomeTeamRaw)
	away := n.resolve(raw.AwayTeamRaw)

	if home.ID == away.ID && identity.Normalize(raw.HomeTeamRaw) != identity.Normalize(raw.AwayTeamRaw) {
		n.quality.LogNameCollision(raw.GameID, raw.HomeTeamRaw, raw.AwayTeamRaw, string(home.ID))
	}

	return models.Game{
		ID:             raw.GameID,
		Date:           row.Date,
		Season:         row.Season,
		HomeTeamID:     home.ID,
		AwayTeamID:     away.ID,
		HomeConference: home.Conference,
		AwayConference: away.Conference,
		HomeScore:      raw.HomeScore,
		AwayScore:      raw.AwayScore,
		IsNeutral:      raw.IsNeutral,
		HomeRank:       raw.HomeRank,
		AwayRank:       raw.AwayRank,
		HomeBox:        raw.HomeBox,
		AwayBox:        raw.AwayBox,
		Unresolved:     home.Fallback || away.Fallback,
	}
}

func (n *DataNormalizer) resolve(raw string) identity.Resolution {
	res := n.resolver.ResolveTeam(raw)
	if res.Fallback {
		n.quality.LogUnresolvedTeam(raw, string(res.ID))
	}
	return res
}
