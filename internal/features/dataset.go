package features

import (
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/yourusername/hoopscore/internal/efficiency"
	"github.com/yourusername/hoopscore/internal/models"
	"github.com/yourusername/hoopscore/internal/ratings"
)

// memo caches computed values by key. Concurrent callers for a missing key
// share a single computation.
type memo[V any] struct {
	mu     sync.RWMutex
	values map[string]V
	group  singleflight.Group
}

func newMemo[V any]() *memo[V] {
	return &memo[V]{values: make(map[string]V)}
}

func (m *memo[V]) lookup(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *memo[V]) get(key string, compute func() V) V {
	if v, ok := m.lookup(key); ok {
		return v
	}
	res, _, _ := m.group.Do(key, func() (interface{}, error) {
		// A flight for key may have finished between lookup and Do.
		if v, ok := m.lookup(key); ok {
			return v, nil
		}
		v := compute()
		m.mu.Lock()
		m.values[key] = v
		m.mu.Unlock()
		return v, nil
	})
	return res.(V)
}

// each visits every cached value in key order.
func (m *memo[V]) each(fn func(key string, value V)) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	values := make([]V, len(keys))
	sort.Strings(keys)
	for i, k := range keys {
		values[i] = m.values[k]
	}
	m.mu.RUnlock()

	for i, k := range keys {
		fn(k, values[i])
	}
}

// dataset is an indexed, read-only view of a game history. Batch builds and
// point-in-time lookups both go through it so they compute identical values.
type dataset struct {
	config Config
	engine *ratings.Engine

	groups      map[efficiency.TeamSeason][]models.TeamGameRow
	seasonRows  map[string][]models.TeamGameRow
	seasonTable map[string]*models.EfficiencyTable
	conferences map[models.TeamID]string
	members     map[string][]models.TeamID // season|conference -> teams, sorted

	fingerprint uint64

	ratingsMemo  *memo[*ratings.Result]
	tablesMemo   *memo[*models.EfficiencyTable]
	snapshotMemo *memo[models.FeatureVector]
}

func newDataset(config Config, engine *ratings.Engine, games []models.Game) *dataset {
	ordered := make([]models.Game, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].ID < ordered[j].ID
	})

	rows := efficiency.Melt(ordered)
	d := &dataset{
		config:       config,
		engine:       engine,
		groups:       efficiency.GroupByTeamSeason(rows),
		seasonRows:   make(map[string][]models.TeamGameRow),
		conferences:  make(map[models.TeamID]string),
		members:      make(map[string][]models.TeamID),
		fingerprint:  fingerprint(ordered),
		ratingsMemo:  newMemo[*ratings.Result](),
		tablesMemo:   newMemo[*models.EfficiencyTable](),
		snapshotMemo: newMemo[models.FeatureVector](),
	}
	for _, r := range rows {
		d.seasonRows[r.Season] = append(d.seasonRows[r.Season], r)
	}
	d.seasonTable = efficiency.BySeason(rows)

	// Latest non-empty conference wins, including scheduled games.
	for i := range ordered {
		g := &ordered[i]
		if g.HomeConference != "" {
			d.conferences[g.HomeTeamID] = g.HomeConference
		}
		if g.AwayConference != "" {
			d.conferences[g.AwayTeamID] = g.AwayConference
		}
	}

	for key := range d.groups {
		conf := d.conferences[key.Team]
		if conf == "" {
			continue
		}
		mk := memberKey(key.Season, conf)
		d.members[mk] = append(d.members[mk], key.Team)
	}
	for mk := range d.members {
		sort.Slice(d.members[mk], func(i, j int) bool { return d.members[mk][i] < d.members[mk][j] })
	}
	return d
}

func memberKey(season, conference string) string {
	return season + "|" + conference
}

func snapshotKey(team models.TeamID, season string, asOf time.Time) string {
	return string(team) + "|" + season + "|" + asOf.Format(models.DateLayout)
}

// fingerprint hashes the content of a game history so cached vectors are
// tied to the exact data they were computed from.
func fingerprint(games []models.Game) uint64 {
	h := xxhash.New()
	buf := make([]byte, 0, 128)
	for i := range games {
		g := &games[i]
		buf = buf[:0]
		buf = append(buf, g.ID...)
		buf = append(buf, '|')
		buf = append(buf, g.DateKey()...)
		buf = append(buf, '|')
		buf = append(buf, string(g.HomeTeamID)...)
		buf = append(buf, '|')
		buf = append(buf, string(g.AwayTeamID)...)
		if g.IsFinal() {
			buf = append(buf, '|')
			buf = strconv.AppendInt(buf, int64(*g.HomeScore), 10)
			buf = append(buf, '-')
			buf = strconv.AppendInt(buf, int64(*g.AwayScore), 10)
		}
		buf = strconv.AppendBool(buf, g.IsNeutral)
		buf = append(buf, ';')
		_, _ = h.Write(buf)
	}
	return h.Sum64()
}

// priorRows returns the prefix of rows dated strictly before asOf.
func priorRows(rows []models.TeamGameRow, asOf time.Time) []models.TeamGameRow {
	n := sort.Search(len(rows), func(i int) bool { return !rows[i].Date.Before(asOf) })
	return rows[:n]
}

// ratingsAsOf rates the season using only games before asOf.
func (d *dataset) ratingsAsOf(season string, asOf time.Time) *ratings.Result {
	key := season + "|" + asOf.Format(models.DateLayout)
	return d.ratingsMemo.get(key, func() *ratings.Result {
		return d.engine.Calculate(priorRows(d.seasonRows[season], asOf))
	})
}

// unconverged counts the memoised ratings runs that exhausted their
// iteration budget and returns the largest final delta among them.
func (d *dataset) unconverged() (int, float64) {
	count, worst := 0, 0.0
	d.ratingsMemo.each(func(_ string, r *ratings.Result) {
		if r != nil && r.Warning != nil {
			count++
			worst = math.Max(worst, r.Warning.LastDelta)
		}
	})
	return count, worst
}

// opponentTable returns the efficiency reference used to adjust a team's
// games in season as of asOf.
func (d *dataset) opponentTable(season string, asOf time.Time) *models.EfficiencyTable {
	if d.config.OpponentScope != ScopePointInTime {
		if table, ok := d.seasonTable[season]; ok {
			return table
		}
		return models.NewEfficiencyTable()
	}
	key := season + "|" + asOf.Format(models.DateLayout)
	return d.tablesMemo.get(key, func() *models.EfficiencyTable {
		return efficiency.SeasonAggregates(priorRows(d.seasonRows[season], asOf))
	})
}

// conferenceOf returns the team's most recently observed conference.
func (d *dataset) conferenceOf(team models.TeamID) string {
	return d.conferences[team]
}

// conferencePeers returns the other teams of conference active in season.
func (d *dataset) conferencePeers(team models.TeamID, season, conference string) []models.TeamID {
	all := d.members[memberKey(season, conference)]
	peers := make([]models.TeamID, 0, len(all))
	for _, t := range all {
		if t != team {
			peers = append(peers, t)
		}
	}
	return peers
}
