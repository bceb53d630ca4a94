// Package identity maps raw team name strings to stable team identifiers.
package identity

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/hoopscore/internal/models"
)

// FallbackPrefix marks team ids derived from a hash of an uncurated name.
const FallbackPrefix = "x-"

var fallbackNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("hoopscore/teams"))

// Resolution is the outcome of resolving one raw name.
type Resolution struct {
	ID         models.TeamID
	Normalized string
	Canonical  string
	Conference string
	Fallback   bool
}

// Collision records two raw names that collapsed to the same key after their
// different mascots were removed.
type Collision struct {
	Key        string
	ID         models.TeamID
	FirstRaw   string
	SecondRaw  string
	FirstTail  string
	SecondTail string
}

type mascotSighting struct {
	raw    string
	mascot string
}

// Resolver resolves raw names against a curated catalogue. It never fails:
// names without a curated match get a deterministic fallback id.
type Resolver struct {
	byName  map[string]Team
	byID    map[models.TeamID]Team
	aliases map[string]models.TeamID
	mascots []string
	logger  *logrus.Logger

	mu         sync.Mutex
	sightings  map[string]mascotSighting
	collisions []Collision
	seen       map[string]struct{}
}

// NewResolver creates a resolver over the built-in catalogue.
func NewResolver(logger *logrus.Logger) *Resolver {
	return NewResolverWithCatalogue(Catalogue, Aliases, Mascots, logger)
}

// NewResolverWithCatalogue creates a resolver over the given curated data.
func NewResolverWithCatalogue(teams []Team, aliases map[string]models.TeamID, mascots []string, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}

	r := &Resolver{
		byName:    make(map[string]Team, len(teams)),
		byID:      make(map[models.TeamID]Team, len(teams)),
		aliases:   make(map[string]models.TeamID, len(aliases)),
		logger:    logger,
		sightings: make(map[string]mascotSighting),
		seen:      make(map[string]struct{}),
	}
	for _, t := range teams {
		t.Name = Normalize(t.Name)
		r.byName[t.Name] = t
		r.byID[t.ID] = t
	}
	for alias, id := range aliases {
		r.aliases[Normalize(alias)] = id
	}

	r.mascots = make([]string, 0, len(mascots))
	for _, m := range mascots {
		r.mascots = append(r.mascots, Normalize(m))
	}
	sort.SliceStable(r.mascots, func(i, j int) bool {
		if len(r.mascots[i]) != len(r.mascots[j]) {
			return len(r.mascots[i]) > len(r.mascots[j])
		}
		return r.mascots[i] < r.mascots[j]
	})
	return r
}

// Resolve returns the team id for a raw name.
func (r *Resolver) Resolve(raw string) models.TeamID {
	return r.ResolveTeam(raw).ID
}

// ResolveTeam returns the full resolution for a raw name.
func (r *Resolver) ResolveTeam(raw string) Resolution {
	normalized := Normalize(raw)

	if res, ok := r.lookup(normalized); ok {
		return res
	}

	key := normalized
	if stripped, mascot, ok := r.stripMascot(normalized); ok {
		key = stripped
		r.recordMascot(raw, stripped, mascot)
		if res, ok := r.lookup(stripped); ok {
			return res
		}
	}

	expanded := expandAbbreviations(key)
	if res, ok := r.lookup(expanded); ok {
		return res
	}

	return r.fallback(expanded)
}

// Team returns the curated entry for id.
func (r *Resolver) Team(id models.TeamID) (Team, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// Conference returns the curated conference for id, or "" when unknown.
func (r *Resolver) Conference(id models.TeamID) string {
	return r.byID[id].Conference
}

// Collisions returns the name collisions seen so far.
func (r *Resolver) Collisions() []Collision {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Collision, len(r.collisions))
	copy(out, r.collisions)
	return out
}

// IsFallbackID reports whether id was derived from an uncurated name.
func IsFallbackID(id models.TeamID) bool {
	return strings.HasPrefix(string(id), FallbackPrefix)
}

// FallbackID derives the deterministic id for a normalized name.
func FallbackID(normalized string) models.TeamID {
	u := uuid.NewSHA1(fallbackNamespace, []byte(strings.ToLower(normalized)))
	hex := strings.ReplaceAll(u.String(), "-", "")
	return models.TeamID(FallbackPrefix + hex[:16])
}

func (r *Resolver) lookup(key string) (Resolution, bool) {
	if key == "" {
		return Resolution{}, false
	}
	if id, ok := r.aliases[key]; ok {
		t := r.byID[id]
		return Resolution{ID: id, Normalized: key, Canonical: t.Name, Conference: t.Conference}, true
	}
	if t, ok := r.byName[key]; ok {
		return Resolution{ID: t.ID, Normalized: key, Canonical: t.Name, Conference: t.Conference}, true
	}
	return Resolution{}, false
}

func (r *Resolver) stripMascot(s string) (string, string, bool) {
	for _, m := range r.mascots {
		if len(s) <= len(m)+1 {
			continue
		}
		if strings.HasSuffix(s, " "+m) {
			return strings.TrimSpace(s[:len(s)-len(m)-1]), m, true
		}
	}
	return s, "", false
}

func (r *Resolver) recordMascot(raw, key, mascot string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.sightings[key]
	if !ok {
		r.sightings[key] = mascotSighting{raw: raw, mascot: mascot}
		return
	}
	if prev.mascot == mascot {
		return
	}
	pair := key + "|" + prev.mascot + "|" + mascot
	if _, dup := r.seen[pair]; dup {
		return
	}
	r.seen[pair] = struct{}{}

	c := Collision{
		Key:        key,
		FirstRaw:   prev.raw,
		SecondRaw:  raw,
		FirstTail:  prev.mascot,
		SecondTail: mascot,
	}
	if res, found := r.lookup(key); found {
		c.ID = res.ID
	} else {
		c.ID = FallbackID(expandAbbreviations(key))
	}
	r.collisions = append(r.collisions, c)

	r.logger.WithFields(logrus.Fields{
		"key":        key,
		"first_raw":  prev.raw,
		"second_raw": raw,
		"team_id":    c.ID,
	}).Warn("Distinct team names collapsed to the same identity")
}

func (r *Resolver) fallback(normalized string) Resolution {
	return Resolution{
		ID:         FallbackID(normalized),
		Normalized: normalized,
		Canonical:  normalized,
		Fallback:   true,
	}
}
