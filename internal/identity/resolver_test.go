package identity

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/hoopscore/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"  Duke   Blue Devils ", "duke blue devils"},
		{"St. John's", "st johns"},
		{"Texas A&amp;M", "texas a and m"},
		{"San José State", "san jose state"},
		{"San JosÃ© State", "san jose state"},
		{"Miami (OH)", "miami oh"},
		{"N.C. State", "nc state"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestResolveCurated(t *testing.T) {
	r := NewResolver(quietLogger())

	tests := []struct {
		raw  string
		want models.TeamID
	}{
		{"Duke", "duke"},
		{"Duke Blue Devils", "duke"},
		{"DUKE BLUE DEVILS", "duke"},
		{"UNC", "north-carolina"},
		{"North Carolina Tar Heels", "north-carolina"},
		{"Michigan St.", "michigan-state"},
		{"Michigan State Spartans", "michigan-state"},
		{"St. John's Red Storm", "st-johns"},
		{"Texas A&M Aggies", "texas-am"},
		{"Miami (OH)", "miami-oh"},
		{"Miami RedHawks", "miami-oh"},
		{"Miami Hurricanes", "miami-fl"},
		{"University of Kentucky", "kentucky"},
		{"Saint Mary's Gaels", "saint-marys"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			res := r.ResolveTeam(tt.raw)
			assert.Equal(t, tt.want, res.ID)
			assert.False(t, res.Fallback)
		})
	}
}

func TestResolveCarriesConference(t *testing.T) {
	r := NewResolver(quietLogger())

	res := r.ResolveTeam("Gonzaga Bulldogs")
	assert.Equal(t, "WCC", res.Conference)
	assert.Equal(t, "Big East", r.Conference("uconn"))
	assert.Equal(t, "", r.Conference("x-unknown"))
}

func TestFallbackDeterminism(t *testing.T) {
	first := NewResolver(quietLogger()).Resolve("Southern Vermont Mountaineers")
	second := NewResolver(quietLogger()).Resolve("Southern Vermont Mountaineers")
	bare := NewResolver(quietLogger()).Resolve("southern   vermont")

	assert.True(t, IsFallbackID(first))
	assert.Equal(t, first, second)
	assert.Equal(t, first, bare)
	assert.Equal(t, FallbackID("southern vermont"), first)
	assert.NotEqual(t, first, NewResolver(quietLogger()).Resolve("Northern Vermont"))
}

func TestResolveNeverPanicsOnEmpty(t *testing.T) {
	r := NewResolver(quietLogger())
	assert.NotPanics(t, func() {
		id := r.Resolve("")
		assert.True(t, IsFallbackID(id))
	})
}

func TestCollisionsAreSurfaced(t *testing.T) {
	log, buf := logrus.New(), &bytes.Buffer{}
	log.SetOutput(buf)
	r := NewResolver(log)

	a := r.Resolve("Springfield Lions")
	b := r.Resolve("Springfield Tigers")
	r.Resolve("Springfield Tigers")

	assert.Equal(t, a, b)
	collisions := r.Collisions()
	require.Len(t, collisions, 1)
	assert.Equal(t, "springfield", collisions[0].Key)
	assert.Equal(t, "Springfield Lions", collisions[0].FirstRaw)
	assert.Equal(t, "Springfield Tigers", collisions[0].SecondRaw)
	assert.Equal(t, a, collisions[0].ID)
	assert.Contains(t, buf.String(), "collapsed to the same identity")
}

func TestMascotMatchingPrefersLongest(t *testing.T) {
	r := NewResolverWithCatalogue(
		[]Team{{ID: "ohio", Name: "ohio"}, {ID: "ohio-blue", Name: "ohio blue"}},
		nil,
		[]string{"devils", "blue devils"},
		quietLogger(),
	)
	assert.Equal(t, models.TeamID("ohio"), r.Resolve("Ohio Blue Devils"))
}
