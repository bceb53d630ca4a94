package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/hoopscore/internal/models"
)

func TestNewResolverFromFile(t *testing.T) {
	r, err := NewResolverFromFile("testdata/catalogue.yaml", quietLogger())
	require.NoError(t, err)

	assert.Equal(t, models.TeamID("grand-canyon"), r.Resolve("Grand Canyon Antelopes"))
	assert.Equal(t, models.TeamID("grand-canyon"), r.Resolve("GCU"))
	assert.Equal(t, "WAC", r.Conference("grand-canyon"))

	// File entries override the built-in conference.
	assert.Equal(t, "Independent", r.Conference("duke"))
	// Built-in aliases still apply.
	assert.Equal(t, models.TeamID("north-carolina"), r.Resolve("UNC"))
}

func TestLoadCatalogueFileErrors(t *testing.T) {
	_, err := LoadCatalogueFile("testdata/missing.yaml")
	assert.Error(t, err)

	_, err = LoadCatalogueFile("testdata/bad_catalogue.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs an id and a name")
}
