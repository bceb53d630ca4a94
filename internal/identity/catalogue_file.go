package identity

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/yourusername/hoopscore/internal/models"
)

// CatalogueFile is the on-disk form of catalogue additions.
//
//	teams:
//	  - id: grand-canyon
//	    name: Grand Canyon
//	    conference: WAC
//	aliases:
//	  gcu: grand-canyon
//	mascots: [antelopes]
type CatalogueFile struct {
	Teams []struct {
		ID         string `mapstructure:"id"`
		Name       string `mapstructure:"name"`
		Conference string `mapstructure:"conference"`
	} `mapstructure:"teams"`
	Aliases map[string]string `mapstructure:"aliases"`
	Mascots []string          `mapstructure:"mascots"`
}

// LoadCatalogueFile reads catalogue additions from a YAML or JSON file.
func LoadCatalogueFile(path string) (*CatalogueFile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read team catalogue %s: %w", path, err)
	}

	var file CatalogueFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to decode team catalogue %s: %w", path, err)
	}
	for i, t := range file.Teams {
		if t.ID == "" || t.Name == "" {
			return nil, fmt.Errorf("team catalogue %s: entry %d needs an id and a name", path, i)
		}
	}
	return &file, nil
}

// NewResolverFromFile creates a resolver over the built-in catalogue extended
// with the entries in path. File entries win over built-in ones.
func NewResolverFromFile(path string, logger *logrus.Logger) (*Resolver, error) {
	file, err := LoadCatalogueFile(path)
	if err != nil {
		return nil, err
	}

	teams := append([]Team{}, Catalogue...)
	for _, t := range file.Teams {
		teams = append(teams, Team{ID: models.TeamID(t.ID), Name: t.Name, Conference: t.Conference})
	}
	aliases := make(map[string]models.TeamID, len(Aliases)+len(file.Aliases))
	for k, v := range Aliases {
		aliases[k] = v
	}
	for k, v := range file.Aliases {
		aliases[k] = models.TeamID(v)
	}
	mascots := append(append([]string{}, Mascots...), file.Mascots...)

	return NewResolverWithCatalogue(teams, aliases, mascots, logger), nil
}
