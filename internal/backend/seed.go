package backend

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kdudkov/tgsubs/internal/database"
	"github.com/kdudkov/tgsubs/pkg/model"
)

// Seed is the content of the seed file: products and telegram groups
// to create on an empty database.
type Seed struct {
	Products []SeedProduct `yaml:"products"`
	Groups   []SeedGroup   `yaml:"groups"`
}

type SeedProduct struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// telegram group id to map the product to
	Group string `yaml:"group"`
}

type SeedGroup struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Inactive bool   `yaml:"inactive"`
}

func LoadSeed(fname string) (*Seed, error) {
	fl, err := os.Open(fname)
	if err != nil {
		return nil, err
	}

	defer fl.Close()

	var s Seed

	if err := yaml.NewDecoder(fl).Decode(&s); err != nil {
		return nil, fmt.Errorf("seed %s: %w", fname, err)
	}

	return &s, nil
}

// Apply creates the seed data. Does nothing if there are products already.
func (s *Seed) Apply(dbm *database.DatabaseManager) error {
	if dbm.ProductQuery().Count() > 0 {
		return nil
	}

	names := make(map[string]string, len(s.Groups))

	for _, g := range s.Groups {
		if err := dbm.Create(&model.TelegramGroup{TelegramGroupID: g.ID, TelegramGroupName: g.Name, IsActive: !g.Inactive}); err != nil {
			return err
		}

		names[g.ID] = g.Name
	}

	for _, sp := range s.Products {
		p := &model.Product{Name: sp.Name, Description: sp.Description}

		if err := dbm.Create(p); err != nil {
			return err
		}

		if sp.Group == "" {
			continue
		}

		name, ok := names[sp.Group]
		if !ok {
			name = sp.Group
		}

		if _, err := dbm.MapProduct(p.ID, sp.Group, name); err != nil {
			return fmt.Errorf("product %s: %w", sp.Name, err)
		}
	}

	return nil
}
