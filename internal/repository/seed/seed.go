package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

// File is the on-disk layout of a stock and recipe seed.
type File struct {
	Ingredients []models.IngredientStock `yaml:"ingredients"`
	Recipes     []models.Recipe          `yaml:"recipes"`
}

// Load parses the seed file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes seed YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	for i := range f.Recipes {
		for j := range f.Recipes[i].Requirements {
			f.Recipes[i].Requirements[j].RecipeID = f.Recipes[i].ID
		}
	}
	return &f, nil
}

// Ledger is the subset of the stock ledger a seed writes to.
type Ledger interface {
	Create(item models.IngredientStock) (models.IngredientStock, error)
}

// Catalog is the subset of the recipe catalog a seed writes to.
type Catalog interface {
	Put(recipe models.Recipe) error
}

// Apply loads every ingredient and recipe into the ledger and catalog.
func (f *File) Apply(ledger Ledger, catalog Catalog) error {
	for _, item := range f.Ingredients {
		if _, err := ledger.Create(item); err != nil {
			return fmt.Errorf("seed ingredient %q: %w", item.Name, err)
		}
	}
	for _, recipe := range f.Recipes {
		if err := catalog.Put(recipe); err != nil {
			return fmt.Errorf("seed recipe %q: %w", recipe.Name, err)
		}
	}
	return nil
}
