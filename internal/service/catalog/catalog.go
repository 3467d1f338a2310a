package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

var (
	// ErrRecipeNotFound indicates the recipe id is unknown.
	ErrRecipeNotFound = errors.New("recipe not found")
	// ErrInvalidRecipe indicates a malformed recipe definition.
	ErrInvalidRecipe = errors.New("invalid recipe")
)

// Catalog maps recipes to their per-portion ingredient requirements.
type Catalog struct {
	mu      sync.RWMutex
	recipes map[int64]models.Recipe
}

// New builds a catalog from the given recipes.
func New(recipes ...models.Recipe) (*Catalog, error) {
	c := &Catalog{recipes: make(map[int64]models.Recipe, len(recipes))}
	for _, r := range recipes {
		if err := c.Put(r); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Put inserts a recipe or replaces an existing one wholesale.
func (c *Catalog) Put(recipe models.Recipe) error {
	if recipe.ID <= 0 || strings.TrimSpace(recipe.Name) == "" {
		return fmt.Errorf("recipe needs an id and a name: %w", ErrInvalidRecipe)
	}

	reqs := make([]models.RecipeRequirement, len(recipe.Requirements))
	for i, req := range recipe.Requirements {
		if req.IngredientID <= 0 || !models.ValidQuantity(req.QuantityPerPortion, false) {
			return fmt.Errorf("recipe %d requirement %d: %w", recipe.ID, i, ErrInvalidRecipe)
		}
		req.RecipeID = recipe.ID
		reqs[i] = req
	}
	recipe.Requirements = reqs

	c.mu.Lock()
	c.recipes[recipe.ID] = recipe
	c.mu.Unlock()
	return nil
}

// Recipe returns a copy of the recipe.
func (c *Catalog) Recipe(id int64) (models.Recipe, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	recipe, ok := c.recipes[id]
	if !ok {
		return models.Recipe{}, fmt.Errorf("recipe %d: %w", id, ErrRecipeNotFound)
	}
	return cloneRecipe(recipe), nil
}

// Requirements returns the recipe's requirements in insertion order.
func (c *Catalog) Requirements(id int64) ([]models.RecipeRequirement, error) {
	recipe, err := c.Recipe(id)
	if err != nil {
		return nil, err
	}
	return recipe.Requirements, nil
}

// List returns every recipe ordered by id.
func (c *Catalog) List() []models.Recipe {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Recipe, 0, len(c.recipes))
	for _, r := range c.recipes {
		out = append(out, cloneRecipe(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneRecipe(r models.Recipe) models.Recipe {
	reqs := make([]models.RecipeRequirement, len(r.Requirements))
	copy(reqs, r.Requirements)
	r.Requirements = reqs
	return r
}
