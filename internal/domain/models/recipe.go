package models

// RecipeRequirement is the quantity of one ingredient consumed by a single portion.
type RecipeRequirement struct {
	RecipeID           int64   `json:"recipeId" yaml:"-"`
	IngredientID       int64   `json:"ingredientId" yaml:"ingredientId"`
	Name               string  `json:"name" yaml:"name"`
	QuantityPerPortion float64 `json:"quantityPerPortion" yaml:"quantity"`
	Unit               Unit    `json:"unit" yaml:"unit"`
}

// Recipe owns an ordered list of requirements. Edits replace the list wholesale.
type Recipe struct {
	ID           int64               `json:"id" yaml:"id"`
	Name         string              `json:"name" yaml:"name"`
	Description  string              `json:"description,omitempty" yaml:"description"`
	Requirements []RecipeRequirement `json:"requirements" yaml:"ingredients"`
}

// IngredientIDs returns the distinct ingredient ids the recipe touches, in requirement order.
func (r Recipe) IngredientIDs() []int64 {
	seen := make(map[int64]struct{}, len(r.Requirements))
	ids := make([]int64, 0, len(r.Requirements))
	for _, req := range r.Requirements {
		if _, ok := seen[req.IngredientID]; ok {
			continue
		}
		seen[req.IngredientID] = struct{}{}
		ids = append(ids, req.IngredientID)
	}
	return ids
}
