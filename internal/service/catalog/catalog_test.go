package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

func TestCatalog_PutAndRecipe(t *testing.T) {
	c, err := New(models.Recipe{
		ID:   1,
		Name: "Jollof",
		Requirements: []models.RecipeRequirement{
			{IngredientID: 10, Name: "Rice", QuantityPerPortion: 80, Unit: models.UnitGram},
		},
	})
	require.NoError(t, err)

	r, err := c.Recipe(1)
	require.NoError(t, err)
	require.Len(t, r.Requirements, 1)
	assert.Equal(t, int64(1), r.Requirements[0].RecipeID)

	r.Requirements[0].QuantityPerPortion = 1
	again, err := c.Recipe(1)
	require.NoError(t, err)
	assert.Equal(t, 80.0, again.Requirements[0].QuantityPerPortion, "callers get a copy")

	_, err = c.Recipe(2)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestCatalog_PutReplacesWholesale(t *testing.T) {
	c, err := New(models.Recipe{ID: 1, Name: "Soup", Requirements: []models.RecipeRequirement{
		{IngredientID: 1, QuantityPerPortion: 1},
		{IngredientID: 2, QuantityPerPortion: 2},
	}})
	require.NoError(t, err)

	require.NoError(t, c.Put(models.Recipe{ID: 1, Name: "Soup", Requirements: []models.RecipeRequirement{
		{IngredientID: 3, QuantityPerPortion: 5},
	}}))

	reqs, err := c.Requirements(1)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, int64(3), reqs[0].IngredientID)
}

func TestCatalog_PutRejectsInvalid(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	tests := []struct {
		name   string
		recipe models.Recipe
	}{
		{"missing id", models.Recipe{Name: "x"}},
		{"missing name", models.Recipe{ID: 1}},
		{"zero quantity", models.Recipe{ID: 1, Name: "x", Requirements: []models.RecipeRequirement{{IngredientID: 1}}}},
		{"NaN quantity", models.Recipe{ID: 1, Name: "x", Requirements: []models.RecipeRequirement{{IngredientID: 1, QuantityPerPortion: math.NaN()}}}},
		{"infinite quantity", models.Recipe{ID: 1, Name: "x", Requirements: []models.RecipeRequirement{{IngredientID: 1, QuantityPerPortion: math.Inf(1)}}}},
		{"missing ingredient id", models.Recipe{ID: 1, Name: "x", Requirements: []models.RecipeRequirement{{QuantityPerPortion: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, c.Put(tt.recipe), ErrInvalidRecipe)
		})
	}
	assert.Empty(t, c.List())
}

func TestCatalog_ListSorted(t *testing.T) {
	c, err := New(models.Recipe{ID: 3, Name: "c"}, models.Recipe{ID: 1, Name: "a"}, models.Recipe{ID: 2, Name: "b"})
	require.NoError(t, err)

	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "c", list[2].Name)
}
