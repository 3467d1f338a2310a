package models

import "time"

// ServingRecord is appended once per successful serve and never mutated.
type ServingRecord struct {
	ID             string    `json:"id"`
	RecipeID       int64     `json:"recipeId"`
	RecipeName     string    `json:"recipeName"`
	Portions       int       `json:"portions"`
	ServedByUserID int64     `json:"servedByUserId"`
	ServedByName   string    `json:"servedByName"`
	Timestamp      time.Time `json:"timestamp"`
}

// Shortfall describes one requirement that cannot be met for a requested serving.
type Shortfall struct {
	IngredientID int64   `json:"ingredientId"`
	Name         string  `json:"name"`
	Unit         Unit    `json:"unit"`
	Required     float64 `json:"required"`
	Available    float64 `json:"available"`
}
