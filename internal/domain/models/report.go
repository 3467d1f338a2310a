package models

import "time"

// MonthlyReport aggregates the servings of one calendar month.
type MonthlyReport struct {
	Year             int               `bson:"year" json:"year"`
	Month            time.Month        `bson:"month" json:"month"`
	Servings         int               `bson:"servings" json:"servings"`
	TotalPortions    int               `bson:"total_portions" json:"totalPortions"`
	PortionsByRecipe map[string]int    `bson:"portions_by_recipe" json:"portionsByRecipe"`
	LowStock         []IngredientStock `bson:"low_stock" json:"lowStock"`
	GeneratedAt      time.Time         `bson:"generated_at" json:"generatedAt"`
}
