package models

import (
	"math"
	"time"
)

// Unit enumerates the measurement units an ingredient can be stocked in.
type Unit string

const (
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitCount      Unit = "pcs"
)

// Valid reports whether u is one of the supported units.
func (u Unit) Valid() bool {
	switch u {
	case UnitGram, UnitKilogram, UnitMilliliter, UnitLiter, UnitCount:
		return true
	}
	return false
}

// ValidQuantity reports whether v is a finite amount, positive unless allowZero
// also admits zero.
func ValidQuantity(v float64, allowZero bool) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if allowZero {
		return v >= 0
	}
	return v > 0
}

// StockStatus is derived from quantity and threshold; it is never set directly.
type StockStatus string

const (
	StatusAvailable  StockStatus = "Available"
	StatusLow        StockStatus = "Low"
	StatusOutOfStock StockStatus = "Out of Stock"
)

// DeriveStatus maps a quantity/threshold pair to its stock status.
func DeriveStatus(quantity, threshold float64) StockStatus {
	switch {
	case quantity <= 0:
		return StatusOutOfStock
	case quantity <= threshold:
		return StatusLow
	default:
		return StatusAvailable
	}
}

// IngredientStock captures the current on-hand quantity of one ingredient.
type IngredientStock struct {
	ID        int64       `json:"id" yaml:"id"`
	Name      string      `json:"name" yaml:"name"`
	Quantity  float64     `json:"quantity" yaml:"quantity"`
	Unit      Unit        `json:"unit" yaml:"unit"`
	Threshold float64     `json:"threshold" yaml:"threshold"`
	Status    StockStatus `json:"status" yaml:"-"`
	UpdatedAt time.Time   `json:"updatedAt" yaml:"-"`
}

// Delivery records a restock of an ingredient.
type Delivery struct {
	IngredientID int64     `json:"ingredientId"`
	Amount       float64   `json:"amount"`
	DeliveredAt  time.Time `json:"deliveredAt"`
	UserID       int64     `json:"userId,omitempty"`
}
