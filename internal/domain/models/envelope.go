package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role tags the staff role of an actor or viewer.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCook    Role = "cook"
	RoleManager Role = "manager"
)

// Valid reports whether r is a known staff role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCook, RoleManager:
		return true
	}
	return false
}

// Event type tags observed on the wire. Unknown tags are still routed.
const (
	EventMealServed               = "meal_served"
	EventMealUpdatedComprehensive = "meal_updated_comprehensive"
	EventIngredientQuantityUpdate = "ingredient_quantity_updated"
	EventIngredientAddedToMeal    = "ingredient_added_to_meal"
	EventOrderCreated             = "order_created"
	EventOrderStatusUpdate        = "order_status_update"
	EventInventoryUpdated         = "inventory_updated"
	EventInventoryLowStock        = "inventory_low_stock"
	EventReportGenerated          = "report_generated"
)

// Actor identifies who caused an event.
type Actor struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Role Role   `json:"role,omitempty"`
}

// Envelope is the wire shape of a change notification.
type Envelope struct {
	ID        string          `json:"id,omitempty"`
	Type      string          `json:"type"`
	Message   string          `json:"message,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	User      *Actor          `json:"user,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope builds an envelope with the payload encoded into Data.
func NewEnvelope(eventType, message string, payload any) (Envelope, error) {
	env := Envelope{Type: eventType, Message: message}
	if payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	env.Data = raw
	return env, nil
}

// ActorID returns the actor id or zero when the envelope carries no actor.
func (e Envelope) ActorID() int64 {
	if e.User == nil {
		return 0
	}
	return e.User.ID
}

// Payload is the closed set of decoded envelope payloads.
type Payload interface {
	payload()
}

// MealServedPayload accompanies meal_served.
type MealServedPayload struct {
	RecipeID     int64     `json:"recipeId"`
	RecipeName   string    `json:"recipeName"`
	Portions     int       `json:"portions"`
	ServedByName string    `json:"servedByName"`
	ServedAt     time.Time `json:"servedAt"`
}

// InventoryPayload accompanies inventory and ingredient quantity events.
type InventoryPayload struct {
	IngredientID     int64    `json:"ingredientId"`
	Name             string   `json:"name"`
	PreviousQuantity *float64 `json:"previousQuantity,omitempty"`
	Quantity         float64  `json:"quantity"`
	Unit             Unit     `json:"unit"`
	Change           string   `json:"change,omitempty"`
}

// LowStockPayload accompanies inventory_low_stock.
type LowStockPayload struct {
	Count int               `json:"count"`
	Items []IngredientStock `json:"items"`
}

// OrderPayload accompanies order_created and order_status_update.
type OrderPayload struct {
	ID             int64   `json:"id"`
	IngredientID   int64   `json:"ingredientId"`
	IngredientName string  `json:"ingredientName"`
	Quantity       float64 `json:"quantity"`
	Unit           Unit    `json:"unit"`
	Status         string  `json:"status,omitempty"`
}

// MealUpdatedPayload accompanies meal_updated_comprehensive and ingredient_added_to_meal.
type MealUpdatedPayload struct {
	MealName         string    `json:"mealName"`
	IngredientName   string    `json:"ingredientName,omitempty"`
	TotalIngredients int       `json:"totalIngredients,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// RawPayload carries data of a type tag this build does not know about.
type RawPayload struct {
	Type string
	Data json.RawMessage
}

func (MealServedPayload) payload()  {}
func (InventoryPayload) payload()   {}
func (LowStockPayload) payload()    {}
func (OrderPayload) payload()       {}
func (MealUpdatedPayload) payload() {}
func (RawPayload) payload()         {}

// Payload decodes Data according to the type tag. Unknown tags decode to RawPayload.
func (e Envelope) Payload() (Payload, error) {
	var target Payload
	switch e.Type {
	case EventMealServed:
		target = &MealServedPayload{}
	case EventInventoryUpdated, EventIngredientQuantityUpdate:
		target = &InventoryPayload{}
	case EventInventoryLowStock:
		target = &LowStockPayload{}
	case EventOrderCreated, EventOrderStatusUpdate:
		target = &OrderPayload{}
	case EventMealUpdatedComprehensive, EventIngredientAddedToMeal:
		target = &MealUpdatedPayload{}
	default:
		return RawPayload{Type: e.Type, Data: e.Data}, nil
	}

	if len(e.Data) > 0 {
		if err := json.Unmarshal(e.Data, target); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
		}
	}

	switch p := target.(type) {
	case *MealServedPayload:
		return *p, nil
	case *InventoryPayload:
		return *p, nil
	case *LowStockPayload:
		return *p, nil
	case *OrderPayload:
		return *p, nil
	case *MealUpdatedPayload:
		return *p, nil
	}
	return RawPayload{Type: e.Type, Data: e.Data}, nil
}
