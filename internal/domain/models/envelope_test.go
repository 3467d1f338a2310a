package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name      string
		quantity  float64
		threshold float64
		want      StockStatus
	}{
		{"zero is out of stock", 0, 10, StatusOutOfStock},
		{"negative is out of stock", -1, 10, StatusOutOfStock},
		{"at threshold is low", 10, 10, StatusLow},
		{"below threshold is low", 4, 10, StatusLow},
		{"above threshold is available", 10.5, 10, StatusAvailable},
		{"zero threshold with stock is available", 1, 0, StatusAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.quantity, tt.threshold))
		})
	}
}

func TestUnitAndRoleValid(t *testing.T) {
	assert.True(t, UnitGram.Valid())
	assert.True(t, UnitCount.Valid())
	assert.False(t, Unit("cup").Valid())

	assert.True(t, RoleCook.Valid())
	assert.False(t, Role("guest").Valid())
}

func TestValidQuantity(t *testing.T) {
	assert.True(t, ValidQuantity(0.01, false))
	assert.False(t, ValidQuantity(0, false))
	assert.True(t, ValidQuantity(0, true))
	assert.False(t, ValidQuantity(-1, true))
	assert.False(t, ValidQuantity(math.NaN(), true))
	assert.False(t, ValidQuantity(math.Inf(1), true))
}

func TestRecipe_IngredientIDs(t *testing.T) {
	r := Recipe{Requirements: []RecipeRequirement{{IngredientID: 3}, {IngredientID: 1}, {IngredientID: 3}}}
	assert.Equal(t, []int64{3, 1}, r.IngredientIDs())
}

func TestEnvelope_Payload(t *testing.T) {
	t.Run("meal served", func(t *testing.T) {
		env, err := NewEnvelope(EventMealServed, "served", MealServedPayload{RecipeID: 3, RecipeName: "Pasta", Portions: 2})
		require.NoError(t, err)

		p, err := env.Payload()
		require.NoError(t, err)
		meal, ok := p.(MealServedPayload)
		require.True(t, ok)
		assert.Equal(t, int64(3), meal.RecipeID)
		assert.Equal(t, 2, meal.Portions)
	})

	t.Run("ingredient quantity update shares the inventory shape", func(t *testing.T) {
		env := Envelope{Type: EventIngredientQuantityUpdate, Data: json.RawMessage(`{"ingredientId":7,"name":"Flour","quantity":12,"unit":"kg"}`)}

		p, err := env.Payload()
		require.NoError(t, err)
		inv, ok := p.(InventoryPayload)
		require.True(t, ok)
		assert.Equal(t, "Flour", inv.Name)
		assert.Nil(t, inv.PreviousQuantity)
	})

	t.Run("order", func(t *testing.T) {
		env := Envelope{Type: EventOrderCreated, Data: json.RawMessage(`{"id":1,"ingredientName":"Rice","quantity":5,"unit":"kg"}`)}

		p, err := env.Payload()
		require.NoError(t, err)
		assert.IsType(t, OrderPayload{}, p)
	})

	t.Run("unknown type passes through", func(t *testing.T) {
		env := Envelope{Type: "something_new", Data: json.RawMessage(`{"x":1}`)}

		p, err := env.Payload()
		require.NoError(t, err)
		raw, ok := p.(RawPayload)
		require.True(t, ok)
		assert.Equal(t, "something_new", raw.Type)
		assert.JSONEq(t, `{"x":1}`, string(raw.Data))
	})

	t.Run("malformed known payload", func(t *testing.T) {
		env := Envelope{Type: EventMealServed, Data: json.RawMessage(`{"portions":"many"}`)}

		_, err := env.Payload()
		assert.Error(t, err)
	})
}

func TestEnvelope_WireShape(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	env := Envelope{
		ID:        "abc",
		Type:      EventInventoryUpdated,
		Timestamp: ts,
		User:      &Actor{ID: 4, Name: "Ada", Role: RoleManager},
	}

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc","type":"inventory_updated","timestamp":"2024-03-01T12:00:00Z","user":{"id":4,"name":"Ada","role":"manager"}}`, string(data))
	assert.Equal(t, int64(4), env.ActorID())
	assert.Equal(t, int64(0), Envelope{}.ActorID())
}

func TestNotificationRecord_FlattensEnvelope(t *testing.T) {
	rec := NotificationRecord{Envelope: Envelope{ID: "n1", Type: EventMealServed}, Read: true}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "n1", decoded["id"])
	assert.Equal(t, "meal_served", decoded["type"])
	assert.Equal(t, true, decoded["read"])
}
