package events

import (
	"strings"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

// Viewer is a connected recipient context.
type Viewer struct {
	ID   int64
	Name string
	Role models.Role
}

// IsVisible decides whether viewer should receive env.
//
//	admin   every envelope
//	cook    types containing "meal" or "inventory", or own actions
//	manager types containing "inventory" or "order", or own actions
//	other   nothing
func IsVisible(env models.Envelope, viewer Viewer) bool {
	own := viewer.ID != 0 && env.ActorID() == viewer.ID

	switch viewer.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCook:
		return own || strings.Contains(env.Type, "meal") || strings.Contains(env.Type, "inventory")
	case models.RoleManager:
		return own || strings.Contains(env.Type, "inventory") || strings.Contains(env.Type, "order")
	default:
		return false
	}
}
