package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	"github.com/mamadbah2/kitchenstock/internal/service/catalog"
	"github.com/mamadbah2/kitchenstock/internal/service/inbox"
	"github.com/mamadbah2/kitchenstock/internal/service/orders"
	"github.com/mamadbah2/kitchenstock/internal/service/serving"
	"github.com/mamadbah2/kitchenstock/internal/service/stock"
)

// Headers set by the session collaborator in front of this service.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"
)

// actorFrom reads the acting user from the session headers. Missing or
// malformed values leave the corresponding field empty.
func actorFrom(c *gin.Context) models.Actor {
	actor := models.Actor{
		Name: c.GetHeader(HeaderUserName),
		Role: models.Role(c.GetHeader(HeaderUserRole)),
	}
	if id, err := strconv.ParseInt(c.GetHeader(HeaderUserID), 10, 64); err == nil {
		actor.ID = id
	}
	if !actor.Role.Valid() {
		actor.Role = ""
	}
	return actor
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, stock.ErrNotFound),
		errors.Is(err, catalog.ErrRecipeNotFound),
		errors.Is(err, inbox.ErrNotFound),
		errors.Is(err, orders.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, serving.ErrValidationFailed),
		errors.Is(err, stock.ErrInsufficientStock),
		errors.Is(err, stock.ErrDuplicate),
		errors.Is(err, orders.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, stock.ErrInvalidAmount),
		errors.Is(err, stock.ErrInvalidIngredient),
		errors.Is(err, serving.ErrInvalidPortions),
		errors.Is(err, serving.ErrNoRequirements),
		errors.Is(err, catalog.ErrInvalidRecipe),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
