package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	"github.com/mamadbah2/kitchenstock/internal/service/catalog"
	"github.com/mamadbah2/kitchenstock/internal/service/serving"
)

// ServingHandler exposes recipe capacity, validation and serving.
type ServingHandler struct {
	recipes *catalog.Catalog
	engine  *serving.Engine
	logger  *zap.Logger
}

// NewServingHandler constructs the serving HTTP adapter.
func NewServingHandler(recipes *catalog.Catalog, engine *serving.Engine, logger *zap.Logger) *ServingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServingHandler{recipes: recipes, engine: engine, logger: logger}
}

type portionsRequest struct {
	Portions int `json:"portions"`
}

type recipeView struct {
	models.Recipe
	MaxPortions int `json:"maxPortions"`
}

// ListRecipes returns every recipe with its current capacity.
func (h *ServingHandler) ListRecipes(c *gin.Context) {
	recipes := h.recipes.List()
	out := make([]recipeView, 0, len(recipes))
	for _, r := range recipes {
		capacity, err := h.engine.MaxPortions(r.ID)
		if err != nil {
			h.logger.Warn("capacity unavailable", zap.Int64("recipe_id", r.ID), zap.Error(err))
		}
		out = append(out, recipeView{Recipe: r, MaxPortions: capacity})
	}
	c.JSON(http.StatusOK, out)
}

// Capacity returns how many portions can be served right now.
func (h *ServingHandler) Capacity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	capacity, err := h.engine.MaxPortions(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipeId": id, "maxPortions": capacity})
}

// Validate reports the shortfalls for a requested serving without changing stock.
func (h *ServingHandler) Validate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req portionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	shortfalls, err := h.engine.Validate(id, req.Portions)
	if err != nil {
		respondError(c, err)
		return
	}
	if shortfalls == nil {
		shortfalls = []models.Shortfall{}
	}
	c.JSON(http.StatusOK, gin.H{"recipeId": id, "portions": req.Portions, "insufficient": shortfalls})
}

// Serve deducts stock and records the serving.
func (h *ServingHandler) Serve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req portionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	record, err := h.engine.Serve(c.Request.Context(), id, req.Portions, actorFrom(c))
	if err != nil {
		var verr *serving.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusConflict, gin.H{"error": serving.ErrValidationFailed.Error(), "insufficient": verr.Shortfalls})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// History returns every recorded serving oldest-first.
func (h *ServingHandler) History(c *gin.Context) {
	records := h.engine.History()
	if records == nil {
		records = []models.ServingRecord{}
	}
	c.JSON(http.StatusOK, records)
}
