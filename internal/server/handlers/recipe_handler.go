package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	"github.com/mamadbah2/kitchenstock/internal/service/catalog"
	"github.com/mamadbah2/kitchenstock/internal/service/serving"
)

// RecipeHandler exposes recipe edits.
type RecipeHandler struct {
	editor *catalog.Editor
	engine *serving.Engine
	logger *zap.Logger
}

// NewRecipeHandler constructs the recipe edit HTTP adapter.
func NewRecipeHandler(editor *catalog.Editor, engine *serving.Engine, logger *zap.Logger) *RecipeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeHandler{editor: editor, engine: engine, logger: logger}
}

type recipeRequest struct {
	Name         string                     `json:"name"`
	Description  string                     `json:"description"`
	Requirements []models.RecipeRequirement `json:"requirements"`
}

// Update replaces a recipe's definition and requirement list.
func (h *RecipeHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	recipe, err := h.editor.Update(c.Request.Context(), models.Recipe{
		ID:           id,
		Name:         req.Name,
		Description:  req.Description,
		Requirements: req.Requirements,
	}, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	capacity, err := h.engine.MaxPortions(id)
	if err != nil {
		h.logger.Warn("capacity unavailable", zap.Int64("recipe_id", id), zap.Error(err))
	}
	c.JSON(http.StatusOK, recipeView{Recipe: recipe, MaxPortions: capacity})
}
