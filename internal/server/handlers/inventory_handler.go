package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	"github.com/mamadbah2/kitchenstock/internal/service/stock"
)

// InventoryHandler serves the stock ledger.
type InventoryHandler struct {
	svc    *stock.Service
	logger *zap.Logger
}

// NewInventoryHandler constructs the inventory HTTP adapter.
func NewInventoryHandler(svc *stock.Service, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

type addIngredientRequest struct {
	ID        int64       `json:"id" binding:"required,gt=0"`
	Name      string      `json:"name" binding:"required"`
	Quantity  float64     `json:"quantity" binding:"gte=0"`
	Unit      models.Unit `json:"unit" binding:"required"`
	Threshold float64     `json:"threshold" binding:"gte=0"`
}

type restockRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// List returns every ingredient.
func (h *InventoryHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Ledger().List())
}

// Add registers a new ingredient.
func (h *InventoryHandler) Add(c *gin.Context) {
	var req addIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("invalid ingredient payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	item, err := h.svc.AddIngredient(c.Request.Context(), models.IngredientStock{
		ID:        req.ID,
		Name:      req.Name,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Threshold: req.Threshold,
	}, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Restock records a delivery against an ingredient.
func (h *InventoryHandler) Restock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive number"})
		return
	}

	item, err := h.svc.Restock(c.Request.Context(), id, req.Amount, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
