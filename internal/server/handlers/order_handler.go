package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	"github.com/mamadbah2/kitchenstock/internal/service/orders"
)

// OrderHandler exposes ingredient orders.
type OrderHandler struct {
	service *orders.Service
	logger  *zap.Logger
}

// NewOrderHandler constructs the order HTTP adapter.
func NewOrderHandler(service *orders.Service, logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{service: service, logger: logger}
}

type createOrderRequest struct {
	IngredientID int64   `json:"ingredientId"`
	Quantity     float64 `json:"quantity"`
}

type updateOrderRequest struct {
	Status models.OrderStatus `json:"status"`
}

// List returns every order newest first.
func (h *OrderHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.List())
}

// Get returns one order.
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.service.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Create places a pending order.
func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.service.Create(c.Request.Context(), req.IngredientID, req.Quantity, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// UpdateStatus moves an order along its lifecycle.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status, actorFrom(c))
	if err != nil {
		h.logger.Debug("order update refused", zap.Int64("order_id", id), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
