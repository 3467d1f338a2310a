package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

var (
	// ErrNotFound indicates the order id is unknown.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidQuantity indicates a non-positive or non-finite order quantity.
	ErrInvalidQuantity = errors.New("order quantity must be positive")
	// ErrInvalidStatus indicates an unknown order status.
	ErrInvalidStatus = errors.New("unknown order status")
	// ErrInvalidTransition indicates a status change the order lifecycle forbids.
	ErrInvalidTransition = errors.New("order status change not allowed")
)

// Inventory resolves ingredients and applies deliveries.
type Inventory interface {
	Get(id int64) (models.IngredientStock, error)
	Restock(ctx context.Context, id int64, amount float64, actor models.Actor) (models.IngredientStock, error)
}

// Publisher forwards envelopes to the event pipeline.
type Publisher interface {
	Publish(ctx context.Context, env models.Envelope) error
}

// Service keeps ingredient orders. A delivered order adds its quantity to stock exactly once.
type Service struct {
	inventory Inventory
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	orders map[int64]*models.Order
	nextID int64
}

// NewService wires the order service.
func NewService(inventory Inventory, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		inventory: inventory,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		orders:    make(map[int64]*models.Order),
	}
}

// Create records a pending order and announces it.
func (s *Service) Create(ctx context.Context, ingredientID int64, quantity float64, actor models.Actor) (models.Order, error) {
	if !models.ValidQuantity(quantity, false) {
		return models.Order{}, ErrInvalidQuantity
	}
	ingredient, err := s.inventory.Get(ingredientID)
	if err != nil {
		return models.Order{}, err
	}

	now := s.now().UTC()
	s.mu.Lock()
	s.nextID++
	order := &models.Order{
		ID:             s.nextID,
		IngredientID:   ingredient.ID,
		IngredientName: ingredient.Name,
		Quantity:       quantity,
		Unit:           ingredient.Unit,
		Status:         models.OrderPending,
		CreatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.orders[order.ID] = order
	created := *order
	s.mu.Unlock()

	s.logger.Info("order created",
		zap.Int64("order_id", created.ID),
		zap.String("ingredient", created.IngredientName),
		zap.Float64("quantity", created.Quantity))

	s.announce(ctx, models.EventOrderCreated, actor,
		fmt.Sprintf("%s ordered %g %s of %s", actorName(actor), created.Quantity, created.Unit, created.IngredientName), created)
	return created, nil
}

// UpdateStatus moves an order along its lifecycle. Delivering restocks the ingredient.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, actor models.Actor) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, fmt.Errorf("%q: %w", status, ErrInvalidStatus)
	}

	s.mu.Lock()
	order, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return models.Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if !order.Status.CanBecome(status) {
		from := order.Status
		s.mu.Unlock()
		return models.Order{}, fmt.Errorf("order %d %s -> %s: %w", id, from, status, ErrInvalidTransition)
	}
	if status == models.OrderDelivered {
		// Held across the restock so a concurrent update cannot deliver twice.
		if _, err := s.inventory.Restock(ctx, order.IngredientID, order.Quantity, actor); err != nil {
			s.mu.Unlock()
			return models.Order{}, fmt.Errorf("deliver order %d: %w", id, err)
		}
	}
	order.Status = status
	order.UpdatedAt = s.now().UTC()
	updated := *order
	s.mu.Unlock()

	s.logger.Info("order status updated", zap.Int64("order_id", id), zap.String("status", string(status)))

	s.announce(ctx, models.EventOrderStatusUpdate, actor,
		fmt.Sprintf("%s marked the %s order as %s", actorName(actor), updated.IngredientName, updated.Status), updated)
	return updated, nil
}

// Get returns one order.
func (s *Service) Get(id int64) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return models.Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return *order, nil
}

// List returns every order, newest first.
func (s *Service) List() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, order := range s.orders {
		out = append(out, *order)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Service) announce(ctx context.Context, eventType string, actor models.Actor, message string, order models.Order) {
	if s.publisher == nil {
		return
	}
	env, err := models.NewEnvelope(eventType, message, models.OrderPayload{
		ID:             order.ID,
		IngredientID:   order.IngredientID,
		IngredientName: order.IngredientName,
		Quantity:       order.Quantity,
		Unit:           order.Unit,
		Status:         string(order.Status),
	})
	if err != nil {
		s.logger.Error("failed to build order envelope", zap.Error(err))
		return
	}
	if actor != (models.Actor{}) {
		env.User = &actor
	}
	if err := s.publisher.Publish(ctx, env); err != nil {
		s.logger.Warn("failed to publish order event", zap.String("type", eventType), zap.Error(err))
	}
}

func actorName(actor models.Actor) string {
	if actor.Name == "" {
		return "A user"
	}
	return actor.Name
}
