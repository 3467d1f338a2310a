package stock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

// Publisher forwards envelopes to the event pipeline.
type Publisher interface {
	Publish(ctx context.Context, env models.Envelope) error
}

// Service wraps the ledger with the staff-facing inventory actions that emit events.
type Service struct {
	ledger    *Ledger
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time

	mu         sync.RWMutex
	deliveries []models.Delivery
}

// NewService wires the inventory service.
func NewService(ledger *Ledger, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Ledger exposes the underlying ledger for read paths.
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// Get returns the current stock of one ingredient.
func (s *Service) Get(id int64) (models.IngredientStock, error) {
	return s.ledger.Get(id)
}

// AddIngredient registers a new ingredient and announces it.
func (s *Service) AddIngredient(ctx context.Context, item models.IngredientStock, actor models.Actor) (models.IngredientStock, error) {
	stored, err := s.ledger.Create(item)
	if err != nil {
		return models.IngredientStock{}, err
	}

	s.logger.Info("ingredient added",
		zap.Int64("ingredient_id", stored.ID),
		zap.String("name", stored.Name),
		zap.Float64("quantity", stored.Quantity))

	s.announce(ctx, actor, fmt.Sprintf("%s added %g %s of %s to inventory", actorName(actor), stored.Quantity, stored.Unit, stored.Name),
		models.InventoryPayload{
			IngredientID: stored.ID,
			Name:         stored.Name,
			Quantity:     stored.Quantity,
			Unit:         stored.Unit,
			Change:       "created",
		})
	return stored, nil
}

// Restock records a delivery and increases the ingredient's quantity.
func (s *Service) Restock(ctx context.Context, id int64, amount float64, actor models.Actor) (models.IngredientStock, error) {
	updated, err := s.ledger.Add(id, amount)
	if err != nil {
		return models.IngredientStock{}, err
	}

	delivery := models.Delivery{
		IngredientID: id,
		Amount:       amount,
		DeliveredAt:  s.now().UTC(),
		UserID:       actor.ID,
	}
	s.mu.Lock()
	s.deliveries = append(s.deliveries, delivery)
	s.mu.Unlock()

	previous := decimal.NewFromFloat(updated.Quantity).Sub(decimal.NewFromFloat(amount)).InexactFloat64()
	s.announce(ctx, actor, fmt.Sprintf("%s added %g %s of %s to inventory", actorName(actor), amount, updated.Unit, updated.Name),
		models.InventoryPayload{
			IngredientID:     updated.ID,
			Name:             updated.Name,
			PreviousQuantity: &previous,
			Quantity:         updated.Quantity,
			Unit:             updated.Unit,
			Change:           "delivery",
		})
	return updated, nil
}

// Deliveries returns the delivery log oldest-first.
func (s *Service) Deliveries() []models.Delivery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Delivery, len(s.deliveries))
	copy(out, s.deliveries)
	return out
}

func (s *Service) announce(ctx context.Context, actor models.Actor, message string, payload models.InventoryPayload) {
	if s.publisher == nil {
		return
	}
	env, err := models.NewEnvelope(models.EventInventoryUpdated, message, payload)
	if err != nil {
		s.logger.Error("failed to build inventory envelope", zap.Error(err))
		return
	}
	if actor != (models.Actor{}) {
		env.User = &actor
	}
	if err := s.publisher.Publish(ctx, env); err != nil {
		s.logger.Warn("failed to publish inventory event", zap.Error(err))
	}
}

func actorName(actor models.Actor) string {
	if actor.Name == "" {
		return "A user"
	}
	return actor.Name
}
