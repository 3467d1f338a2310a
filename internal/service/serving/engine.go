package serving

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	"github.com/mamadbah2/kitchenstock/internal/metrics"
	"github.com/mamadbah2/kitchenstock/internal/service/stock"
)

var (
	// ErrInvalidPortions indicates a non-positive portion count.
	ErrInvalidPortions = errors.New("portions must be a positive integer")
	// ErrValidationFailed indicates the ledger cannot cover the requested serving.
	ErrValidationFailed = errors.New("insufficient ingredients for serving")
	// ErrNoRequirements indicates a recipe without ingredients, which can never be served.
	ErrNoRequirements = errors.New("recipe has no ingredients")
)

// ValidationError carries the shortfalls of a rejected serving.
type ValidationError struct {
	RecipeID   int64
	Portions   int
	Shortfalls []models.Shortfall
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		names = append(names, s.Name)
	}
	return fmt.Sprintf("recipe %d x%d: %s (%s)", e.RecipeID, e.Portions, ErrValidationFailed, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// RecipeSource resolves recipes and their requirements.
type RecipeSource interface {
	Recipe(id int64) (models.Recipe, error)
}

// Publisher forwards envelopes to the event pipeline.
type Publisher interface {
	Publish(ctx context.Context, env models.Envelope) error
}

// Engine computes servable capacity and performs serve transactions.
type Engine struct {
	ledger    *stock.Ledger
	recipes   RecipeSource
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string

	mu      sync.RWMutex
	history []models.ServingRecord
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMetrics records serve outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine wires the serving engine.
func NewEngine(ledger *stock.Ledger, recipes RecipeSource, publisher Publisher, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		ledger:    ledger,
		recipes:   recipes,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxPortions returns how many whole portions current stock can cover.
// It reads the ledger on every call.
func (e *Engine) MaxPortions(recipeID int64) (int, error) {
	recipe, err := e.recipes.Recipe(recipeID)
	if err != nil {
		return 0, err
	}

	var portions int
	e.ledger.View(func(tx *stock.Tx) {
		portions = maxPortions(tx, needsOf(recipe))
	})
	return portions, nil
}

// Validate lists the requirements that stock cannot cover for the given portions.
// An empty list means the serving is possible right now.
func (e *Engine) Validate(recipeID int64, portions int) ([]models.Shortfall, error) {
	if portions <= 0 {
		return nil, ErrInvalidPortions
	}
	recipe, err := e.recipes.Recipe(recipeID)
	if err != nil {
		return nil, err
	}

	var shortfalls []models.Shortfall
	e.ledger.View(func(tx *stock.Tx) {
		shortfalls = shortfallsFor(tx, needsOf(recipe), portions)
	})
	return shortfalls, nil
}

// Serve validates and deducts every requirement under one ledger lock, records
// the serving and emits a meal_served envelope.
func (e *Engine) Serve(ctx context.Context, recipeID int64, portions int, servedBy models.Actor) (models.ServingRecord, error) {
	if portions <= 0 {
		e.metrics.ServeResult("invalid", 0)
		return models.ServingRecord{}, ErrInvalidPortions
	}
	recipe, err := e.recipes.Recipe(recipeID)
	if err != nil {
		return models.ServingRecord{}, err
	}
	if len(recipe.Requirements) == 0 {
		e.metrics.ServeResult("invalid", 0)
		return models.ServingRecord{}, fmt.Errorf("recipe %d: %w", recipeID, ErrNoRequirements)
	}

	needs := needsOf(recipe)
	err = e.ledger.Transact(func(tx *stock.Tx) error {
		if shortfalls := shortfallsFor(tx, needs, portions); len(shortfalls) > 0 {
			return &ValidationError{RecipeID: recipeID, Portions: portions, Shortfalls: shortfalls}
		}
		for _, n := range needs {
			if _, err := tx.Deduct(n.ingredientID, n.required(portions)); err != nil {
				return fmt.Errorf("deduct %s: %w", n.name, err)
			}
		}
		return nil
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			e.metrics.ServeResult("rejected", 0)
			e.logger.Info("serving rejected",
				zap.Int64("recipe_id", recipeID),
				zap.Int("portions", portions),
				zap.Int("shortfalls", len(verr.Shortfalls)))
			return models.ServingRecord{}, err
		}
		e.metrics.ServeResult("failed", 0)
		e.logger.Error("serving transaction aborted", zap.Int64("recipe_id", recipeID), zap.Error(err))
		return models.ServingRecord{}, err
	}

	record := models.ServingRecord{
		ID:             e.newID(),
		RecipeID:       recipe.ID,
		RecipeName:     recipe.Name,
		Portions:       portions,
		ServedByUserID: servedBy.ID,
		ServedByName:   servedBy.Name,
		Timestamp:      e.now().UTC(),
	}
	e.mu.Lock()
	e.history = append(e.history, record)
	e.mu.Unlock()

	e.metrics.ServeResult("served", portions)
	e.logger.Info("meal served",
		zap.String("serving_id", record.ID),
		zap.String("recipe", recipe.Name),
		zap.Int("portions", portions),
		zap.String("served_by", servedBy.Name))

	e.emit(ctx, record, servedBy)
	return record, nil
}

// History returns every serving oldest-first.
func (e *Engine) History() []models.ServingRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.ServingRecord, len(e.history))
	copy(out, e.history)
	return out
}

// HistoryBetween returns servings with start <= timestamp < end.
func (e *Engine) HistoryBetween(start, end time.Time) []models.ServingRecord {
	var out []models.ServingRecord
	for _, rec := range e.History() {
		if rec.Timestamp.Before(start) || !rec.Timestamp.Before(end) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (e *Engine) emit(ctx context.Context, record models.ServingRecord, servedBy models.Actor) {
	if e.publisher == nil {
		return
	}
	env, err := models.NewEnvelope(models.EventMealServed,
		fmt.Sprintf("%s served %d portions of %s", displayName(servedBy), record.Portions, record.RecipeName),
		models.MealServedPayload{
			RecipeID:     record.RecipeID,
			RecipeName:   record.RecipeName,
			Portions:     record.Portions,
			ServedByName: record.ServedByName,
			ServedAt:     record.Timestamp,
		})
	if err != nil {
		e.logger.Error("failed to build meal_served envelope", zap.Error(err))
		return
	}
	actor := servedBy
	env.User = &actor
	env.Timestamp = record.Timestamp

	if err := e.publisher.Publish(ctx, env); err != nil {
		e.logger.Warn("failed to publish meal_served", zap.String("serving_id", record.ID), zap.Error(err))
	}
}

// need is the per-portion amount of one ingredient, summed over every
// requirement line that names it.
type need struct {
	ingredientID int64
	name         string
	unit         models.Unit
	perPortion   decimal.Decimal
}

func (n need) required(portions int) decimal.Decimal {
	return n.perPortion.Mul(decimal.NewFromInt(int64(portions)))
}

func needsOf(recipe models.Recipe) []need {
	byID := make(map[int64]*need, len(recipe.Requirements))
	for _, req := range recipe.Requirements {
		amount := decimal.NewFromFloat(req.QuantityPerPortion)
		if n, ok := byID[req.IngredientID]; ok {
			n.perPortion = n.perPortion.Add(amount)
			continue
		}
		byID[req.IngredientID] = &need{
			ingredientID: req.IngredientID,
			name:         req.Name,
			unit:         req.Unit,
			perPortion:   amount,
		}
	}

	out := make([]need, 0, len(byID))
	for _, id := range recipe.IngredientIDs() {
		out = append(out, *byID[id])
	}
	return out
}

// maxPortions uses the same comparison as shortfallsFor, so any count it
// returns passes validation.
func maxPortions(tx *stock.Tx, needs []need) int {
	if len(needs) == 0 {
		return 0
	}
	best := math.MaxInt
	for _, n := range needs {
		available, ok := tx.Quantity(n.ingredientID)
		if !ok {
			return 0
		}
		quotient := available.Div(n.perPortion).Floor()
		if !quotient.LessThan(decimal.NewFromInt(math.MaxInt32)) {
			quotient = decimal.NewFromInt(math.MaxInt32)
		}
		portions := int(quotient.IntPart())
		for portions > 0 && n.required(portions).GreaterThan(available) {
			portions--
		}
		if portions < best {
			best = portions
		}
	}
	return best
}

func shortfallsFor(tx *stock.Tx, needs []need, portions int) []models.Shortfall {
	var out []models.Shortfall
	for _, n := range needs {
		required := n.required(portions)
		available, _ := tx.Quantity(n.ingredientID)
		if available.LessThan(required) {
			out = append(out, models.Shortfall{
				IngredientID: n.ingredientID,
				Name:         n.name,
				Unit:         n.unit,
				Required:     required.InexactFloat64(),
				Available:    available.InexactFloat64(),
			})
		}
	}
	return out
}

func displayName(actor models.Actor) string {
	if actor.Name == "" {
		return "A user"
	}
	return actor.Name
}
